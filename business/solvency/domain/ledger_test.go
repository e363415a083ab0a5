package domain

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/internal/asset"
)

func testAsset(symbol string, decimals uint8) *asset.Asset {
	return asset.NewAsset(asset.NewSyntheticAssetID(symbol), symbol, decimals)
}

func TestShortfallLedgerMergesSameCounterpartyAndAsset(t *testing.T) {
	usdc := testAsset("USDC", 6)
	ledger := NewShortfallLedger()

	ledger.Add("position-a", usdc, decimal.NewFromInt(100), decimal.NewFromInt(100))
	ledger.Add("position-a", usdc, decimal.NewFromInt(50), decimal.NewFromInt(50))

	if got := ledger.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 after merging same origin and asset", got)
	}

	entry, ok := ledger.Get("position-a", usdc.ID())
	if !ok {
		t.Fatal("Get() missing merged entry")
	}
	if !entry.Amount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("merged amount = %s, want 150", entry.Amount)
	}
	if !entry.USD.Equal(decimal.NewFromInt(150)) {
		t.Errorf("merged usd = %s, want 150", entry.USD)
	}
}

func TestShortfallLedgerKeepsDistinctCounterparties(t *testing.T) {
	usdc := testAsset("USDC", 6)
	weth := testAsset("WETH", 18)
	ledger := NewShortfallLedger()

	ledger.Add("position-b", usdc, decimal.NewFromInt(10), decimal.NewFromInt(10))
	ledger.Add("position-a", usdc, decimal.NewFromInt(20), decimal.NewFromInt(20))
	ledger.Add("position-a", weth, decimal.NewFromInt(1), decimal.NewFromInt(2500))

	if got := ledger.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	if !ledger.TotalUSD().Equal(decimal.NewFromInt(2530)) {
		t.Errorf("TotalUSD() = %s, want 2530", ledger.TotalUSD())
	}

	entries := ledger.Entries()
	if entries[0].Counterparty != "position-a" || entries[len(entries)-1].Counterparty != "position-b" {
		t.Errorf("Entries() not ordered by counterparty: %+v", entries)
	}
}

func TestShortfallLedgerEmpty(t *testing.T) {
	ledger := NewShortfallLedger()
	if !ledger.IsEmpty() {
		t.Error("new ledger should be empty")
	}
	if !ledger.TotalUSD().IsZero() {
		t.Error("empty ledger TotalUSD should be zero")
	}
	if entries := ledger.Entries(); len(entries) != 0 {
		t.Errorf("empty ledger Entries() = %v, want none", entries)
	}
}
