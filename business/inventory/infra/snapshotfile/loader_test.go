package snapshotfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	solvencyDomain "github.com/fd1az/vaultscope/business/solvency/domain"
	"github.com/fd1az/vaultscope/internal/apperror"
)

const sampleSnapshot = `{
  "chain_id": 1,
  "timestamp": "2026-08-25T12:00:00Z",
  "prices": {
    "USDC": "1.0",
    "WETH": "2500",
    "vltUSDC": "1.02"
  },
  "assets": [
    {"symbol": "USDC", "name": "USD Coin", "decimals": 6, "address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
    {"symbol": "WETH", "decimals": 18, "address": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"},
    {"symbol": "vltUSDC", "decimals": 18}
  ],
  "entities": [
    {
      "id": "vault-usdc",
      "type": "vault",
      "name": "USDC Vault",
      "address": "0x1111111111111111111111111111111111111111",
      "holdings": [
        {"asset": "USDC", "amount": "1000.5"}
      ]
    },
    {
      "id": "amm-pool",
      "type": "liquidity_pool",
      "holdings": [
        {"pair": [
          {"asset": "USDC", "amount": "5000"},
          {"asset": "WETH", "amount": "2"}
        ]}
      ],
      "obligations": [
        {"creditor": "vault-usdc", "asset": "USDC", "amount": "800"}
      ]
    }
  ]
}`

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParsesSnapshot(t *testing.T) {
	snap, err := NewLoader(writeSnapshot(t, sampleSnapshot)).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if snap.ChainID != 1 {
		t.Errorf("ChainID = %d, want 1", snap.ChainID)
	}
	if snap.Registry.Count() != 3 {
		t.Errorf("Registry.Count() = %d, want 3", snap.Registry.Count())
	}
	if len(snap.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(snap.Entities))
	}

	usdc, ok := snap.Registry.GetBySymbol("USDC")
	if !ok || !usdc.IsOnChain() {
		t.Error("USDC must resolve as an on-chain token")
	}
	share, ok := snap.Registry.GetBySymbol("vltUSDC")
	if !ok || share.IsOnChain() {
		t.Error("vltUSDC must resolve as a synthetic instrument")
	}

	vault := snap.Entities["vault-usdc"]
	if vault.Type != solvencyDomain.EntityVault || len(vault.Holdings) != 1 {
		t.Errorf("vault = %+v, want one holding of type vault", vault)
	}
	if got := vault.Holdings[0].Legs()[0].ToDecimal(); !got.Equal(decimal.RequireFromString("1000.5")) {
		t.Errorf("vault holding = %s, want 1000.5", got)
	}

	pool := snap.Entities["amm-pool"]
	if pool.Holdings[0].Kind() != solvencyDomain.HoldingPaired {
		t.Error("pool holding must parse as a pair")
	}
	if len(pool.Obligations) != 1 || pool.Obligations[0].Creditor != "vault-usdc" {
		t.Errorf("pool obligations = %+v", pool.Obligations)
	}

	if !snap.Prices["vltUSDC"].Equal(decimal.RequireFromString("1.02")) {
		t.Errorf("embedded price vltUSDC = %s, want 1.02", snap.Prices["vltUSDC"])
	}
}

func TestLoadRejectsUndeclaredAsset(t *testing.T) {
	const body = `{
	  "chain_id": 1,
	  "assets": [{"symbol": "USDC", "decimals": 6}],
	  "entities": [
	    {"id": "v", "type": "vault", "holdings": [{"asset": "GHOST", "amount": "1"}]}
	  ]
	}`

	_, err := NewLoader(writeSnapshot(t, body)).Load(context.Background())
	if code := apperror.GetCode(err); code != apperror.CodeMissingReference {
		t.Fatalf("error code = %s (%v), want %s", code, err, apperror.CodeMissingReference)
	}
}

func TestLoadRejectsUnknownEntityType(t *testing.T) {
	const body = `{
	  "chain_id": 1,
	  "assets": [{"symbol": "USDC", "decimals": 6}],
	  "entities": [{"id": "x", "type": "hedge_fund"}]
	}`

	_, err := NewLoader(writeSnapshot(t, body)).Load(context.Background())
	if code := apperror.GetCode(err); code != apperror.CodeSnapshotInvalid {
		t.Fatalf("error code = %s (%v), want %s", code, err, apperror.CodeSnapshotInvalid)
	}
}

func TestLoadRejectsSelfObligation(t *testing.T) {
	const body = `{
	  "chain_id": 1,
	  "assets": [{"symbol": "USDC", "decimals": 6}],
	  "entities": [
	    {"id": "p", "type": "liquidity_pool",
	     "obligations": [{"creditor": "p", "asset": "USDC", "amount": "5"}]}
	  ]
	}`

	_, err := NewLoader(writeSnapshot(t, body)).Load(context.Background())
	if code := apperror.GetCode(err); code != apperror.CodeSnapshotInvalid {
		t.Fatalf("error code = %s (%v), want %s", code, err, apperror.CodeSnapshotInvalid)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())
	if code := apperror.GetCode(err); code != apperror.CodeSnapshotLoadFailed {
		t.Fatalf("error code = %s (%v), want %s", code, err, apperror.CodeSnapshotLoadFailed)
	}
}
