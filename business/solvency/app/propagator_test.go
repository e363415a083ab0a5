package app

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/business/solvency/domain"
	pricingDomain "github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/asset"
)

func evaluateAll(t *testing.T, set domain.EntitySet, prices *pricingDomain.PriceTable) map[domain.EntityID]*domain.Assessment {
	t.Helper()
	calc := NewCalculator(prices)
	out := make(map[domain.EntityID]*domain.Assessment, len(set))
	for _, id := range set.SortedIDs() {
		a, err := calc.EvaluateEntity(set, id)
		if err != nil {
			t.Fatalf("EvaluateEntity(%s): %v", id, err)
		}
		out[id] = a
	}
	return out
}

// A 600 shortfall at the bottom of a four-hop chain shrinks at every hop by
// the receiver's own surplus: the vault at the top loses exactly 200.
func TestPropagateCascadeNetsSurplusAtEachHop(t *testing.T) {
	usdc := newTestAsset("USDC", 6)
	prices := priceTable(t, map[*asset.Asset]int64{usdc: 1})

	set := newSet(
		&domain.Entity{
			ID:       "position",
			Type:     domain.EntityLeveragedPosition,
			Holdings: []domain.Holding{single(t, usdc, "400")},
			Obligations: []domain.Obligation{
				owes(t, "position", "pool", usdc, "1000"),
			},
		},
		&domain.Entity{
			ID:   "pool",
			Type: domain.EntityLiquidityPool,
			Obligations: []domain.Obligation{
				owes(t, "pool", "strategy", usdc, "800"),
			},
		},
		&domain.Entity{
			ID:   "strategy",
			Type: domain.EntityLendingStrategy,
			Obligations: []domain.Obligation{
				owes(t, "strategy", "vault", usdc, "600"),
			},
		},
		&domain.Entity{ID: "vault", Type: domain.EntityVault},
	)

	assessments := evaluateAll(t, set, prices)
	cascades, err := NewPropagator(prices).Propagate(set, assessments)
	if err != nil {
		t.Fatalf("Propagate() error: %v", err)
	}

	wantReceived := map[domain.EntityID]struct {
		from   domain.EntityID
		amount int64
	}{
		"pool":     {"position", 600},
		"strategy": {"pool", 400},
		"vault":    {"strategy", 200},
	}
	for id, want := range wantReceived {
		entry, ok := cascades[id].Received.Get(want.from, usdc.ID())
		if !ok {
			t.Fatalf("%s received nothing from %s", id, want.from)
		}
		if !entry.Amount.Equal(decimal.NewFromInt(want.amount)) {
			t.Errorf("%s received %s from %s, want %d", id, entry.Amount, want.from, want.amount)
		}
	}

	// The vault's 600 surplus absorbs the whole 200: nothing remains pending.
	if !cascades["vault"].ShortfallUSD.IsZero() {
		t.Errorf("vault effective shortfall = %s, want 0", cascades["vault"].ShortfallUSD)
	}
	if !cascades["strategy"].ShortfallUSD.Equal(decimal.NewFromInt(200)) {
		t.Errorf("strategy effective shortfall = %s, want 200", cascades["strategy"].ShortfallUSD)
	}
	if caused := cascades["position"].Caused.TotalUSD(); !caused.Equal(decimal.NewFromInt(600)) {
		t.Errorf("position caused %s, want 600", caused)
	}
}

// A shortfall splits across same-type creditors pro-rata by face amount owed,
// and the shares add up to the whole shortfall.
func TestPropagateProRataAcrossCreditors(t *testing.T) {
	usdc := newTestAsset("USDC", 6)
	prices := priceTable(t, map[*asset.Asset]int64{usdc: 1})

	set := newSet(
		&domain.Entity{
			ID:   "debtor",
			Type: domain.EntityLeveragedPosition,
			Obligations: []domain.Obligation{
				owes(t, "debtor", "big-creditor", usdc, "600"),
				owes(t, "debtor", "small-creditor", usdc, "300"),
			},
		},
		&domain.Entity{ID: "big-creditor", Type: domain.EntityLiquidityPool},
		&domain.Entity{ID: "small-creditor", Type: domain.EntityLiquidityPool},
	)

	assessments := evaluateAll(t, set, prices)
	if !assessments["debtor"].ShortfallUSD.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("debtor shortfall = %s, want 900", assessments["debtor"].ShortfallUSD)
	}

	cascades, err := NewPropagator(prices).Propagate(set, assessments)
	if err != nil {
		t.Fatalf("Propagate() error: %v", err)
	}

	big, _ := cascades["big-creditor"].Received.Get("debtor", usdc.ID())
	small, _ := cascades["small-creditor"].Received.Get("debtor", usdc.ID())
	if !big.Amount.Equal(decimal.NewFromInt(600)) {
		t.Errorf("big-creditor received %s, want 600", big.Amount)
	}
	if !small.Amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("small-creditor received %s, want 300", small.Amount)
	}
	if total := big.Amount.Add(small.Amount); !total.Equal(decimal.NewFromInt(900)) {
		t.Errorf("distributed total = %s, want the full 900", total)
	}
}

// External creditors take their pro-rata share (reducing what modeled
// creditors lose) but never accumulate state of their own.
func TestPropagateExternalCreditorShare(t *testing.T) {
	usdc := newTestAsset("USDC", 6)
	prices := priceTable(t, map[*asset.Asset]int64{usdc: 1})

	set := newSet(
		&domain.Entity{
			ID:   "debtor",
			Type: domain.EntityLendingStrategy,
			Obligations: []domain.Obligation{
				owes(t, "debtor", "vault", usdc, "500"),
				owes(t, "debtor", "external-lender", usdc, "500"),
			},
		},
		&domain.Entity{ID: "vault", Type: domain.EntityVault},
	)

	assessments := evaluateAll(t, set, prices)
	cascades, err := NewPropagator(prices).Propagate(set, assessments)
	if err != nil {
		t.Fatalf("Propagate() error: %v", err)
	}

	if _, ok := cascades["external-lender"]; ok {
		t.Error("external creditor must not get a cascade record")
	}

	vault, ok := cascades["vault"].Received.Get("debtor", usdc.ID())
	if !ok || !vault.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("vault received %+v, want its 500 pro-rata share", vault)
	}

	ext, ok := cascades["debtor"].Caused.Get("external-lender", usdc.ID())
	if !ok || !ext.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("caused entry for external creditor = %+v, want 500", ext)
	}
}

// Two debtors shorting the same creditor stay separate entries in its
// received ledger, keyed by origin.
func TestPropagateSiblingDebtorsKeptSeparate(t *testing.T) {
	usdc := newTestAsset("USDC", 6)
	prices := priceTable(t, map[*asset.Asset]int64{usdc: 1})

	set := newSet(
		&domain.Entity{
			ID:   "debtor-a",
			Type: domain.EntityLeveragedPosition,
			Obligations: []domain.Obligation{
				owes(t, "debtor-a", "pool", usdc, "100"),
			},
		},
		&domain.Entity{
			ID:   "debtor-b",
			Type: domain.EntityLeveragedPosition,
			Obligations: []domain.Obligation{
				owes(t, "debtor-b", "pool", usdc, "200"),
			},
		},
		&domain.Entity{ID: "pool", Type: domain.EntityLiquidityPool},
	)

	assessments := evaluateAll(t, set, prices)
	cascades, err := NewPropagator(prices).Propagate(set, assessments)
	if err != nil {
		t.Fatalf("Propagate() error: %v", err)
	}

	received := cascades["pool"].Received
	if received.Len() != 2 {
		t.Fatalf("pool received %d entries, want separate entries per origin", received.Len())
	}
	a, _ := received.Get("debtor-a", usdc.ID())
	b, _ := received.Get("debtor-b", usdc.ID())
	if !a.Amount.Equal(decimal.NewFromInt(100)) || !b.Amount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("received = %s / %s, want 100 / 200", a.Amount, b.Amount)
	}
}

func TestPropagateRejectsCycle(t *testing.T) {
	usdc := newTestAsset("USDC", 6)
	prices := priceTable(t, map[*asset.Asset]int64{usdc: 1})

	set := newSet(
		&domain.Entity{
			ID:   "a",
			Type: domain.EntityLiquidityPool,
			Obligations: []domain.Obligation{
				owes(t, "a", "b", usdc, "10"),
			},
		},
		&domain.Entity{
			ID:   "b",
			Type: domain.EntityLiquidityPool,
			Obligations: []domain.Obligation{
				owes(t, "b", "a", usdc, "10"),
			},
		},
	)

	assessments := evaluateAll(t, set, prices)
	_, err := NewPropagator(prices).Propagate(set, assessments)
	if !errors.Is(err, domain.ErrCyclicGraph) {
		t.Fatalf("Propagate() error = %v, want ErrCyclicGraph", err)
	}
}
