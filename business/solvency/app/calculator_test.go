package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/business/solvency/domain"
	pricingDomain "github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/asset"
)

func newTestAsset(symbol string, decimals uint8) *asset.Asset {
	return asset.NewAsset(asset.NewSyntheticAssetID(symbol), symbol, decimals)
}

func mustAmount(t *testing.T, a *asset.Asset, units string) asset.Amount {
	t.Helper()
	amt, err := asset.ParseString(a, units)
	if err != nil {
		t.Fatalf("ParseString(%s %s): %v", units, a.Symbol(), err)
	}
	return amt
}

func priceTable(t *testing.T, quotes map[*asset.Asset]int64) *pricingDomain.PriceTable {
	t.Helper()
	table := pricingDomain.NewPriceTable()
	for a, usd := range quotes {
		if err := table.Set(a, decimal.NewFromInt(usd), "test", time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	return table
}

func single(t *testing.T, a *asset.Asset, units string) domain.Holding {
	t.Helper()
	return domain.NewSingle(mustAmount(t, a, units))
}

func owes(t *testing.T, debtor, creditor domain.EntityID, a *asset.Asset, units string) domain.Obligation {
	t.Helper()
	return domain.Obligation{Debtor: debtor, Creditor: creditor, Position: single(t, a, units)}
}

func newSet(entities ...*domain.Entity) domain.EntitySet {
	set := make(domain.EntitySet, len(entities))
	for _, e := range entities {
		set[e.ID] = e
	}
	return set
}

// Holding 500 X at $1 against debts of 800 X and $50,000 worth of Y leaves
// nothing to swap: the shortfall is the full uncovered value, 50,300 USD.
func TestEvaluateEntityUncoveredDeficits(t *testing.T) {
	x := newTestAsset("X", 18)
	y := newTestAsset("Y", 18)
	prices := priceTable(t, map[*asset.Asset]int64{x: 1, y: 2000})

	set := newSet(
		&domain.Entity{
			ID:       "position",
			Type:     domain.EntityLeveragedPosition,
			Holdings: []domain.Holding{single(t, x, "500")},
			Obligations: []domain.Obligation{
				owes(t, "position", "pool-x", x, "800"),
				owes(t, "position", "pool-y", y, "25"), // 25 * $2000 = $50,000
			},
		},
		&domain.Entity{ID: "pool-x", Type: domain.EntityLiquidityPool},
		&domain.Entity{ID: "pool-y", Type: domain.EntityLiquidityPool},
	)

	a, err := NewCalculator(prices).EvaluateEntity(set, "position")
	if err != nil {
		t.Fatalf("EvaluateEntity() error: %v", err)
	}

	if !a.ShortfallUSD.Equal(decimal.NewFromInt(50300)) {
		t.Errorf("ShortfallUSD = %s, want 50300", a.ShortfallUSD)
	}
	if !a.Insolvent {
		t.Error("entity with uncovered deficits must be insolvent standalone")
	}
	if !a.SwappedUSD.IsZero() {
		t.Errorf("SwappedUSD = %s, want 0 with no surplus", a.SwappedUSD)
	}

	xs, ok := a.ShortfallByType[x.ID()]
	if !ok || !xs.Amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("X shortfall = %+v, want 300 X", xs)
	}
	ys, ok := a.ShortfallByType[y.ID()]
	if !ok || !ys.Amount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("Y shortfall = %+v, want 25 Y", ys)
	}
}

// Surplus in one asset type covers deficits in another at USD value, and the
// residual shortfall scales the deficit amounts proportionally.
func TestEvaluateEntitySwapCoverage(t *testing.T) {
	x := newTestAsset("X", 18)
	y := newTestAsset("Y", 18)
	prices := priceTable(t, map[*asset.Asset]int64{x: 1, y: 2000})

	set := newSet(
		&domain.Entity{
			ID:       "strategy",
			Type:     domain.EntityLendingStrategy,
			Holdings: []domain.Holding{single(t, x, "1000")},
			Obligations: []domain.Obligation{
				owes(t, "strategy", "vault", x, "500"),
				owes(t, "strategy", "vault", y, "1"),
			},
		},
		&domain.Entity{ID: "vault", Type: domain.EntityVault},
	)

	a, err := NewCalculator(prices).EvaluateEntity(set, "strategy")
	if err != nil {
		t.Fatalf("EvaluateEntity() error: %v", err)
	}

	// Surplus: 500 X = $500. Deficit: 1 Y = $2000. Swap $500, short $1500.
	if !a.SwappedUSD.Equal(decimal.NewFromInt(500)) {
		t.Errorf("SwappedUSD = %s, want 500", a.SwappedUSD)
	}
	if !a.ShortfallUSD.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("ShortfallUSD = %s, want 1500", a.ShortfallUSD)
	}

	ys := a.ShortfallByType[y.ID()]
	if !ys.Amount.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("Y shortfall amount = %s, want 0.75", ys.Amount)
	}
	if _, ok := a.ShortfallByType[x.ID()]; ok {
		t.Error("X had no deficit, must not appear in the shortfall map")
	}
}

// Full coverage by swap leaves the entity solvent with no shortfall entries.
func TestEvaluateEntitySolventViaSwap(t *testing.T) {
	x := newTestAsset("X", 18)
	y := newTestAsset("Y", 18)
	prices := priceTable(t, map[*asset.Asset]int64{x: 1, y: 2000})

	set := newSet(
		&domain.Entity{
			ID:       "strategy",
			Type:     domain.EntityLendingStrategy,
			Holdings: []domain.Holding{single(t, x, "5000")},
			Obligations: []domain.Obligation{
				owes(t, "strategy", "vault", y, "1"),
			},
		},
		&domain.Entity{ID: "vault", Type: domain.EntityVault},
	)

	a, err := NewCalculator(prices).EvaluateEntity(set, "strategy")
	if err != nil {
		t.Fatalf("EvaluateEntity() error: %v", err)
	}

	if a.Insolvent {
		t.Error("fully swap-covered entity must be solvent standalone")
	}
	if !a.ShortfallUSD.IsZero() || len(a.ShortfallByType) != 0 {
		t.Errorf("shortfall = %s %v, want none", a.ShortfallUSD, a.ShortfallByType)
	}
	if !a.SwappedUSD.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("SwappedUSD = %s, want 2000", a.SwappedUSD)
	}
}

// Inbound obligations count as assets at face value during the standalone
// pass, regardless of the debtor's own solvency.
func TestEvaluateEntityInboundAtFaceValue(t *testing.T) {
	x := newTestAsset("X", 18)
	prices := priceTable(t, map[*asset.Asset]int64{x: 1})

	set := newSet(
		&domain.Entity{
			ID:   "broke-debtor",
			Type: domain.EntityLeveragedPosition,
			Obligations: []domain.Obligation{
				owes(t, "broke-debtor", "pool", x, "1000"),
			},
		},
		&domain.Entity{
			ID:   "pool",
			Type: domain.EntityLiquidityPool,
			Obligations: []domain.Obligation{
				owes(t, "pool", "vault", x, "800"),
			},
		},
		&domain.Entity{ID: "vault", Type: domain.EntityVault},
	)

	a, err := NewCalculator(prices).EvaluateEntity(set, "pool")
	if err != nil {
		t.Fatalf("EvaluateEntity() error: %v", err)
	}

	if a.Insolvent {
		t.Error("face-value inbound must make the pool solvent standalone")
	}
	if !a.TotalAssetsUSD.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("TotalAssetsUSD = %s, want 1000", a.TotalAssetsUSD)
	}
	surplus := a.Surpluses[x.ID()]
	if !surplus.Amount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("X surplus = %s, want 200", surplus.Amount)
	}
}

// Paired holdings contribute both legs independently.
func TestEvaluateEntityPairedHoldingFlattened(t *testing.T) {
	x := newTestAsset("X", 18)
	y := newTestAsset("Y", 18)
	prices := priceTable(t, map[*asset.Asset]int64{x: 1, y: 2000})

	set := newSet(
		&domain.Entity{
			ID:   "lp",
			Type: domain.EntityLiquidityPool,
			Holdings: []domain.Holding{
				domain.NewPaired(mustAmount(t, x, "100"), mustAmount(t, y, "2")),
			},
		},
	)

	a, err := NewCalculator(prices).EvaluateEntity(set, "lp")
	if err != nil {
		t.Fatalf("EvaluateEntity() error: %v", err)
	}

	if !a.TotalAssetsUSD.Equal(decimal.NewFromInt(4100)) {
		t.Errorf("TotalAssetsUSD = %s, want 4100 (100 X + 2 Y)", a.TotalAssetsUSD)
	}
	if len(a.Assets) != 2 {
		t.Errorf("Assets has %d types, want both pair legs", len(a.Assets))
	}
}

// Any unpriced asset type aborts the evaluation.
func TestEvaluateEntityMissingPriceFatal(t *testing.T) {
	x := newTestAsset("X", 18)
	y := newTestAsset("Y", 18)
	prices := priceTable(t, map[*asset.Asset]int64{x: 1}) // no quote for Y

	set := newSet(
		&domain.Entity{
			ID:       "strategy",
			Type:     domain.EntityLendingStrategy,
			Holdings: []domain.Holding{single(t, x, "10")},
			Obligations: []domain.Obligation{
				owes(t, "strategy", "vault", y, "1"),
			},
		},
		&domain.Entity{ID: "vault", Type: domain.EntityVault},
	)

	_, err := NewCalculator(prices).EvaluateEntity(set, "strategy")
	if !pricingDomain.IsMissingPrice(err) {
		t.Fatalf("EvaluateEntity() error = %v, want MissingPriceError", err)
	}
}
