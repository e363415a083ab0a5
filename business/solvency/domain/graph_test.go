package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/internal/asset"
)

func obligation(debtor, creditor EntityID, a *asset.Asset, units int64) Obligation {
	amt, err := asset.ParseDecimal(a, decimal.NewFromInt(units))
	if err != nil {
		panic(err)
	}
	return Obligation{Debtor: debtor, Creditor: creditor, Position: NewSingle(amt)}
}

func entitySet(entities ...*Entity) EntitySet {
	set := make(EntitySet, len(entities))
	for _, e := range entities {
		set[e.ID] = e
	}
	return set
}

func TestTopologicalOrderDebtorsFirst(t *testing.T) {
	usdc := testAsset("USDC", 6)

	set := entitySet(
		&Entity{ID: "vault", Type: EntityVault},
		&Entity{ID: "strategy", Type: EntityLendingStrategy, Obligations: []Obligation{
			obligation("strategy", "vault", usdc, 600),
		}},
		&Entity{ID: "pool", Type: EntityLiquidityPool, Obligations: []Obligation{
			obligation("pool", "strategy", usdc, 800),
		}},
		&Entity{ID: "position", Type: EntityLeveragedPosition, Obligations: []Obligation{
			obligation("position", "pool", usdc, 1000),
		}},
	)

	order, err := BuildGraph(set).TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder() error: %v", err)
	}

	pos := make(map[EntityID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, pair := range [][2]EntityID{{"position", "pool"}, {"pool", "strategy"}, {"strategy", "vault"}} {
		if pos[pair[0]] >= pos[pair[1]] {
			t.Errorf("debtor %s ordered after creditor %s: %v", pair[0], pair[1], order)
		}
	}
}

func TestTopologicalOrderDeduplicatesParallelObligations(t *testing.T) {
	usdc := testAsset("USDC", 6)
	weth := testAsset("WETH", 18)

	set := entitySet(
		&Entity{ID: "vault", Type: EntityVault},
		&Entity{ID: "strategy", Type: EntityLendingStrategy, Obligations: []Obligation{
			obligation("strategy", "vault", usdc, 100),
			obligation("strategy", "vault", weth, 1),
		}},
	)

	g := BuildGraph(set)
	if creditors := g.Creditors("strategy"); len(creditors) != 1 {
		t.Errorf("Creditors(strategy) = %v, want single deduplicated edge", creditors)
	}
	if _, err := g.TopologicalOrder(); err != nil {
		t.Errorf("TopologicalOrder() error: %v", err)
	}
}

func TestTopologicalOrderIgnoresExternalCreditors(t *testing.T) {
	usdc := testAsset("USDC", 6)

	set := entitySet(
		&Entity{ID: "strategy", Type: EntityLendingStrategy, Obligations: []Obligation{
			obligation("strategy", "external-lender", usdc, 100),
		}},
	)

	g := BuildGraph(set)
	if creditors := g.Creditors("strategy"); len(creditors) != 0 {
		t.Errorf("external creditor became a node: %v", creditors)
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder() error: %v", err)
	}
	if len(order) != 1 || order[0] != "strategy" {
		t.Errorf("order = %v, want [strategy]", order)
	}
}

func TestTopologicalOrderRejectsCycle(t *testing.T) {
	usdc := testAsset("USDC", 6)

	set := entitySet(
		&Entity{ID: "a", Type: EntityLiquidityPool, Obligations: []Obligation{
			obligation("a", "b", usdc, 10),
		}},
		&Entity{ID: "b", Type: EntityLiquidityPool, Obligations: []Obligation{
			obligation("b", "a", usdc, 10),
		}},
	)

	_, err := BuildGraph(set).TopologicalOrder()
	if !errors.Is(err, ErrCyclicGraph) {
		t.Fatalf("TopologicalOrder() error = %v, want ErrCyclicGraph", err)
	}
}

func TestValidateRejectsSelfObligation(t *testing.T) {
	usdc := testAsset("USDC", 6)

	set := entitySet(
		&Entity{ID: "pool", Type: EntityLiquidityPool, Obligations: []Obligation{
			obligation("pool", "pool", usdc, 10),
		}},
	)

	if err := set.Validate(); !errors.Is(err, ErrSelfObligation) {
		t.Fatalf("Validate() error = %v, want ErrSelfObligation", err)
	}
}
