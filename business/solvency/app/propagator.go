package app

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/business/solvency/domain"
	pricingDomain "github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/asset"
)

// Propagator pushes unpaid obligations through the dependency graph in
// topological order, so every debtor's effective shortfall is known before
// any of its creditors is settled.
type Propagator struct {
	prices *pricingDomain.PriceTable
}

// NewPropagator creates a Propagator over one run's price table.
func NewPropagator(prices *pricingDomain.PriceTable) *Propagator {
	return &Propagator{prices: prices}
}

// Propagate runs the cascade over the whole entity set. Each entity's
// effective per-type shortfall (its own standalone shortfall plus whatever
// its debtors failed to deliver, net of its remaining surplus) is
// distributed pro-rata across the creditors owed that asset type. External
// creditors take their pro-rata share but produce no further propagation.
//
// A cycle in the obligation graph makes settlement order undefined and
// returns ErrCyclicGraph.
func (p *Propagator) Propagate(set domain.EntitySet, assessments map[domain.EntityID]*domain.Assessment) (map[domain.EntityID]*domain.Cascade, error) {
	order, err := domain.BuildGraph(set).TopologicalOrder()
	if err != nil {
		return nil, err
	}

	cascades := make(map[domain.EntityID]*domain.Cascade, len(set))
	pending := make(map[domain.EntityID]map[asset.AssetID]decimal.Decimal, len(set))
	surplus := make(map[domain.EntityID]map[asset.AssetID]decimal.Decimal, len(set))
	meta := make(map[asset.AssetID]*asset.Asset)

	for id, a := range assessments {
		cascades[id] = &domain.Cascade{
			Entity:   a.Entity,
			Received: domain.NewShortfallLedger(),
			Caused:   domain.NewShortfallLedger(),
		}
		pending[id] = make(map[asset.AssetID]decimal.Decimal)
		for aid, s := range a.ShortfallByType {
			pending[id][aid] = s.Amount
			meta[aid] = s.Asset
		}
		surplus[id] = remainingSurplus(a, meta)
	}

	for _, debtorID := range order {
		a, ok := assessments[debtorID]
		if !ok {
			return nil, fmt.Errorf("solvency: no assessment for entity %q", debtorID)
		}
		cascade := cascades[debtorID]

		// Freeze the effective shortfall before distributing it.
		effective := pending[debtorID]
		for _, aid := range sortedAmountIDs(effective) {
			amt := effective[aid]
			if !amt.IsPositive() {
				continue
			}
			unit, err := p.prices.USD(meta[aid])
			if err != nil {
				return nil, fmt.Errorf("solvency: valuing shortfall of %q: %w", debtorID, err)
			}
			if cascade.ShortfallByType == nil {
				cascade.ShortfallByType = make(map[asset.AssetID]domain.Exposure)
			}
			usd := amt.Mul(unit)
			cascade.ShortfallByType[aid] = domain.Exposure{Asset: meta[aid], Amount: amt, USD: usd}
			cascade.ShortfallUSD = cascade.ShortfallUSD.Add(usd)

			if err := p.distribute(set, a.Entity, aid, amt, unit, pending, surplus, cascades, meta); err != nil {
				return nil, err
			}
		}
	}

	return cascades, nil
}

// distribute allocates one asset type's shortfall across the creditors owed
// that type, pro-rata by face amount. The receiving creditor absorbs the
// allocation against its remaining same-type surplus; only the rest joins
// its own pending shortfall.
func (p *Propagator) distribute(
	set domain.EntitySet,
	debtor *domain.Entity,
	aid asset.AssetID,
	amount decimal.Decimal,
	unitUSD decimal.Decimal,
	pending, surplus map[domain.EntityID]map[asset.AssetID]decimal.Decimal,
	cascades map[domain.EntityID]*domain.Cascade,
	meta map[asset.AssetID]*asset.Asset,
) error {
	owed := make(map[domain.EntityID]decimal.Decimal)
	var creditors []domain.EntityID
	totalOwed := decimal.Zero

	for _, o := range debtor.Obligations {
		for _, leg := range o.Position.Legs() {
			if !leg.Asset().ID().Equals(aid) {
				continue
			}
			if _, seen := owed[o.Creditor]; !seen {
				creditors = append(creditors, o.Creditor)
			}
			face := leg.ToDecimal()
			owed[o.Creditor] = owed[o.Creditor].Add(face)
			totalOwed = totalOwed.Add(face)
		}
	}

	// Shortfall in a type the entity owes nothing of stays its own loss.
	if !totalOwed.IsPositive() {
		return nil
	}

	sortEntityIDs(creditors)
	for _, creditorID := range creditors {
		share := amount.Mul(owed[creditorID]).Div(totalOwed)
		// A creditor can never be shorted more than the face amount owed.
		if share.GreaterThan(owed[creditorID]) {
			share = owed[creditorID]
		}
		if !share.IsPositive() {
			continue
		}

		cascades[debtor.ID].Caused.Add(creditorID, meta[aid], share, share.Mul(unitUSD))

		cascade, modeled := cascades[creditorID]
		if !modeled {
			continue
		}
		cascade.Received.Add(debtor.ID, meta[aid], share, share.Mul(unitUSD))

		absorb := decimal.Min(share, surplus[creditorID][aid])
		if absorb.IsPositive() {
			surplus[creditorID][aid] = surplus[creditorID][aid].Sub(absorb)
		}
		if forward := share.Sub(absorb); forward.IsPositive() {
			pending[creditorID][aid] = pending[creditorID][aid].Add(forward)
		}
	}
	return nil
}

// remainingSurplus scales an entity's per-type surpluses down by the value
// already consumed as cross-type coverage during its standalone evaluation.
func remainingSurplus(a *domain.Assessment, meta map[asset.AssetID]*asset.Asset) map[asset.AssetID]decimal.Decimal {
	out := make(map[asset.AssetID]decimal.Decimal, len(a.Surpluses))
	if len(a.Surpluses) == 0 {
		return out
	}

	totalSurplusUSD := decimal.Zero
	for _, s := range a.Surpluses {
		totalSurplusUSD = totalSurplusUSD.Add(s.USD)
	}

	factor := decimal.NewFromInt(1)
	if totalSurplusUSD.IsPositive() {
		factor = factor.Sub(a.SwappedUSD.Div(totalSurplusUSD))
	}

	for aid, s := range a.Surpluses {
		meta[aid] = s.Asset
		remaining := s.Amount.Mul(factor)
		if remaining.IsPositive() {
			out[aid] = remaining
		}
	}
	return out
}

func sortedAmountIDs(m map[asset.AssetID]decimal.Decimal) []asset.AssetID {
	ids := make([]asset.AssetID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func sortEntityIDs(ids []domain.EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
