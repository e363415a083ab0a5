// Package app contains application services and port definitions for the
// solvency context: the per-entity calculator, the shortfall propagator, and
// the analyzer that runs the full three-pass pipeline.
package app

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/business/solvency/domain"
	pricingDomain "github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/asset"
)

// Calculator evaluates one entity's standalone solvency at face value:
// every inbound obligation is assumed fully delivered.
type Calculator struct {
	prices *pricingDomain.PriceTable
}

// NewCalculator creates a Calculator over one run's price table.
func NewCalculator(prices *pricingDomain.PriceTable) *Calculator {
	return &Calculator{prices: prices}
}

// EvaluateEntity runs the standalone evaluation for one entity:
//
//  1. aggregate assets per type (own holdings plus inbound obligations at
//     face value) and liabilities per type (flattened outbound obligations),
//  2. net each asset type directly against its own liabilities,
//  3. cover remaining deficits with surplus value from other types,
//  4. scale whatever deficit value remains uncovered back into per-type
//     shortfall amounts.
//
// A missing USD price for any referenced asset type aborts with a
// pricing MissingPriceError.
func (c *Calculator) EvaluateEntity(set domain.EntitySet, id domain.EntityID) (*domain.Assessment, error) {
	e, ok := set[id]
	if !ok {
		return nil, fmt.Errorf("solvency: unknown entity %q", id)
	}

	assets := newExposureAccum()
	for _, h := range e.Holdings {
		for _, leg := range h.Legs() {
			assets.add(leg.Asset(), leg.ToDecimal())
		}
	}
	for _, debtorID := range set.SortedIDs() {
		if debtorID == id {
			continue
		}
		for _, o := range set[debtorID].Obligations {
			if o.Creditor != id {
				continue
			}
			for _, leg := range o.Position.Legs() {
				assets.add(leg.Asset(), leg.ToDecimal())
			}
		}
	}

	liabilities := newExposureAccum()
	for _, o := range e.Obligations {
		for _, leg := range o.Position.Legs() {
			liabilities.add(leg.Asset(), leg.ToDecimal())
		}
	}

	assetExp, totalAssetsUSD, err := assets.valued(c.prices)
	if err != nil {
		return nil, fmt.Errorf("solvency: valuing assets of %q: %w", id, err)
	}
	liabilityExp, totalLiabilitiesUSD, err := liabilities.valued(c.prices)
	if err != nil {
		return nil, fmt.Errorf("solvency: valuing liabilities of %q: %w", id, err)
	}

	deficits := make(map[asset.AssetID]domain.Exposure)
	surpluses := make(map[asset.AssetID]domain.Exposure)
	totalDeficitUSD := decimal.Zero
	totalSurplusUSD := decimal.Zero

	for _, aid := range unionAssetIDs(assetExp, liabilityExp) {
		held := assetExp[aid]
		owed := liabilityExp[aid]
		meta := held.Asset
		if meta == nil {
			meta = owed.Asset
		}

		switch diff := owed.Amount.Sub(held.Amount); {
		case diff.IsPositive():
			usd := owed.USD.Sub(held.USD)
			deficits[aid] = domain.Exposure{Asset: meta, Amount: diff, USD: usd}
			totalDeficitUSD = totalDeficitUSD.Add(usd)
		case diff.IsNegative():
			usd := held.USD.Sub(owed.USD)
			surpluses[aid] = domain.Exposure{Asset: meta, Amount: diff.Neg(), USD: usd}
			totalSurplusUSD = totalSurplusUSD.Add(usd)
		}
	}

	swappedUSD := decimal.Min(totalSurplusUSD, totalDeficitUSD)
	shortfallUSD := totalDeficitUSD.Sub(swappedUSD)

	shortfall := make(map[asset.AssetID]domain.Exposure)
	if shortfallUSD.IsPositive() {
		// The uncovered fraction applies uniformly to every deficit type,
		// since swap coverage is distributed pro-rata across them.
		scale := shortfallUSD.Div(totalDeficitUSD)
		for _, aid := range domain.SortedAssetIDs(deficits) {
			d := deficits[aid]
			shortfall[aid] = domain.Exposure{
				Asset:  d.Asset,
				Amount: d.Amount.Mul(scale),
				USD:    d.USD.Mul(scale),
			}
		}
	}

	return &domain.Assessment{
		Entity:              e,
		Assets:              assetExp,
		Liabilities:         liabilityExp,
		TotalAssetsUSD:      totalAssetsUSD,
		TotalLiabilitiesUSD: totalLiabilitiesUSD,
		Deficits:            deficits,
		Surpluses:           surpluses,
		SwappedUSD:          swappedUSD,
		ShortfallByType:     shortfall,
		ShortfallUSD:        shortfallUSD,
		Insolvent:           shortfallUSD.IsPositive(),
	}, nil
}

// exposureAccum accumulates per-asset-type amounts in whole units before
// they are valued in one pass against the price table.
type exposureAccum struct {
	meta    map[asset.AssetID]*asset.Asset
	amounts map[asset.AssetID]decimal.Decimal
}

func newExposureAccum() *exposureAccum {
	return &exposureAccum{
		meta:    make(map[asset.AssetID]*asset.Asset),
		amounts: make(map[asset.AssetID]decimal.Decimal),
	}
}

func (x *exposureAccum) add(a *asset.Asset, amt decimal.Decimal) {
	id := a.ID()
	x.meta[id] = a
	x.amounts[id] = x.amounts[id].Add(amt)
}

func (x *exposureAccum) valued(prices *pricingDomain.PriceTable) (map[asset.AssetID]domain.Exposure, decimal.Decimal, error) {
	out := make(map[asset.AssetID]domain.Exposure, len(x.amounts))
	total := decimal.Zero

	ids := make([]asset.AssetID, 0, len(x.amounts))
	for id := range x.amounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		a := x.meta[id]
		unit, err := prices.USD(a)
		if err != nil {
			return nil, decimal.Zero, err
		}
		usd := x.amounts[id].Mul(unit)
		out[id] = domain.Exposure{Asset: a, Amount: x.amounts[id], USD: usd}
		total = total.Add(usd)
	}
	return out, total, nil
}

func unionAssetIDs(a, b map[asset.AssetID]domain.Exposure) []asset.AssetID {
	seen := make(map[asset.AssetID]bool, len(a)+len(b))
	ids := make([]asset.AssetID, 0, len(a)+len(b))
	for id := range a {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range b {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
