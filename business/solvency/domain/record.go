package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/internal/asset"
)

// Exposure is a valued quantity of one asset type: the amount in whole units
// and its USD value at snapshot prices.
type Exposure struct {
	Asset  *asset.Asset
	Amount decimal.Decimal
	USD    decimal.Decimal
}

// Assessment is the product of the per-entity evaluation pass. It is built
// once and never mutated; the propagation pass reads it and produces its own
// Cascade product.
type Assessment struct {
	Entity *Entity

	// Per-asset-type aggregates at face value, keyed by asset id.
	Assets      map[asset.AssetID]Exposure // own holdings + inbound obligations
	Liabilities map[asset.AssetID]Exposure // flattened outbound obligations

	TotalAssetsUSD      decimal.Decimal
	TotalLiabilitiesUSD decimal.Decimal

	// Direct same-type netting results.
	Deficits  map[asset.AssetID]Exposure // liabilities not covered in kind
	Surpluses map[asset.AssetID]Exposure // holdings left after covering own type

	// Cross-asset coverage: surplus value applied against deficits.
	SwappedUSD decimal.Decimal

	// Residual unpayable amounts after netting and swap coverage.
	ShortfallByType map[asset.AssetID]Exposure
	ShortfallUSD    decimal.Decimal

	// Standalone verdict before propagation.
	Insolvent bool
}

// HasShortfall reports whether any per-type shortfall remains.
func (a *Assessment) HasShortfall() bool {
	return len(a.ShortfallByType) > 0
}

// SortedAssetIDs returns the keys of an exposure map in deterministic order.
func SortedAssetIDs(m map[asset.AssetID]Exposure) []asset.AssetID {
	ids := make([]asset.AssetID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Cascade is the product of the propagation pass for one entity: the
// shortfalls it received from upstream debtors and the shortfalls it caused
// downstream, plus its post-propagation totals.
type Cascade struct {
	Entity *Entity

	// Received records shortfall delivered to this entity, keyed by the
	// origin debtor that caused it. External creditors never get a Cascade.
	Received *ShortfallLedger

	// Caused records shortfall this entity passed to its creditors, keyed
	// by creditor.
	Caused *ShortfallLedger

	// Effective shortfall after absorbing incoming loss against remaining
	// surplus: what this entity itself fails to deliver onward.
	ShortfallByType map[asset.AssetID]Exposure
	ShortfallUSD    decimal.Decimal
}

// EntityReport is the final per-entity classification combining the
// standalone assessment with the propagation outcome.
type EntityReport struct {
	Entity     *Entity
	Assessment *Assessment
	Cascade    *Cascade

	// Insolvent is the final verdict: a nonzero effective shortfall, or any
	// received shortfall while obligations remain outstanding.
	Insolvent bool
}

// Report is the product of a full analysis run.
type Report struct {
	Timestamp         time.Time
	Solvent           bool
	InsolventEntities []EntityID
	TotalShortfallUSD decimal.Decimal
	Details           []*EntityReport
}

// Find returns the report for one entity, or nil.
func (r *Report) Find(id EntityID) *EntityReport {
	for _, d := range r.Details {
		if d.Entity.ID == id {
			return d
		}
	}
	return nil
}
