package domain

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/internal/asset"
)

// ShortfallEntry records an allocated shortfall against one counterparty in
// one asset type. On a received ledger the counterparty is the origin debtor
// that directly caused it; on a caused ledger it is the destination creditor.
type ShortfallEntry struct {
	Counterparty EntityID
	Asset        *asset.Asset
	Amount       decimal.Decimal // in whole asset units
	USD          decimal.Decimal
}

// ShortfallLedger accumulates shortfall entries as a two-level map keyed by
// counterparty then asset type. Add is a merge-or-insert: allocations from
// the same counterparty in the same asset type accumulate into one entry,
// which makes the operation associative and order-insensitive.
type ShortfallLedger struct {
	entries map[EntityID]map[asset.AssetID]*ShortfallEntry
}

// NewShortfallLedger creates an empty ledger.
func NewShortfallLedger() *ShortfallLedger {
	return &ShortfallLedger{
		entries: make(map[EntityID]map[asset.AssetID]*ShortfallEntry),
	}
}

// Add merges an allocation into the ledger.
func (l *ShortfallLedger) Add(counterparty EntityID, a *asset.Asset, amount, usd decimal.Decimal) {
	byAsset, ok := l.entries[counterparty]
	if !ok {
		byAsset = make(map[asset.AssetID]*ShortfallEntry)
		l.entries[counterparty] = byAsset
	}

	if entry, ok := byAsset[a.ID()]; ok {
		entry.Amount = entry.Amount.Add(amount)
		entry.USD = entry.USD.Add(usd)
		return
	}

	byAsset[a.ID()] = &ShortfallEntry{
		Counterparty: counterparty,
		Asset:        a,
		Amount:       amount,
		USD:          usd,
	}
}

// Get returns the accumulated entry for a counterparty and asset type.
func (l *ShortfallLedger) Get(counterparty EntityID, id asset.AssetID) (ShortfallEntry, bool) {
	if byAsset, ok := l.entries[counterparty]; ok {
		if entry, ok := byAsset[id]; ok {
			return *entry, true
		}
	}
	return ShortfallEntry{}, false
}

// Entries returns all entries ordered by counterparty id, then asset id.
func (l *ShortfallLedger) Entries() []ShortfallEntry {
	cps := make([]EntityID, 0, len(l.entries))
	for cp := range l.entries {
		cps = append(cps, cp)
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i] < cps[j] })

	var out []ShortfallEntry
	for _, cp := range cps {
		byAsset := l.entries[cp]
		ids := make([]asset.AssetID, 0, len(byAsset))
		for id := range byAsset {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

		for _, id := range ids {
			out = append(out, *byAsset[id])
		}
	}
	return out
}

// TotalUSD sums the USD value of all entries.
func (l *ShortfallLedger) TotalUSD() decimal.Decimal {
	total := decimal.Zero
	for _, byAsset := range l.entries {
		for _, entry := range byAsset {
			total = total.Add(entry.USD)
		}
	}
	return total
}

// Len returns the number of distinct (counterparty, asset type) entries.
func (l *ShortfallLedger) Len() int {
	n := 0
	for _, byAsset := range l.entries {
		n += len(byAsset)
	}
	return n
}

// IsEmpty reports whether the ledger has no entries.
func (l *ShortfallLedger) IsEmpty() bool {
	return l.Len() == 0
}
