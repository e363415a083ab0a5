// Package domain contains the pricing context's domain types: USD price
// points and the immutable per-run price table the solvency core consumes.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/internal/asset"
)

// ErrInvalidPrice is returned when a feed delivers a zero or negative quote.
var ErrInvalidPrice = errors.New("pricing: price must be positive")

// MissingPriceError reports an asset type the table cannot value. Any missing
// price aborts the whole analysis run.
type MissingPriceError struct {
	Asset *asset.Asset
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("pricing: no USD price for asset %s (%s)", e.Asset.Symbol(), e.Asset.ID())
}

// IsMissingPrice reports whether err is a MissingPriceError.
func IsMissingPrice(err error) bool {
	var mpe *MissingPriceError
	return errors.As(err, &mpe)
}

// PricePoint is a USD quote for one asset type at snapshot time.
type PricePoint struct {
	Asset     *asset.Asset
	USD       decimal.Decimal
	Source    string
	Timestamp time.Time
}

// PriceTable maps asset types to their USD quotes for one analysis run.
// It is assembled before the run starts and read-only afterwards.
type PriceTable struct {
	points map[asset.AssetID]PricePoint
}

// NewPriceTable creates an empty price table.
func NewPriceTable() *PriceTable {
	return &PriceTable{points: make(map[asset.AssetID]PricePoint)}
}

// Set records a quote. Non-positive prices are rejected; a later Set for the
// same asset overwrites the earlier one.
func (t *PriceTable) Set(a *asset.Asset, usd decimal.Decimal, source string, ts time.Time) error {
	if a == nil {
		return asset.ErrNilAsset
	}
	if !usd.IsPositive() {
		return fmt.Errorf("%w: %s quoted at %s from %s", ErrInvalidPrice, a.Symbol(), usd, source)
	}
	t.points[a.ID()] = PricePoint{Asset: a, USD: usd, Source: source, Timestamp: ts}
	return nil
}

// USD returns the quote for one asset type.
func (t *PriceTable) USD(a *asset.Asset) (decimal.Decimal, error) {
	p, ok := t.points[a.ID()]
	if !ok {
		return decimal.Zero, &MissingPriceError{Asset: a}
	}
	return p.USD, nil
}

// Value converts an amount to its USD value at table prices.
func (t *PriceTable) Value(amt asset.Amount) (decimal.Decimal, error) {
	usd, err := t.USD(amt.Asset())
	if err != nil {
		return decimal.Zero, err
	}
	return amt.ToDecimal().Mul(usd), nil
}

// Has reports whether the table can value the asset.
func (t *PriceTable) Has(a *asset.Asset) bool {
	_, ok := t.points[a.ID()]
	return ok
}

// Merge copies every point from other into t, overwriting duplicates.
func (t *PriceTable) Merge(other *PriceTable) {
	if other == nil {
		return
	}
	for id, p := range other.points {
		t.points[id] = p
	}
}

// Points returns all quotes ordered by asset id.
func (t *PriceTable) Points() []PricePoint {
	ids := make([]asset.AssetID, 0, len(t.points))
	for id := range t.points {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	out := make([]PricePoint, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.points[id])
	}
	return out
}

// Len returns the number of quoted asset types.
func (t *PriceTable) Len() int {
	return len(t.points)
}
