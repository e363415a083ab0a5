package domain

import (
	"fmt"

	"github.com/fd1az/vaultscope/internal/asset"
)

// HoldingKind discriminates the closed set of holding shapes.
type HoldingKind uint8

// Holding shapes
const (
	// HoldingSingle is a fungible quantity of one asset type.
	HoldingSingle HoldingKind = iota

	// HoldingPaired is a liquidity position holding two asset types with
	// independent amounts.
	HoldingPaired
)

// Holding is a closed variant over the two position shapes. Downstream
// consumers only rely on the Legs flattening contract, never on the shape.
type Holding struct {
	kind   HoldingKind
	first  asset.Amount
	second asset.Amount // zero value for single holdings
}

// NewSingle creates a single-asset holding.
func NewSingle(amt asset.Amount) Holding {
	if amt.Asset() == nil {
		panic("solvency: holding amount without asset")
	}
	return Holding{kind: HoldingSingle, first: amt}
}

// NewPaired creates a paired-liquidity holding of two distinct asset types.
func NewPaired(a, b asset.Amount) Holding {
	if a.Asset() == nil || b.Asset() == nil {
		panic("solvency: holding amount without asset")
	}
	if a.Asset().ID().Equals(b.Asset().ID()) {
		panic(fmt.Sprintf("solvency: paired holding with duplicate asset %s", a.Asset().Symbol()))
	}
	return Holding{kind: HoldingPaired, first: a, second: b}
}

// Kind returns the holding shape.
func (h Holding) Kind() HoldingKind {
	return h.kind
}

// Legs flattens the holding into per-asset-type amounts: one leg for a
// single holding, two for a paired one. This is the only contract the
// calculator and propagator depend on.
func (h Holding) Legs() []asset.Amount {
	if h.kind == HoldingPaired {
		return []asset.Amount{h.first, h.second}
	}
	return []asset.Amount{h.first}
}

// String returns a human-readable representation.
func (h Holding) String() string {
	if h.kind == HoldingPaired {
		return fmt.Sprintf("%s + %s", h.first, h.second)
	}
	return h.first.String()
}
