// Package domain contains the inventory context's domain types: the parsed
// point-in-time snapshot of entities, assets, and embedded prices.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	solvencyDomain "github.com/fd1az/vaultscope/business/solvency/domain"
	"github.com/fd1az/vaultscope/internal/asset"
)

// Snapshot is one parsed capture of the protocol state.
type Snapshot struct {
	ChainID   uint64
	Timestamp time.Time

	// Registry holds every asset type the snapshot declares.
	Registry *asset.Registry

	// Entities is the modeled universe keyed by id.
	Entities solvencyDomain.EntitySet

	// Prices are the snapshot-embedded USD quotes by symbol, used as the
	// terminal pricing fallback and the only source for synthetic assets.
	Prices map[string]decimal.Decimal
}
