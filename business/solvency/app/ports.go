package app

import (
	"context"

	"github.com/fd1az/vaultscope/business/solvency/domain"
	pricingDomain "github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/asset"
)

// EntitySource provides the entity universe for one analysis run.
type EntitySource interface {
	// Entities returns the full set of modeled entities at snapshot time.
	Entities(ctx context.Context) (domain.EntitySet, error)
}

// PriceSource provides USD quotes for the asset types a run references.
type PriceSource interface {
	// Prices returns a table quoting every requested asset. A feed may
	// omit assets it cannot quote; the analyzer fails the run on first use
	// of an unquoted asset.
	Prices(ctx context.Context, assets []*asset.Asset) (*pricingDomain.PriceTable, error)
}

// Reporter renders a finished solvency report.
type Reporter interface {
	// Report emits the report to its output (console, file, ...).
	Report(ctx context.Context, r *domain.Report) error
}

// RunStore persists analysis run history.
type RunStore interface {
	// SaveRun records the outcome of one run.
	SaveRun(ctx context.Context, r *domain.Report) error
}
