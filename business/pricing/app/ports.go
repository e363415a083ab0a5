// Package app contains application services and port definitions for the
// pricing context.
package app

import (
	"context"

	"github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/asset"
)

// PriceProvider supplies USD quotes for a set of asset types. A provider may
// quote only a subset of what it is asked for; the service layers providers
// into a fallback chain.
type PriceProvider interface {
	// Name identifies the provider in logs and price points.
	Name() string

	// Quote returns quotes for as many of the requested assets as the
	// provider can serve.
	Quote(ctx context.Context, assets []*asset.Asset) (*domain.PriceTable, error)
}
