// Package static implements the PriceProvider interface over a fixed
// symbol-to-USD map, typically the prices embedded in the snapshot file.
// It is the terminal fallback and the only source able to quote synthetic
// instruments (vault shares, claim units).
package static

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/business/pricing/app"
	"github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/asset"
)

// Ensure Provider implements PriceProvider.
var _ app.PriceProvider = (*Provider)(nil)

// QuoteSource returns the current quote map and its capture time. In watch
// mode the snapshot reloads between runs, so quotes are pulled per call.
type QuoteSource func() (map[string]decimal.Decimal, time.Time)

// Provider serves quotes from a symbol-keyed map.
type Provider struct {
	source QuoteSource
}

// NewProvider creates a static provider over a fixed map. The timestamp is
// stamped on every quote, normally the snapshot's capture time.
func NewProvider(quotes map[string]decimal.Decimal, timestamp time.Time) *Provider {
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	return NewDynamicProvider(func() (map[string]decimal.Decimal, time.Time) {
		return quotes, timestamp
	})
}

// NewDynamicProvider creates a static provider that re-reads its quote map
// on every call.
func NewDynamicProvider(source QuoteSource) *Provider {
	return &Provider{source: source}
}

// Name identifies the provider.
func (p *Provider) Name() string { return "snapshot" }

// Quote returns quotes for the assets whose symbols appear in the map.
func (p *Provider) Quote(_ context.Context, assets []*asset.Asset) (*domain.PriceTable, error) {
	quotes, timestamp := p.source()
	table := domain.NewPriceTable()
	for _, a := range assets {
		usd, ok := quotes[a.Symbol()]
		if !ok {
			continue
		}
		if err := table.Set(a, usd, p.Name(), timestamp); err != nil {
			return nil, err
		}
	}
	return table, nil
}
