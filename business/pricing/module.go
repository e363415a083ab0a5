// Package pricing implements the pricing bounded context: a fall-through
// provider chain quoting every asset the snapshot references in USD.
package pricing

import (
	"context"

	inventoryDI "github.com/fd1az/vaultscope/business/inventory/di"
	"github.com/fd1az/vaultscope/business/pricing/app"
	pricingDI "github.com/fd1az/vaultscope/business/pricing/di"
	"github.com/fd1az/vaultscope/business/pricing/infra/coingecko"
	"github.com/fd1az/vaultscope/business/pricing/infra/static"
	"github.com/fd1az/vaultscope/internal/config"
	"github.com/fd1az/vaultscope/internal/di"
	"github.com/fd1az/vaultscope/internal/logger"
	"github.com/fd1az/vaultscope/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// CoinGecko provider - private dependency, only resolved when enabled
	di.RegisterToken(c, pricingDI.CoinGeckoProvider, func(sr di.ServiceRegistry) app.PriceProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		providerCfg := coingecko.ProviderConfig{
			BaseURL:           cfg.Pricing.CoinGeckoBaseURL,
			APIKey:            cfg.Pricing.CoinGeckoAPIKey,
			Platform:          cfg.Pricing.CoinGeckoPlatform,
			RequestsPerMinute: cfg.Pricing.RequestsPerMinute,
		}

		provider, err := coingecko.NewProvider(providerCfg, log)
		if err != nil {
			panic("failed to create coingecko provider: " + err.Error())
		}
		return provider
	})

	// Snapshot provider - terminal fallback serving the prices embedded in
	// the last loaded snapshot. Reads through the inventory service so watch
	// mode reloads are reflected.
	di.RegisterToken(c, pricingDI.SnapshotProvider, func(sr di.ServiceRegistry) app.PriceProvider {
		inventory := inventoryDI.GetInventoryService(sr)
		return static.NewDynamicProvider(inventory.EmbeddedPrices)
	})

	// PriceService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.PriceService, func(sr di.ServiceRegistry) *app.PriceService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var providers []app.PriceProvider
		if cfg.Pricing.CoinGeckoEnabled {
			providers = append(providers, pricingDI.GetCoinGeckoProvider(sr))
		}
		providers = append(providers, pricingDI.GetSnapshotProvider(sr))

		service, err := app.NewPriceService(providers, log)
		if err != nil {
			panic("failed to create price service: " + err.Error())
		}
		return service
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	mono.Logger().Info(ctx, "pricing module started",
		"coingecko", cfg.Pricing.CoinGeckoEnabled)
	return nil
}
