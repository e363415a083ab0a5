// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/vaultscope/business/pricing/app"
	"github.com/fd1az/vaultscope/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PriceService = di.NewToken[*app.PriceService]("pricing.PriceService")
)

// Private dependency tokens - internal to pricing module
var (
	CoinGeckoProvider = di.NewToken[app.PriceProvider]("pricing:coingeckoProvider")
	SnapshotProvider  = di.NewToken[app.PriceProvider]("pricing:snapshotProvider")
)

// Helper functions for type-safe access
func GetPriceService(c di.ServiceRegistry) *app.PriceService {
	return di.GetToken(c, PriceService)
}

func GetCoinGeckoProvider(c di.ServiceRegistry) app.PriceProvider {
	return di.GetToken(c, CoinGeckoProvider)
}

func GetSnapshotProvider(c di.ServiceRegistry) app.PriceProvider {
	return di.GetToken(c, SnapshotProvider)
}
