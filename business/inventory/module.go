// Package inventory implements the inventory bounded context: snapshot
// loading and optional on-chain balance refresh.
package inventory

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/vaultscope/business/inventory/app"
	inventoryDI "github.com/fd1az/vaultscope/business/inventory/di"
	"github.com/fd1az/vaultscope/business/inventory/infra/ethereum"
	"github.com/fd1az/vaultscope/business/inventory/infra/snapshotfile"
	"github.com/fd1az/vaultscope/internal/config"
	"github.com/fd1az/vaultscope/internal/di"
	"github.com/fd1az/vaultscope/internal/logger"
	"github.com/fd1az/vaultscope/internal/monolith"
)

// Module implements the inventory bounded context.
type Module struct{}

// RegisterServices registers all inventory services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Snapshot file loader - private dependency
	di.RegisterToken(c, inventoryDI.SnapshotLoader, func(sr di.ServiceRegistry) app.SnapshotLoader {
		cfg := sr.Get("config").(*config.Config)
		return snapshotfile.NewLoader(cfg.Analysis.SnapshotPath)
	})

	// On-chain balance reader - private dependency, only resolved when
	// refresh_on_chain is set
	di.RegisterToken(c, inventoryDI.BalanceReader, func(sr di.ServiceRegistry) app.BalanceReader {
		log := sr.Get("logger").(logger.LoggerInterface)
		ethClient := sr.Get("ethClient").(*ethclient.Client)

		reader, err := ethereum.NewBalanceReader(ethClient, log)
		if err != nil {
			panic("failed to create balance reader: " + err.Error())
		}
		return reader
	})

	// InventoryService (public - exposed to other modules)
	di.RegisterToken(c, inventoryDI.InventoryService, func(sr di.ServiceRegistry) *app.InventoryService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		loader := inventoryDI.GetSnapshotLoader(sr)

		var reader app.BalanceReader
		if cfg.Analysis.RefreshOnChain {
			reader = inventoryDI.GetBalanceReader(sr)
		}

		return app.NewInventoryService(loader, reader, log)
	})

	return nil
}

// Startup initializes the inventory module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	mono.Logger().Info(ctx, "inventory module started",
		"snapshot", cfg.Analysis.SnapshotPath,
		"refresh_on_chain", cfg.Analysis.RefreshOnChain)
	return nil
}
