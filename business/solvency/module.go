// Package solvency implements the solvency bounded context: standalone
// entity evaluation, shortfall propagation and report emission.
package solvency

import (
	"context"
	"io"
	"os"

	inventoryDI "github.com/fd1az/vaultscope/business/inventory/di"
	pricingDI "github.com/fd1az/vaultscope/business/pricing/di"
	"github.com/fd1az/vaultscope/business/solvency/app"
	solvencyDI "github.com/fd1az/vaultscope/business/solvency/di"
	"github.com/fd1az/vaultscope/business/solvency/infra/reporting"
	"github.com/fd1az/vaultscope/business/solvency/infra/runstore"
	"github.com/fd1az/vaultscope/internal/config"
	"github.com/fd1az/vaultscope/internal/di"
	"github.com/fd1az/vaultscope/internal/logger"
	"github.com/fd1az/vaultscope/internal/monolith"
)

// Output formats accepted by the module.
const (
	OutputConsole = "console"
	OutputJSON    = "json"
)

// Module implements the solvency bounded context. Output selects the report
// format; Out defaults to stdout.
type Module struct {
	Output string
	Out    io.Writer
}

// RegisterServices registers all solvency services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}

	// Reporter - private dependency
	di.RegisterToken(c, solvencyDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)

		if m.Output == OutputJSON {
			return reporting.NewJSONReporter(out)
		}
		return reporting.NewConsoleReporter(out, cfg.Analysis.Verbose)
	})

	// Run history store - private dependency, only resolved when enabled
	di.RegisterToken(c, solvencyDI.RunStore, func(sr di.ServiceRegistry) *runstore.Store {
		cfg := sr.Get("config").(*config.Config)

		store, err := runstore.NewStore(cfg.Storage.Path)
		if err != nil {
			panic("failed to open run store: " + err.Error())
		}
		return store
	})

	// Analyzer (public - exposed to other modules)
	di.RegisterToken(c, solvencyDI.Analyzer, func(sr di.ServiceRegistry) *app.Analyzer {
		log := sr.Get("logger").(logger.LoggerInterface)

		entities := inventoryDI.GetInventoryService(sr)
		prices := pricingDI.GetPriceService(sr)

		analyzer, err := app.NewAnalyzer(entities, prices, log)
		if err != nil {
			panic("failed to create analyzer: " + err.Error())
		}
		return analyzer
	})

	// Monitor (public - exposed to other modules)
	di.RegisterToken(c, solvencyDI.Monitor, func(sr di.ServiceRegistry) *app.Monitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var store app.RunStore
		if cfg.Storage.Enabled {
			store = solvencyDI.GetRunStore(sr)
		}

		return app.NewMonitor(
			solvencyDI.GetAnalyzer(sr),
			solvencyDI.GetReporter(sr),
			store,
			cfg.Analysis.WatchInterval,
			log,
		)
	})

	return nil
}

// Startup initializes the solvency module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	mono.Logger().Info(ctx, "solvency module started",
		"output", m.Output,
		"run_history", cfg.Storage.Enabled)
	return nil
}
