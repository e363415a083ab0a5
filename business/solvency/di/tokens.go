// Package di contains dependency injection tokens for the solvency context.
package di

import (
	"github.com/fd1az/vaultscope/business/solvency/app"
	"github.com/fd1az/vaultscope/business/solvency/infra/runstore"
	"github.com/fd1az/vaultscope/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Analyzer = di.NewToken[*app.Analyzer]("solvency.Analyzer")
	Monitor  = di.NewToken[*app.Monitor]("solvency.Monitor")
)

// Private dependency tokens - internal to solvency module
var (
	Reporter = di.NewToken[app.Reporter]("solvency:reporter")
	RunStore = di.NewToken[*runstore.Store]("solvency:runStore")
)

// Helper functions for type-safe access
func GetAnalyzer(c di.ServiceRegistry) *app.Analyzer {
	return di.GetToken(c, Analyzer)
}

func GetMonitor(c di.ServiceRegistry) *app.Monitor {
	return di.GetToken(c, Monitor)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetRunStore(c di.ServiceRegistry) *runstore.Store {
	return di.GetToken(c, RunStore)
}
