// Package di contains dependency injection tokens for the inventory context.
package di

import (
	"github.com/fd1az/vaultscope/business/inventory/app"
	"github.com/fd1az/vaultscope/internal/di"
)

// Public service tokens - exposed to other modules
var (
	InventoryService = di.NewToken[*app.InventoryService]("inventory.InventoryService")
)

// Private dependency tokens - internal to inventory module
var (
	SnapshotLoader = di.NewToken[app.SnapshotLoader]("inventory:snapshotLoader")
	BalanceReader  = di.NewToken[app.BalanceReader]("inventory:balanceReader")
)

// Helper functions for type-safe access
func GetInventoryService(c di.ServiceRegistry) *app.InventoryService {
	return di.GetToken(c, InventoryService)
}

func GetSnapshotLoader(c di.ServiceRegistry) app.SnapshotLoader {
	return di.GetToken(c, SnapshotLoader)
}

func GetBalanceReader(c di.ServiceRegistry) app.BalanceReader {
	return di.GetToken(c, BalanceReader)
}
