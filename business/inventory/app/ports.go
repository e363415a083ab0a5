// Package app contains application services and port definitions for the
// inventory context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/vaultscope/business/inventory/domain"
)

// SnapshotLoader parses a snapshot from its storage format.
type SnapshotLoader interface {
	// Load reads and validates the snapshot.
	Load(ctx context.Context) (*domain.Snapshot, error)
}

// BalanceReader reads ERC20 balances from the chain, used to refresh a
// snapshot's token holdings to the current block before analysis.
type BalanceReader interface {
	// BalanceOf returns the token balance of holder in the token's
	// smallest unit.
	BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error)
}
