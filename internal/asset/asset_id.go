// Package asset provides a type-safe model for the asset types a solvency
// snapshot can reference: on-chain tokens, native coins, and protocol-internal
// synthetic instruments (vault shares, LP tokens, claim units).
// Amounts are stored as big.Int in the asset's smallest unit; decimal.Decimal
// is used at computation and display boundaries.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID uniquely identifies an asset type by chain and contract address.
// For native coins the address is zero. Synthetic instruments that have no
// contract of their own (vault shares, claim units) use chainID 0 with an
// address derived from their symbol. The symbol is display metadata, not
// identity.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewNativeAssetID creates an AssetID for a native coin (ETH, MATIC, etc).
func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{
		chainID: chainID,
		address: common.Address{},
	}
}

// NewTokenAssetID creates an AssetID for an ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("token address cannot be zero - use NewNativeAssetID for native coins")
	}
	return AssetID{
		chainID: chainID,
		address: addr,
	}
}

// NewSyntheticAssetID creates an AssetID for a protocol-internal instrument
// identified only by its symbol (vault share, LP token without a deployed
// contract in the snapshot, end-user claim unit).
func NewSyntheticAssetID(symbol string) AssetID {
	if symbol == "" {
		panic("asset: empty symbol for synthetic asset")
	}
	addr := common.BytesToAddress(common.RightPadBytes([]byte(symbol), 20))
	return AssetID{
		chainID: 0,
		address: addr,
	}
}

// ChainID returns the chain ID (0 for synthetic instruments).
func (id AssetID) ChainID() uint64 {
	return id.chainID
}

// Address returns the token contract address (zero for native coins).
func (id AssetID) Address() common.Address {
	return id.address
}

// IsNative returns true if this is a native coin.
func (id AssetID) IsNative() bool {
	return id.chainID != 0 && id.address == (common.Address{})
}

// IsToken returns true if this is an on-chain token.
func (id AssetID) IsToken() bool {
	return id.chainID != 0 && id.address != (common.Address{})
}

// IsSynthetic returns true if this is a protocol-internal instrument.
func (id AssetID) IsSynthetic() bool {
	return id.chainID == 0
}

// String returns a stable, sortable representation. The core iterates asset
// maps in this key's order, so it must be deterministic.
func (id AssetID) String() string {
	if id.IsSynthetic() {
		return fmt.Sprintf("synthetic:%s", id.address.Hex())
	}
	if id.IsNative() {
		return fmt.Sprintf("chain:%d/native", id.chainID)
	}
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

// Equals compares two AssetIDs for equality.
func (id AssetID) Equals(other AssetID) bool {
	return id.chainID == other.chainID && id.address == other.address
}
