// Package domain contains the core domain types for the solvency context.
package domain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Domain errors
var (
	ErrCyclicGraph       = errors.New("solvency: obligation graph contains a cycle")
	ErrSelfObligation    = errors.New("solvency: entity cannot owe itself")
	ErrUnknownDebtor     = errors.New("solvency: obligation debtor does not match declaring entity")
	ErrEmptyCounterparty = errors.New("solvency: obligation has empty counterparty")
)

// EntityID is a unique, stable identifier for a modeled financial entity.
type EntityID string

// EntityType classifies the role an entity plays in the protocol.
type EntityType string

// Entity roles
const (
	EntityVault             EntityType = "vault"
	EntityDepositorPool     EntityType = "depositor_pool"
	EntityLendingStrategy   EntityType = "lending_strategy"
	EntityLiquidityPool     EntityType = "liquidity_pool"
	EntityLeveragedPosition EntityType = "leveraged_position"
	EntityUserClaim         EntityType = "user_claim"
)

// KnownEntityType reports whether t is one of the modeled roles.
func KnownEntityType(t EntityType) bool {
	switch t {
	case EntityVault, EntityDepositorPool, EntityLendingStrategy,
		EntityLiquidityPool, EntityLeveragedPosition, EntityUserClaim:
		return true
	}
	return false
}

// Obligation is a directed debt from Debtor to Creditor, denominated in one
// or two asset types (a paired position owes both constituents).
// The creditor may be an entity outside the modeled set; such obligations
// are valued and distributed but never produce a received-shortfall entry.
type Obligation struct {
	Debtor   EntityID
	Creditor EntityID
	Position Holding
}

// Entity is an immutable input to one analysis run. All derived state lives
// in the per-pass products (Assessment, Cascade, EntityReport).
type Entity struct {
	ID          EntityID
	Type        EntityType
	Name        string
	Address     common.Address // optional; enables on-chain balance refresh
	Holdings    []Holding
	Obligations []Obligation
}

// HasObligations reports whether the entity owes anything onward.
// Entities without outbound obligations are terminal absorbers: they can
// receive shortfalls but can never be insolvent.
func (e *Entity) HasObligations() bool {
	return len(e.Obligations) > 0
}

// EntitySet is the full input universe of one analysis run, keyed by id.
type EntitySet map[EntityID]*Entity

// SortedIDs returns the entity ids in lexical order. All core iteration goes
// through this so results are independent of map ordering.
func (s EntitySet) SortedIDs() []EntityID {
	ids := make([]EntityID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate checks referential integrity of the set: every obligation must be
// declared by its debtor, and no entity may owe itself.
func (s EntitySet) Validate() error {
	for _, id := range s.SortedIDs() {
		e := s[id]
		if e.ID != id {
			return fmt.Errorf("solvency: entity keyed %q declares id %q", id, e.ID)
		}
		for _, o := range e.Obligations {
			if o.Debtor != e.ID {
				return fmt.Errorf("%w: entity %q declares debtor %q", ErrUnknownDebtor, e.ID, o.Debtor)
			}
			if o.Creditor == "" {
				return fmt.Errorf("%w: entity %q", ErrEmptyCounterparty, e.ID)
			}
			if o.Creditor == o.Debtor {
				return fmt.Errorf("%w: entity %q", ErrSelfObligation, e.ID)
			}
		}
	}
	return nil
}
