// Package snapshotfile implements the SnapshotLoader interface for JSON
// snapshot files.
package snapshotfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/vaultscope/business/inventory/app"
	"github.com/fd1az/vaultscope/business/inventory/domain"
	solvencyDomain "github.com/fd1az/vaultscope/business/solvency/domain"
	"github.com/fd1az/vaultscope/internal/apperror"
	"github.com/fd1az/vaultscope/internal/asset"
)

// Ensure Loader implements SnapshotLoader.
var _ app.SnapshotLoader = (*Loader)(nil)

// Loader reads snapshots from a JSON file.
type Loader struct {
	path string
}

// NewLoader creates a loader for the given file path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

type snapshotDTO struct {
	ChainID   uint64            `json:"chain_id"`
	Timestamp time.Time         `json:"timestamp"`
	Prices    map[string]string `json:"prices"`
	Assets    []assetDTO        `json:"assets"`
	Entities  []entityDTO       `json:"entities"`
}

type assetDTO struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Address  string `json:"address"` // empty for synthetic and native assets
	Native   bool   `json:"native"`
}

type entityDTO struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Address     string          `json:"address"`
	Holdings    []positionDTO   `json:"holdings"`
	Obligations []obligationDTO `json:"obligations"`
}

// positionDTO is either a single amount ("asset"/"amount" set) or a pair.
type positionDTO struct {
	Asset  string   `json:"asset"`
	Amount string   `json:"amount"`
	Pair   []legDTO `json:"pair"`
}

type legDTO struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type obligationDTO struct {
	Creditor string `json:"creditor"`
	positionDTO
}

// Load parses and validates the snapshot file.
func (l *Loader) Load(ctx context.Context) (*domain.Snapshot, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, apperror.External(apperror.CodeSnapshotLoadFailed, l.path, err)
	}

	var dto snapshotDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, apperror.External(apperror.CodeSnapshotLoadFailed, l.path, err)
	}
	return l.build(&dto)
}

func (l *Loader) build(dto *snapshotDTO) (*domain.Snapshot, error) {
	registry := asset.NewRegistry()

	for _, a := range dto.Assets {
		id, err := resolveAssetID(dto.ChainID, a)
		if err != nil {
			return nil, apperror.Validation(apperror.CodeSnapshotInvalid, err.Error())
		}
		if _, exists := registry.Get(id); exists {
			return nil, apperror.Validation(apperror.CodeSnapshotInvalid,
				fmt.Sprintf("duplicate asset declaration %s", a.Symbol))
		}
		registry.Register(asset.NewAssetWithName(id, a.Symbol, a.Name, a.Decimals))
	}

	entities := make(solvencyDomain.EntitySet, len(dto.Entities))
	for _, e := range dto.Entities {
		if _, dup := entities[solvencyDomain.EntityID(e.ID)]; dup {
			return nil, apperror.Validation(apperror.CodeSnapshotInvalid,
				fmt.Sprintf("duplicate entity id %q", e.ID))
		}
		if !solvencyDomain.KnownEntityType(solvencyDomain.EntityType(e.Type)) {
			return nil, apperror.Validation(apperror.CodeSnapshotInvalid,
				fmt.Sprintf("entity %q has unknown type %q", e.ID, e.Type))
		}

		entity := &solvencyDomain.Entity{
			ID:   solvencyDomain.EntityID(e.ID),
			Type: solvencyDomain.EntityType(e.Type),
			Name: e.Name,
		}
		if e.Address != "" {
			if !common.IsHexAddress(e.Address) {
				return nil, apperror.Validation(apperror.CodeSnapshotInvalid,
					fmt.Sprintf("entity %q has invalid address %q", e.ID, e.Address))
			}
			entity.Address = common.HexToAddress(e.Address)
		}

		for _, h := range e.Holdings {
			holding, err := parsePosition(registry, e.ID, h)
			if err != nil {
				return nil, err
			}
			entity.Holdings = append(entity.Holdings, holding)
		}
		for _, o := range e.Obligations {
			if o.Creditor == "" {
				return nil, apperror.Validation(apperror.CodeSnapshotInvalid,
					fmt.Sprintf("entity %q has an obligation without creditor", e.ID))
			}
			position, err := parsePosition(registry, e.ID, o.positionDTO)
			if err != nil {
				return nil, err
			}
			entity.Obligations = append(entity.Obligations, solvencyDomain.Obligation{
				Debtor:   entity.ID,
				Creditor: solvencyDomain.EntityID(o.Creditor),
				Position: position,
			})
		}

		entities[entity.ID] = entity
	}

	if err := entities.Validate(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSnapshotInvalid, l.path)
	}

	prices := make(map[string]decimal.Decimal, len(dto.Prices))
	for symbol, raw := range dto.Prices {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, apperror.Validation(apperror.CodeSnapshotInvalid,
				fmt.Sprintf("invalid price %q for %s", raw, symbol))
		}
		prices[symbol] = p
	}

	ts := dto.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return &domain.Snapshot{
		ChainID:   dto.ChainID,
		Timestamp: ts,
		Registry:  registry,
		Entities:  entities,
		Prices:    prices,
	}, nil
}

func resolveAssetID(chainID uint64, a assetDTO) (asset.AssetID, error) {
	if a.Symbol == "" {
		return asset.AssetID{}, fmt.Errorf("asset without symbol")
	}
	if a.Native {
		return asset.NewNativeAssetID(chainID), nil
	}
	if a.Address != "" {
		if !common.IsHexAddress(a.Address) {
			return asset.AssetID{}, fmt.Errorf("asset %s has invalid address %q", a.Symbol, a.Address)
		}
		return asset.NewTokenAssetID(chainID, common.HexToAddress(a.Address)), nil
	}
	return asset.NewSyntheticAssetID(a.Symbol), nil
}

func parsePosition(registry *asset.Registry, entityID string, p positionDTO) (solvencyDomain.Holding, error) {
	if len(p.Pair) > 0 {
		if len(p.Pair) != 2 {
			return solvencyDomain.Holding{}, apperror.Validation(apperror.CodeSnapshotInvalid,
				fmt.Sprintf("entity %q has a pair with %d legs", entityID, len(p.Pair)))
		}
		first, err := parseLeg(registry, entityID, p.Pair[0])
		if err != nil {
			return solvencyDomain.Holding{}, err
		}
		second, err := parseLeg(registry, entityID, p.Pair[1])
		if err != nil {
			return solvencyDomain.Holding{}, err
		}
		return solvencyDomain.NewPaired(first, second), nil
	}

	leg, err := parseLeg(registry, entityID, legDTO{Asset: p.Asset, Amount: p.Amount})
	if err != nil {
		return solvencyDomain.Holding{}, err
	}
	return solvencyDomain.NewSingle(leg), nil
}

func parseLeg(registry *asset.Registry, entityID string, leg legDTO) (asset.Amount, error) {
	a, ok := registry.GetBySymbol(leg.Asset)
	if !ok {
		return asset.Amount{}, apperror.NotFound(apperror.CodeMissingReference,
			fmt.Sprintf("entity %q references undeclared asset %q", entityID, leg.Asset))
	}
	amt, err := asset.ParseString(a, leg.Amount)
	if err != nil {
		return asset.Amount{}, apperror.Validation(apperror.CodeSnapshotInvalid,
			fmt.Sprintf("entity %q has invalid amount %q of %s: %v", entityID, leg.Amount, leg.Asset, err))
	}
	return amt, nil
}
