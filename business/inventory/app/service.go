package app

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/vaultscope/business/inventory/domain"
	solvencyDomain "github.com/fd1az/vaultscope/business/solvency/domain"
	"github.com/fd1az/vaultscope/internal/apperror"
	"github.com/fd1az/vaultscope/internal/asset"
	"github.com/fd1az/vaultscope/internal/logger"
)

const tracerName = "inventory"

// InventoryService loads the snapshot for each analysis run and, when a
// balance reader is configured, refreshes on-chain token holdings to the
// current block before handing the set to the analyzer.
type InventoryService struct {
	loader SnapshotLoader
	reader BalanceReader // nil disables on-chain refresh
	logger logger.LoggerInterface
	tracer trace.Tracer

	mu   sync.RWMutex
	last *domain.Snapshot
}

// NewInventoryService creates an InventoryService.
func NewInventoryService(loader SnapshotLoader, reader BalanceReader, log logger.LoggerInterface) *InventoryService {
	return &InventoryService{
		loader: loader,
		reader: reader,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
}

// Snapshot loads and refreshes the snapshot.
func (s *InventoryService) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.load_snapshot")
	defer span.End()

	snap, err := s.loader.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.reader != nil {
		if err := s.refreshBalances(ctx, snap); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()

	span.SetAttributes(
		attribute.Int("entities", len(snap.Entities)),
		attribute.Int("assets", snap.Registry.Count()),
	)
	return snap, nil
}

// Entities implements the analyzer's EntitySource port.
func (s *InventoryService) Entities(ctx context.Context) (solvencyDomain.EntitySet, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Entities, nil
}

// EmbeddedPrices returns the embedded price map of the last loaded snapshot.
// Used by the terminal pricing fallback, which must follow snapshot reloads
// in watch mode.
func (s *InventoryService) EmbeddedPrices() (map[string]decimal.Decimal, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, time.Time{}
	}
	return s.last.Prices, s.last.Timestamp
}

// refreshBalances replaces the captured amount of every single token holding
// with the live balance of the holding entity. Paired positions and native
// coin holdings keep their captured amounts: decomposing a pool position
// needs the pool contract's reserves, not a balance read.
func (s *InventoryService) refreshBalances(ctx context.Context, snap *domain.Snapshot) error {
	ctx, span := s.tracer.Start(ctx, "inventory.refresh_balances")
	defer span.End()

	refreshed := 0
	for _, id := range snap.Entities.SortedIDs() {
		e := snap.Entities[id]
		if e.Address == (common.Address{}) {
			continue
		}

		for i, h := range e.Holdings {
			if h.Kind() != solvencyDomain.HoldingSingle {
				continue
			}
			leg := h.Legs()[0]
			if !leg.Asset().ID().IsToken() {
				continue
			}

			balance, err := s.reader.BalanceOf(ctx, leg.Asset().ID().Address(), e.Address)
			if err != nil {
				return apperror.Wrap(err, apperror.CodeBalanceRefreshFailed, string(id))
			}

			live := asset.NewAmount(leg.Asset(), balance)
			if !live.Equals(leg) {
				s.logger.Info(ctx, "holding drifted since capture",
					"entity", string(id),
					"asset", leg.Asset().Symbol(),
					"captured", leg.ToDecimal().String(),
					"live", live.ToDecimal().String())
			}
			e.Holdings[i] = solvencyDomain.NewSingle(live)
			refreshed++
		}
	}

	span.SetAttributes(attribute.Int("refreshed", refreshed))
	return nil
}
