package app

import (
	"context"
	"time"

	"github.com/fd1az/vaultscope/business/solvency/domain"
	"github.com/fd1az/vaultscope/internal/logger"
)

// Monitor re-runs the analysis on a fixed interval (watch mode), emitting
// every report and persisting run history when a store is configured.
type Monitor struct {
	analyzer *Analyzer
	reporter Reporter
	store    RunStore // nil disables run history
	interval time.Duration
	logger   logger.LoggerInterface
}

// NewMonitor creates a Monitor.
func NewMonitor(analyzer *Analyzer, reporter Reporter, store RunStore, interval time.Duration, log logger.LoggerInterface) *Monitor {
	return &Monitor{
		analyzer: analyzer,
		reporter: reporter,
		store:    store,
		interval: interval,
		logger:   log,
	}
}

// RunOnce performs a single analysis, reports it, and records run history.
func (m *Monitor) RunOnce(ctx context.Context) (*domain.Report, error) {
	report, err := m.analyzer.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.reporter.Report(ctx, report); err != nil {
		return nil, err
	}

	if m.store != nil {
		// Run history is best effort; a storage hiccup must not mask the
		// analysis result.
		if err := m.store.SaveRun(ctx, report); err != nil {
			m.logger.Error(ctx, "saving run history failed", "error", err)
		}
	}
	return report, nil
}

// Watch runs immediately, then on every tick until the context is cancelled.
// Individual run failures are logged and the loop keeps going; a fresh
// snapshot or recovered price feed may succeed on the next tick.
func (m *Monitor) Watch(ctx context.Context) error {
	if _, err := m.RunOnce(ctx); err != nil {
		m.logger.Error(ctx, "analysis run failed", "error", err)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.RunOnce(ctx); err != nil {
				m.logger.Error(ctx, "analysis run failed", "error", err)
			}
		}
	}
}
