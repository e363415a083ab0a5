package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/asset"
	"github.com/fd1az/vaultscope/internal/logger"
)

const (
	tracerName = "pricing"
	meterName  = "pricing"
)

// serviceMetrics holds OTEL metric instruments.
type serviceMetrics struct {
	lookupsTotal   metric.Int64Counter
	providerErrors metric.Int64Counter
}

// PriceService assembles one run's price table by walking a provider chain:
// each provider fills the quotes its predecessors left open. Assets still
// unquoted at the end stay missing; the analysis fails on first use.
type PriceService struct {
	providers []PriceProvider
	logger    logger.LoggerInterface

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewPriceService creates a PriceService over an ordered provider chain.
func NewPriceService(providers []PriceProvider, log logger.LoggerInterface) (*PriceService, error) {
	s := &PriceService{
		providers: providers,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PriceService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.lookupsTotal, err = meter.Int64Counter(
		"pricing_lookups_total",
		metric.WithDescription("Total price table lookups"),
	)
	if err != nil {
		return err
	}

	s.metrics.providerErrors, err = meter.Int64Counter(
		"pricing_provider_errors_total",
		metric.WithDescription("Total provider failures"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Prices builds the price table for the given assets. A provider failure is
// logged and the chain continues; only a fully failed chain with unquoted
// assets surfaces later as a missing price.
func (s *PriceService) Prices(ctx context.Context, assets []*asset.Asset) (*domain.PriceTable, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.build_table",
		trace.WithAttributes(attribute.Int("assets", len(assets))),
	)
	defer span.End()

	s.metrics.lookupsTotal.Add(ctx, 1)

	table := domain.NewPriceTable()
	remaining := assets

	for _, provider := range s.providers {
		if len(remaining) == 0 {
			break
		}

		quotes, err := provider.Quote(ctx, remaining)
		if err != nil {
			s.metrics.providerErrors.Add(ctx, 1,
				metric.WithAttributes(attribute.String("provider", provider.Name())))
			span.RecordError(err)
			s.logger.Warn(ctx, "price provider failed, falling through",
				"provider", provider.Name(), "error", err)
			continue
		}

		table.Merge(quotes)
		remaining = unquoted(remaining, table)
	}

	if len(remaining) > 0 {
		symbols := make([]string, 0, len(remaining))
		for _, a := range remaining {
			symbols = append(symbols, a.Symbol())
		}
		s.logger.Warn(ctx, "assets left unquoted by the provider chain", "symbols", symbols)
	}

	span.SetAttributes(attribute.Int("quoted", table.Len()))
	return table, nil
}

func unquoted(assets []*asset.Asset, table *domain.PriceTable) []*asset.Asset {
	var out []*asset.Asset
	for _, a := range assets {
		if !table.Has(a) {
			out = append(out, a)
		}
	}
	return out
}
