package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/vaultscope/business/solvency/domain"
	pricingDomain "github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/apperror"
	"github.com/fd1az/vaultscope/internal/asset"
	"github.com/fd1az/vaultscope/internal/logger"
)

const (
	tracerName = "solvency"
	meterName  = "solvency"
)

// analyzerMetrics holds OTEL metric instruments.
type analyzerMetrics struct {
	runsTotal         metric.Int64Counter
	runErrors         metric.Int64Counter
	runDuration       metric.Float64Histogram
	insolventEntities metric.Int64Gauge
	shortfallUSD      metric.Float64Gauge
}

// Analyzer runs the full point-in-time solvency analysis: standalone
// evaluation of every entity, shortfall propagation through the dependency
// graph, and final classification.
type Analyzer struct {
	entities EntitySource
	prices   PriceSource
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *analyzerMetrics
}

// NewAnalyzer creates an Analyzer wired to its sources.
func NewAnalyzer(entities EntitySource, prices PriceSource, log logger.LoggerInterface) (*Analyzer, error) {
	a := &Analyzer{
		entities: entities,
		prices:   prices,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := a.initMetrics(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &analyzerMetrics{}

	a.metrics.runsTotal, err = meter.Int64Counter(
		"solvency_runs_total",
		metric.WithDescription("Total analysis runs"),
	)
	if err != nil {
		return err
	}

	a.metrics.runErrors, err = meter.Int64Counter(
		"solvency_run_errors_total",
		metric.WithDescription("Total failed analysis runs"),
	)
	if err != nil {
		return err
	}

	a.metrics.runDuration, err = meter.Float64Histogram(
		"solvency_run_duration_ms",
		metric.WithDescription("Analysis run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	a.metrics.insolventEntities, err = meter.Int64Gauge(
		"solvency_insolvent_entities",
		metric.WithDescription("Insolvent entities found by the last run"),
	)
	if err != nil {
		return err
	}

	a.metrics.shortfallUSD, err = meter.Float64Gauge(
		"solvency_total_shortfall_usd",
		metric.WithDescription("Total USD shortfall found by the last run"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Analyze executes one full run against the current snapshot.
func (a *Analyzer) Analyze(ctx context.Context) (*domain.Report, error) {
	ctx, span := a.tracer.Start(ctx, "solvency.analyze")
	defer span.End()

	start := time.Now()
	a.metrics.runsTotal.Add(ctx, 1)

	report, err := a.analyze(ctx)

	a.metrics.runDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		a.metrics.runErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	a.metrics.insolventEntities.Record(ctx, int64(len(report.InsolventEntities)))
	shortfall, _ := report.TotalShortfallUSD.Float64()
	a.metrics.shortfallUSD.Record(ctx, shortfall)
	span.SetAttributes(
		attribute.Bool("solvent", report.Solvent),
		attribute.Int("insolvent_entities", len(report.InsolventEntities)),
	)
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context) (*domain.Report, error) {
	set, err := a.entities.Entities(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSnapshotLoadFailed, "loading entity snapshot")
	}
	if err := set.Validate(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSnapshotInvalid, "validating entity snapshot")
	}

	assets := ReferencedAssets(set)
	prices, err := a.prices.Prices(ctx, assets)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodePriceFeedError, "fetching price table")
	}

	a.logger.Info(ctx, "snapshot loaded",
		"entities", len(set), "asset_types", len(assets))

	assessments, err := a.evaluateAll(ctx, set, prices)
	if err != nil {
		return nil, err
	}

	cascades, err := a.propagateAll(ctx, set, assessments, prices)
	if err != nil {
		return nil, err
	}

	return a.classify(ctx, set, assessments, cascades), nil
}

func (a *Analyzer) evaluateAll(ctx context.Context, set domain.EntitySet, prices *pricingDomain.PriceTable) (map[domain.EntityID]*domain.Assessment, error) {
	ctx, span := a.tracer.Start(ctx, "solvency.evaluate_entities")
	defer span.End()

	calc := NewCalculator(prices)
	assessments := make(map[domain.EntityID]*domain.Assessment, len(set))
	for _, id := range set.SortedIDs() {
		assessment, err := calc.EvaluateEntity(set, id)
		if err != nil {
			span.RecordError(err)
			if pricingDomain.IsMissingPrice(err) {
				return nil, apperror.Wrap(err, apperror.CodeMissingPrice, string(id))
			}
			return nil, apperror.Wrap(err, apperror.CodeSolvencyAnalysisFailed, string(id))
		}
		assessments[id] = assessment

		if assessment.Insolvent {
			a.logger.Warn(ctx, "standalone shortfall",
				"entity", string(id),
				"shortfall_usd", assessment.ShortfallUSD.StringFixed(2))
		}
	}
	return assessments, nil
}

func (a *Analyzer) propagateAll(ctx context.Context, set domain.EntitySet, assessments map[domain.EntityID]*domain.Assessment, prices *pricingDomain.PriceTable) (map[domain.EntityID]*domain.Cascade, error) {
	_, span := a.tracer.Start(ctx, "solvency.propagate_shortfalls")
	defer span.End()

	cascades, err := NewPropagator(prices).Propagate(set, assessments)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrCyclicGraph) {
			return nil, apperror.Wrap(err, apperror.CodeCyclicDependencyGraph, "ordering dependency graph")
		}
		if pricingDomain.IsMissingPrice(err) {
			return nil, apperror.Wrap(err, apperror.CodeMissingPrice, "propagating shortfalls")
		}
		return nil, apperror.Wrap(err, apperror.CodeShortfallDistribution, "propagating shortfalls")
	}
	return cascades, nil
}

// classify combines the standalone and propagated views into the final
// verdict for every entity. An entity is insolvent when it has an effective
// shortfall of its own, or when it received a shortfall while still owing
// obligations onward. Terminal absorbers (no outbound obligations) eat
// received losses without becoming insolvent.
func (a *Analyzer) classify(ctx context.Context, set domain.EntitySet, assessments map[domain.EntityID]*domain.Assessment, cascades map[domain.EntityID]*domain.Cascade) *domain.Report {
	_, span := a.tracer.Start(ctx, "solvency.classify")
	defer span.End()

	report := &domain.Report{
		Timestamp:         time.Now().UTC(),
		Solvent:           true,
		TotalShortfallUSD: decimal.Zero,
	}

	for _, id := range set.SortedIDs() {
		e := set[id]
		assessment := assessments[id]
		cascade := cascades[id]

		insolvent := cascade.ShortfallUSD.IsPositive() ||
			(e.HasObligations() && !cascade.Received.IsEmpty())

		report.Details = append(report.Details, &domain.EntityReport{
			Entity:     e,
			Assessment: assessment,
			Cascade:    cascade,
			Insolvent:  insolvent,
		})

		// Standalone shortfalls are the losses injected into the system;
		// summing the propagated ones would count the same loss once per
		// hop along the chain.
		report.TotalShortfallUSD = report.TotalShortfallUSD.Add(assessment.ShortfallUSD)

		if insolvent {
			report.Solvent = false
			report.InsolventEntities = append(report.InsolventEntities, id)
		}
	}

	sort.Slice(report.InsolventEntities, func(i, j int) bool {
		return report.InsolventEntities[i] < report.InsolventEntities[j]
	})
	return report
}

// ReferencedAssets collects every asset type a snapshot references, across
// holdings and obligations, ordered by asset id.
func ReferencedAssets(set domain.EntitySet) []*asset.Asset {
	seen := make(map[asset.AssetID]*asset.Asset)
	for _, id := range set.SortedIDs() {
		e := set[id]
		for _, h := range e.Holdings {
			for _, leg := range h.Legs() {
				seen[leg.Asset().ID()] = leg.Asset()
			}
		}
		for _, o := range e.Obligations {
			for _, leg := range o.Position.Legs() {
				seen[leg.Asset().ID()] = leg.Asset()
			}
		}
	}

	ids := make([]asset.AssetID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	out := make([]*asset.Asset, 0, len(ids))
	for _, id := range ids {
		out = append(out, seen[id])
	}
	return out
}
