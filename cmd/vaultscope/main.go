// Package main is the entry point for the VaultScope solvency analyzer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fd1az/vaultscope/business/inventory"
	"github.com/fd1az/vaultscope/business/pricing"
	"github.com/fd1az/vaultscope/business/solvency"
	solvencyApp "github.com/fd1az/vaultscope/business/solvency/app"
	solvencyDI "github.com/fd1az/vaultscope/business/solvency/di"
	"github.com/fd1az/vaultscope/internal/apm"
	"github.com/fd1az/vaultscope/internal/config"
	"github.com/fd1az/vaultscope/internal/health"
	"github.com/fd1az/vaultscope/internal/logger"
	"github.com/fd1az/vaultscope/internal/metrics"
	"github.com/fd1az/vaultscope/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// errInsolvent distinguishes a clean run that found insolvencies from a
// failed run. One-shot mode maps it to a dedicated exit code for scripting.
var errInsolvent = errors.New("snapshot is insolvent")

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	snapshotPath := flag.String("snapshot", "", "Path to the snapshot file (overrides config)")
	output := flag.String("output", solvency.OutputConsole, "Report format: console or json")
	watch := flag.Bool("watch", false, "Re-run the analysis on an interval")
	verbose := flag.Bool("verbose", false, "Show per-entity detail for solvent entities too")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vaultscope %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if *output != solvency.OutputConsole && *output != solvency.OutputJSON {
		fmt.Fprintf(os.Stderr, "error: unknown output format %q\n", *output)
		os.Exit(1)
	}

	// Setup context with cancellation on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run application
	if err := run(ctx, *configPath, *snapshotPath, *output, *watch, *verbose); err != nil {
		if errors.Is(err, errInsolvent) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, snapshotPath, output string, watch, verbose bool) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override config
	if snapshotPath != "" {
		cfg.Analysis.SnapshotPath = snapshotPath
	}
	if verbose {
		cfg.Analysis.Verbose = true
	}

	// Setup logger. The report goes to stdout, logs stay on stderr so
	// json output pipes cleanly.
	logLevel := logger.ParseLevel(cfg.App.LogLevel)
	var log *logger.Logger
	if cfg.App.LogDir != "" {
		log = logger.NewWithRotation(os.Stderr, cfg.App.LogDir, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	}

	log.Info(ctx, "starting vaultscope",
		"version", version,
		"environment", cfg.App.Environment,
		"snapshot", cfg.Analysis.SnapshotPath,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		traceProvider = apm.NewTraceProvider(cfg.Telemetry.ServiceName, traceOption(cfg, log))

		if _, err := metrics.NewMetricProvider(metricOptions(cfg)...); err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}

		// Start Prometheus metrics server in background
		go metrics.ServePrometheusMetrics(cfg.Telemetry.PrometheusPort)
		log.Info(ctx, "telemetry initialized",
			"prometheus_port", cfg.Telemetry.PrometheusPort,
			"otlp_endpoint", cfg.Telemetry.OTLPEndpoint,
		)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&inventory.Module{}, // Must be first - provides the snapshot
		&pricing.Module{},   // Depends on inventory for embedded prices
		&solvency.Module{Output: output, Out: os.Stdout},
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	monitor := solvencyDI.GetMonitor(mono.Services())

	if watch {
		return runWatch(ctx, cfg, monitor, log)
	}

	// One-shot mode: single run, exit code reflects the verdict
	report, err := monitor.RunOnce(ctx)
	if err != nil {
		return err
	}
	if !report.Solvent {
		return errInsolvent
	}
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, monitor *solvencyApp.Monitor, log *logger.Logger) error {
	// Health endpoints only make sense for a long-running process
	healthServer := health.NewServer(cfg.Telemetry.HealthPort, version)
	healthServer.RegisterCheck("snapshot", func(ctx context.Context) (bool, string) {
		if _, err := os.Stat(cfg.Analysis.SnapshotPath); err != nil {
			return false, err.Error()
		}
		return true, ""
	})
	healthServer.Start()
	defer healthServer.Stop(ctx)
	log.Info(ctx, "health server started", "port", cfg.Telemetry.HealthPort)

	log.Info(ctx, "watch mode", "interval", cfg.Analysis.WatchInterval.String())
	if err := monitor.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info(ctx, "shutting down")
	return nil
}

// traceOption picks the trace exporter from config: an explicit Zipkin URL
// wins, then an OTLP endpoint, otherwise spans are dropped.
func traceOption(cfg *config.Config, log *logger.Logger) apm.TracerOption {
	switch {
	case cfg.Telemetry.ZipkinURL != "":
		return apm.WithProvider(apm.ZipkinProvider, cfg.Telemetry.ZipkinURL, log)
	case cfg.Telemetry.OTLPEndpoint != "":
		return apm.WithProvider(apm.OTLPGRPCProvider, cfg.Telemetry.OTLPEndpoint, log)
	default:
		return apm.WithProvider(apm.EmptyProvider, "", log)
	}
}

func metricOptions(cfg *config.Config) []metrics.OptionFn {
	opts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		opts = append(opts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(cfg.Telemetry.OTLPEndpoint, nil, true),
		))
	}
	return opts
}
