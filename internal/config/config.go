// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogDir      string `mapstructure:"log_dir"` // empty = stderr only
}

// ChainConfig holds blockchain RPC settings for on-chain balance refresh.
type ChainConfig struct {
	RPCURL  string `mapstructure:"rpc_url"`
	ChainID uint64 `mapstructure:"chain_id"`
}

// PricingConfig holds price feed settings.
type PricingConfig struct {
	CoinGeckoEnabled  bool   `mapstructure:"coingecko_enabled"`
	CoinGeckoBaseURL  string `mapstructure:"coingecko_base_url"`
	CoinGeckoAPIKey   string `mapstructure:"coingecko_api_key"`
	CoinGeckoPlatform string `mapstructure:"coingecko_platform"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// AnalysisConfig holds analysis run settings.
type AnalysisConfig struct {
	SnapshotPath   string        `mapstructure:"snapshot_path"`
	RefreshOnChain bool          `mapstructure:"refresh_on_chain"`
	WatchInterval  time.Duration `mapstructure:"watch_interval"`
	Verbose        bool          `mapstructure:"verbose"`
}

// StorageConfig holds run history settings.
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ZipkinURL      string `mapstructure:"zipkin_url"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("VSCOPE")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "VSCOPE_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "VSCOPE_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "VSCOPE_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_dir", "VSCOPE_LOG_DIR")

	// Chain
	v.BindEnv("chain.rpc_url", "VSCOPE_RPC_URL", "ETH_RPC_URL")
	v.BindEnv("chain.chain_id", "VSCOPE_CHAIN_ID", "ETH_CHAIN_ID")

	// Pricing
	v.BindEnv("pricing.coingecko_enabled", "VSCOPE_COINGECKO_ENABLED")
	v.BindEnv("pricing.coingecko_api_key", "VSCOPE_COINGECKO_API_KEY", "COINGECKO_API_KEY")
	v.BindEnv("pricing.coingecko_platform", "VSCOPE_COINGECKO_PLATFORM")

	// Analysis
	v.BindEnv("analysis.snapshot_path", "VSCOPE_SNAPSHOT")
	v.BindEnv("analysis.refresh_on_chain", "VSCOPE_REFRESH_ON_CHAIN")
	v.BindEnv("analysis.watch_interval", "VSCOPE_WATCH_INTERVAL")

	// Storage
	v.BindEnv("storage.enabled", "VSCOPE_STORAGE_ENABLED")
	v.BindEnv("storage.path", "VSCOPE_STORAGE_PATH")

	// Telemetry
	v.BindEnv("telemetry.enabled", "VSCOPE_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "VSCOPE_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "VSCOPE_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.zipkin_url", "VSCOPE_ZIPKIN_URL")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "vaultscope")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Chain defaults
	v.SetDefault("chain.chain_id", 1)

	// Pricing defaults
	v.SetDefault("pricing.coingecko_enabled", false)
	v.SetDefault("pricing.coingecko_platform", "ethereum")
	v.SetDefault("pricing.requests_per_minute", 25)

	// Analysis defaults
	v.SetDefault("analysis.snapshot_path", "snapshot.json")
	v.SetDefault("analysis.refresh_on_chain", false)
	v.SetDefault("analysis.watch_interval", "60s")
	v.SetDefault("analysis.verbose", false)

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.path", "vaultscope.db")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "vaultscope")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Analysis.SnapshotPath == "" {
		return fmt.Errorf("analysis.snapshot_path is required")
	}
	if c.Analysis.WatchInterval <= 0 {
		return fmt.Errorf("analysis.watch_interval must be positive")
	}
	if c.Analysis.RefreshOnChain && c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required when analysis.refresh_on_chain is set")
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required when storage.enabled is set")
	}
	return nil
}
