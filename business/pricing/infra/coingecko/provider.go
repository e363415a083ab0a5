// Package coingecko implements the PriceProvider interface against the
// CoinGecko REST API. Only on-chain assets can be quoted here; synthetic
// instruments fall through to the snapshot's own prices.
package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/vaultscope/business/pricing/app"
	"github.com/fd1az/vaultscope/business/pricing/domain"
	"github.com/fd1az/vaultscope/internal/apperror"
	"github.com/fd1az/vaultscope/internal/asset"
	"github.com/fd1az/vaultscope/internal/circuitbreaker"
	"github.com/fd1az/vaultscope/internal/httpclient"
	"github.com/fd1az/vaultscope/internal/logger"
	"github.com/fd1az/vaultscope/internal/ratelimit"
)

const (
	tracerName = "coingecko"

	// BaseAPIURL is the public API host. Pro keys use a different host,
	// configured through ProviderConfig.
	BaseAPIURL = "https://api.coingecko.com/api/v3"

	tokenPriceEndpoint = "/simple/token_price/%s"

	httpTimeout = 10 * time.Second

	// Public API allowance is 30 calls/min; stay under it.
	defaultRequestsPerMinute = 25
)

// ProviderConfig holds CoinGecko provider settings.
type ProviderConfig struct {
	BaseURL           string // API base URL (empty = public API)
	APIKey            string // optional demo/pro key
	Platform          string // asset platform id, e.g. "ethereum"
	RequestsPerMinute int
}

// Ensure Provider implements PriceProvider.
var _ app.PriceProvider = (*Provider)(nil)

// Provider quotes on-chain tokens by contract address.
type Provider struct {
	client   *httpclient.Client
	platform string
	logger   logger.LoggerInterface

	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[map[string]map[string]decimal.Decimal]
	tracer  trace.Tracer
}

// NewProvider creates a CoinGecko provider.
func NewProvider(cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	platform := cfg.Platform
	if platform == "" {
		platform = "ethereum"
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["x-cg-demo-api-key"] = cfg.APIKey
	}

	client, err := httpclient.New(
		httpclient.WithProviderName("coingecko"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(httpTimeout),
		httpclient.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Provider{
		client:   client,
		platform: platform,
		logger:   log,
		limiter:  ratelimit.New(rpm),
		cb:       circuitbreaker.New[map[string]map[string]decimal.Decimal](circuitbreaker.DefaultConfig("coingecko")),
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// Name identifies the provider.
func (p *Provider) Name() string { return "coingecko" }

// Quote fetches USD prices for the on-chain assets in the request. Synthetic
// assets are skipped; a failed or rate-limited API call fails the whole
// batch so the service can fall through to the next provider.
func (p *Provider) Quote(ctx context.Context, assets []*asset.Asset) (*domain.PriceTable, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.quote",
		trace.WithAttributes(attribute.Int("assets", len(assets))),
	)
	defer span.End()

	byAddress := make(map[string]*asset.Asset)
	var addresses []string
	for _, a := range assets {
		// The token_price endpoint keys on contract address; native coins
		// and synthetic instruments fall through to the next provider.
		if !a.ID().IsToken() {
			continue
		}
		addr := strings.ToLower(a.ID().Address().Hex())
		byAddress[addr] = a
		addresses = append(addresses, addr)
	}

	table := domain.NewPriceTable()
	if len(addresses) == 0 {
		return table, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	prices, err := p.cb.Execute(func() (map[string]map[string]decimal.Decimal, error) {
		var out map[string]map[string]decimal.Decimal
		query := url.Values{
			"contract_addresses": {strings.Join(addresses, ",")},
			"vs_currencies":      {"usd"},
		}
		if err := p.client.GetJSON(ctx, fmt.Sprintf(tokenPriceEndpoint, p.platform), query, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		span.RecordError(err)
		if httpclient.IsRateLimited(err) {
			return nil, apperror.External(apperror.CodePriceFeedRateLimited, "coingecko", err)
		}
		return nil, apperror.External(apperror.CodePriceFeedError, "coingecko", err)
	}

	now := time.Now().UTC()
	for addr, quotes := range prices {
		a, ok := byAddress[strings.ToLower(addr)]
		if !ok {
			continue
		}
		usd, ok := quotes["usd"]
		if !ok {
			continue
		}
		if err := table.Set(a, usd, p.Name(), now); err != nil {
			p.logger.Warn(ctx, "discarding invalid quote",
				"symbol", a.Symbol(), "usd", usd.String(), "error", err)
		}
	}

	span.SetAttributes(attribute.Int("quoted", table.Len()))
	return table, nil
}
