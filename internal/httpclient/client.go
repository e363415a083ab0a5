// Package httpclient provides an OTEL-instrumented HTTP client for the
// external feeds (price APIs, RPC gateways).
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
)

// Client wraps http.Client with OTEL trace and metric instrumentation.
type Client struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	baseURL        string
	headers        map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithProviderName labels the client's metrics with the upstream provider.
func WithProviderName(name string) Option {
	return func(c *Client) { c.providerName = name }
}

// WithBaseURL prefixes every request path with a base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithRequestTimeout overrides the default per-request timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.client.Timeout = timeout }
}

// WithHeaders sets headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// New creates an instrumented client.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		client: &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					KeepAlive: defaultDialKeepAlive,
				}).DialContext,
				MaxConnsPerHost: defaultMaxConnsPerHost,
				IdleConnTimeout: defaultIdleConnTimeout,
			},
		},
		providerName: "default",
		headers:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.client.Transport = otelhttp.NewTransport(
		c.client.Transport,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	meter := otel.Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", c.providerName)),
	)
	counter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	c.requestCounter = counter

	return c, nil
}

// GetJSON performs a GET against path (relative to the base URL) and decodes
// the JSON response into out. Non-2xx statuses are returned as errors with
// the response body attached.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.count(ctx, path, 0)
		return err
	}
	defer resp.Body.Close()
	c.count(ctx, path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body), URL: u}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) count(ctx context.Context, path string, status int) {
	c.requestCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", c.providerName),
			attribute.String("path", path),
			attribute.Int("status", status),
		),
	)
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// IsRateLimited reports whether err is an HTTP 429 response.
func IsRateLimited(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.StatusCode == http.StatusTooManyRequests
}
