package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"ferryhub/internal/domain"
	"ferryhub/internal/metrics"
	"ferryhub/internal/resilience"
	"ferryhub/internal/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 8 << 20

type ClientConfig struct {
	Provider      string
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Retry         resilience.RetryConfig
	Breaker       *resilience.Breaker
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	HTTPClient    *http.Client
}

// Client is the JSON-over-HTTPS transport shared by the adapters. It rate
// limits, runs calls through the provider's circuit breaker and turns
// every failure into a *domain.ProviderError.
type Client struct {
	provider string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	retry    resilience.RetryConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	retry := cfg.Retry
	m := cfg.Metrics
	prev := retry.OnRetry
	retry.OnRetry = func(label string, attempt int, err error) {
		m.RecordRetry(label)
		if prev != nil {
			prev(label, attempt, err)
		}
	}
	return &Client{
		provider: cfg.Provider,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     hc,
		limiter:  limiter,
		breaker:  cfg.Breaker,
		retry:    retry,
		metrics:  m,
		logger:   logger.With("component", "provider_client", "provider", cfg.Provider),
	}
}

func (c *Client) Provider() string { return c.provider }

func (c *Client) BaseURL() string { return c.baseURL }

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Retry runs fn under the client's retry policy.
func Retry[T any](ctx context.Context, c *Client, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return resilience.CallWithRetry(ctx, c.provider+"."+op, c.retry, fn)
}

// PostJSON sends one POST with a JSON body and decodes the JSON response
// into out. It makes exactly one attempt.
func (c *Client) PostJSON(ctx context.Context, op, path string, header http.Header, in, out any) error {
	start := time.Now()
	ctx, span := tracing.Start(ctx, c.provider+"."+op, attribute.String("provider", c.provider), attribute.String("op", op))

	err := c.breaker.Do(func() error {
		return c.post(ctx, op, path, header, in, out)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		err = domain.NewProviderError(c.provider, op, domain.KindUpstream, "temporarily unavailable", err)
	}

	c.metrics.RecordProviderCall(c.provider, op, outcome(err), time.Since(start))
	tracing.End(span, err)
	if err != nil {
		c.logger.Warn("provider call failed", "op", op, "latency_ms", time.Since(start).Milliseconds(), "error", err)
	} else {
		c.logger.Debug("provider call ok", "op", op, "latency_ms", time.Since(start).Milliseconds())
	}
	return err
}

func (c *Client) post(ctx context.Context, op, path string, header http.Header, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.transportError(op, err)
		}
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return domain.NewProviderError(c.provider, op, domain.KindParse, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(payload))
	if err != nil {
		return domain.NewProviderError(c.provider, op, domain.KindConfig, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	// Keys are assigned verbatim; some providers expect exact casing.
	for k, vs := range header {
		req.Header[k] = append(req.Header[k], vs...)
	}
	tracing.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pe := domain.NewProviderError(c.provider, op, KindForStatus(resp.StatusCode), snippet(body), nil)
		pe.StatusCode = resp.StatusCode
		return pe
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewProviderError(c.provider, op, domain.KindParse, "decode response", err)
	}
	return nil
}

func (c *Client) transportError(op string, err error) error {
	kind := domain.KindTransport
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = domain.KindTimeout
	}
	return domain.NewProviderError(c.provider, op, kind, "", err)
}

// KindForStatus maps an HTTP status to an error kind.
func KindForStatus(status int) domain.ProviderErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.KindAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return domain.KindTimeout
	case status == http.StatusTooManyRequests || status >= 500:
		return domain.KindUpstream
	default:
		return domain.KindDomain
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := domain.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// Errorf builds a provider error of the given kind.
func Errorf(provider, op string, kind domain.ProviderErrorKind, format string, args ...any) error {
	return domain.NewProviderError(provider, op, kind, fmt.Sprintf(format, args...), nil)
}

// NotConfigured is returned by adapters whose credentials are missing.
func NotConfigured(provider, op string) error {
	return domain.NewProviderError(provider, op, domain.KindConfig, "credentials not configured", nil)
}
