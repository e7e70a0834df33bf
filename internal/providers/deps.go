package providers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ferryhub/internal/location"
	"ferryhub/internal/metrics"
	"ferryhub/internal/resilience"
)

// Deps are the collaborators shared by every adapter.
type Deps struct {
	Resolver      *location.Resolver
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	Retry         resilience.RetryConfig
	RatePerSecond float64
	HTTPClient    *http.Client
	Now           func() time.Time
	// NoBreaker disables the per-provider circuit breaker.
	NoBreaker bool
}

func (d Deps) WithDefaults() Deps {
	if d.Resolver == nil {
		d.Resolver = location.Default()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Client builds the transport for one provider.
func (d Deps) Client(provider, baseURL string, timeout time.Duration) *Client {
	d = d.WithDefaults()
	var breaker *resilience.Breaker
	if !d.NoBreaker {
		breaker = resilience.NewBreaker(resilience.DefaultBreakerConfig(provider), d.Logger)
	}
	retry := d.Retry
	retry.Logger = d.Logger
	return NewClient(ClientConfig{
		Provider:      provider,
		BaseURL:       baseURL,
		Timeout:       timeout,
		RatePerSecond: d.RatePerSecond,
		Retry:         retry,
		Breaker:       breaker,
		Metrics:       d.Metrics,
		Logger:        d.Logger,
		HTTPClient:    d.HTTPClient,
	})
}

var authPhrases = []string{"token", "unauthor", "forbidden", "credential", "login", "session"}

// LooksLikeAuth reports whether a provider error message is about auth.
func LooksLikeAuth(msg string) bool {
	m := strings.ToLower(msg)
	for _, p := range authPhrases {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}

// Tomorrow returns tomorrow's date in YYYY-MM-DD, the date used by probes.
func Tomorrow(now time.Time) string {
	return now.AddDate(0, 0, 1).Format("2006-01-02")
}
