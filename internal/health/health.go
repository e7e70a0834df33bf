// Package health probes every ferry provider concurrently.
package health

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ferryhub/internal/domain"
	"ferryhub/internal/domain/models"
	"ferryhub/internal/metrics"
	"ferryhub/internal/providers"
	"ferryhub/internal/resilience"
)

const DefaultProbeTimeout = 5 * time.Second

type Checker struct {
	providers []providers.Provider
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Checker)

func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

func New(ps []providers.Provider, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Checker{
		providers: ps,
		timeout:   DefaultProbeTimeout,
		metrics:   m,
		logger:    logger.With("component", "health"),
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check probes all providers in parallel and reports them in registration
// order. One probe failing or panicking never affects another.
func (c *Checker) Check(ctx context.Context) []models.OperatorHealth {
	out := make([]models.OperatorHealth, len(c.providers))
	var g errgroup.Group
	for i, p := range c.providers {
		g.Go(func() error {
			out[i] = c.probe(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Checker) probe(ctx context.Context, p providers.Provider) models.OperatorHealth {
	h := models.OperatorHealth{Provider: p.Name(), CheckedAt: c.now()}
	if !p.Configured() {
		h.Status = models.HealthOffline
		h.Message = "not configured"
		c.metrics.RecordHealth(h.Provider, string(h.Status))
		return h
	}

	start := time.Now()
	_, err := resilience.WithTimeout(ctx, p.Name()+".probe", c.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.Probe(ctx)
	})
	h.LatencyMs = time.Since(start).Milliseconds()
	h.Status, h.Message = classify(err)
	if err != nil {
		c.logger.Warn("provider probe failed", "provider", h.Provider, "status", h.Status, "error", err)
	}
	c.metrics.RecordHealth(h.Provider, string(h.Status))
	return h
}

func classify(err error) (models.HealthStatus, string) {
	if err == nil {
		return models.HealthOnline, ""
	}
	switch domain.KindOf(err) {
	case domain.KindTimeout:
		return models.HealthOffline, "timed out"
	case domain.KindTransport, domain.KindUpstream:
		return models.HealthOffline, "unreachable"
	case domain.KindConfig:
		return models.HealthOffline, "not configured"
	case domain.KindAuth:
		return models.HealthError, "authentication failed"
	}
	return models.HealthError, "unexpected response"
}
