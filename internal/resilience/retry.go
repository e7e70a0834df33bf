package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"ferryhub/internal/domain"
)

const (
	DefaultMaxAttempts   = 2
	DefaultInitialDelay  = 300 * time.Millisecond
	DefaultMaxDelay      = 3 * time.Second
	DefaultBackoffFactor = 2.0
)

// RetryConfig controls CallWithRetry. Zero fields fall back to defaults.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// AttemptTimeout is the hard ceiling for a single attempt. Zero means
	// the attempt is bounded only by ctx.
	AttemptTimeout time.Duration

	// IsTerminal overrides the default classification.
	IsTerminal func(error) bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(label string, attempt int, err error)

	Logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   DefaultMaxAttempts,
		InitialDelay:  DefaultInitialDelay,
		MaxDelay:      DefaultMaxDelay,
		BackoffFactor: DefaultBackoffFactor,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = DefaultBackoffFactor
	}
	if c.IsTerminal == nil {
		c.IsTerminal = IsTerminal
	}
	if c.sleep == nil {
		c.sleep = sleepCtx
	}
	return c
}

// Delay returns the backoff before attempt n+1, n starting at 1.
func (c RetryConfig) Delay(n int) time.Duration {
	c = c.withDefaults()
	d := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(n-1))
	if d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// CallWithRetry runs fn up to MaxAttempts times with exponential backoff,
// returning the last error. Terminal errors are returned after one attempt.
func CallWithRetry[T any](ctx context.Context, label string, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		v, err := runWithTimeout(ctx, label, cfg.AttemptTimeout, fn)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if cfg.IsTerminal(err) || ctx.Err() != nil || attempt == cfg.MaxAttempts {
			break
		}
		delay := cfg.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(label, attempt, err)
		}
		if cfg.Logger != nil {
			cfg.Logger.Debug("retrying call", "label", label, "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", err)
		}
		if serr := cfg.sleep(ctx, delay); serr != nil {
			break
		}
	}
	return zero, lastErr
}

// WithTimeout runs fn once under a hard deadline, recovering panics.
func WithTimeout[T any](ctx context.Context, label string, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	return runWithTimeout(ctx, label, d, fn)
}

// runWithTimeout races fn against a timer so an attempt that ignores its
// context still returns on time.
func runWithTimeout[T any](ctx context.Context, label string, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if d <= 0 {
		return safeCall(ctx, label, fn)
	}

	actx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := safeCall(actx, label, fn)
		done <- outcome{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.v, o.err
	case <-timer.C:
		return zero, fmt.Errorf("%s: no response within %s: %w", label, d, context.DeadlineExceeded)
	case <-ctx.Done():
		return zero, fmt.Errorf("%s: %w", label, ctx.Err())
	}
}

func safeCall[T any](ctx context.Context, label string, fn func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", label, r)
		}
	}()
	return fn(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var terminalPhrases = []string{"unauthorized", "forbidden", "invalid credential", "invalid token", "authentication failed"}

// IsTerminal reports whether err must not be retried: authentication and
// configuration failures, provider rejections, validation errors, an open
// circuit and caller cancellation. Everything else is retryable.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	switch domain.KindOf(err) {
	case domain.KindAuth, domain.KindConfig, domain.KindDomain:
		return true
	}
	if domain.IsValidation(err) || errors.Is(err, context.Canceled) || errors.Is(err, ErrCircuitOpen) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range terminalPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
