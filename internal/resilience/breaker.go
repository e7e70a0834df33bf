package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ferryhub/internal/domain"

	"github.com/sony/gobreaker"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	DefaultBreakerMaxRequests      uint32        = 1
	DefaultBreakerInterval         time.Duration = 60 * time.Second
	DefaultBreakerTimeout          time.Duration = 30 * time.Second
	DefaultBreakerFailureThreshold uint32        = 5
)

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      DefaultBreakerMaxRequests,
		Interval:         DefaultBreakerInterval,
		Timeout:          DefaultBreakerTimeout,
		FailureThreshold: DefaultBreakerFailureThreshold,
	}
}

// Breaker wraps gobreaker for one provider.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *slog.Logger
}

func NewBreaker(cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerFailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// Provider rejections and bad input say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || countsAsHealthy(err)
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), name: cfg.Name, logger: logger}
}

func countsAsHealthy(err error) bool {
	return domain.IsProviderDomain(err) || domain.IsValidation(err)
}

// Do runs fn through the breaker. When the breaker rejects the call the
// returned error wraps ErrCircuitOpen.
func (b *Breaker) Do(fn func() error) error {
	if b == nil {
		return fn()
	}
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Warn("circuit breaker rejected call", "name", b.name)
		return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}
	return err
}

func (b *Breaker) State() string {
	if b == nil {
		return gobreaker.StateClosed.String()
	}
	return b.cb.State().String()
}
