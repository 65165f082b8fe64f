package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"breakdown/internal/domain"
	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/metrics"
)

// BreakerConfig holds configuration for a backend circuit breaker
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips at 60% failures over at least 5 calls and
// probes again after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerBackend wraps a Backend with a circuit breaker. An open circuit is
// reported as a 503 ProviderError so callers back off through the normal
// retry path.
type BreakerBackend struct {
	backend domainllm.Backend
	cb      *gobreaker.CircuitBreaker
}

func NewBreakerBackend(backend domainllm.Backend, cfg BreakerConfig, logger *slog.Logger, m *metrics.Collector) *BreakerBackend {
	name := backend.Name()
	m.SetCircuitState(name, 0)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"backend", name,
				"from", from.String(),
				"to", to.String(),
			)
			m.SetCircuitState(name, float64(to))
		},
		IsSuccessful: countsAsSuccess,
	})

	return &BreakerBackend{backend: backend, cb: cb}
}

func (b *BreakerBackend) Name() string {
	return b.backend.Name()
}

func (b *BreakerBackend) Complete(ctx context.Context, req *domainllm.CompletionRequest) (string, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.backend.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &domain.ProviderError{
				Provider: b.backend.Name(),
				Status:   503,
				Message:  "circuit breaker " + b.cb.State().String(),
			}
		}
		return "", err
	}
	return out.(string), nil
}

// State exposes the breaker state for health reporting.
func (b *BreakerBackend) State() gobreaker.State {
	return b.cb.State()
}

// countsAsSuccess decides which errors count against the backend. Caller
// cancellation and client-side rejections are not the backend's fault.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrValidation) {
		return true
	}
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		return provErr.Status >= 400 && provErr.Status < 500 && provErr.Status != 408 && provErr.Status != 429
	}
	return false
}
