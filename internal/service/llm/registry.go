package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/metrics"
)

// BackendFactory builds a raw backend by provider name.
type BackendFactory interface {
	NewBackend(ctx context.Context, provider string) (domainllm.Backend, error)
}

// ProviderRegistry caches one breaker-wrapped backend per provider so the
// text and vision routes share a circuit when they use the same provider.
type ProviderRegistry struct {
	factory BackendFactory
	breaker BreakerConfig
	logger  *slog.Logger
	metrics *metrics.Collector

	cache map[string]*BreakerBackend
	mu    sync.RWMutex
}

func NewProviderRegistry(factory BackendFactory, breaker BreakerConfig, logger *slog.Logger, m *metrics.Collector) *ProviderRegistry {
	return &ProviderRegistry{
		factory: factory,
		breaker: breaker,
		logger:  logger,
		metrics: m,
		cache:   make(map[string]*BreakerBackend),
	}
}

// GetBackend returns the cached backend for provider, creating it on first use.
func (r *ProviderRegistry) GetBackend(ctx context.Context, provider string) (*BreakerBackend, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	// Fast path: check cache with read lock
	r.mu.RLock()
	if cached, exists := r.cache[provider]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created it while we waited for the lock
	if cached, exists := r.cache[provider]; exists {
		return cached, nil
	}

	backend, err := r.factory.NewBackend(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", provider, err)
	}

	wrapped := NewBreakerBackend(backend, r.breaker, r.logger, r.metrics)
	r.cache[provider] = wrapped
	return wrapped, nil
}
