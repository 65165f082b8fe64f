package llm

import (
	"context"
	"fmt"
	"log/slog"

	"breakdown/internal/capabilities"
	"breakdown/internal/catalog"
	"breakdown/internal/config"
	"breakdown/internal/metrics"
)

// SetupGateway wires the provider registry, the shared limiter and the
// capability checks into a Gateway for the configured text and vision routes.
func SetupGateway(ctx context.Context, cfg *config.Config, caps *capabilities.Registry, c *catalog.Catalog, m *metrics.Collector, logger *slog.Logger) (*Gateway, error) {
	registry := NewProviderRegistry(NewProviderFactory(cfg, c), DefaultBreakerConfig(), logger, m)

	textBackend, err := registry.GetBackend(ctx, cfg.TextProvider)
	if err != nil {
		return nil, fmt.Errorf("text provider: %w", err)
	}
	visionBackend, err := registry.GetBackend(ctx, cfg.VisionProvider)
	if err != nil {
		return nil, fmt.Errorf("vision provider: %w", err)
	}

	gateway, err := NewGateway(GatewayConfig{
		Text: Route{
			Provider: cfg.TextProvider,
			Model:    cfg.TextModel,
			Backend:  textBackend,
			Timeout:  cfg.TextTimeout,
		},
		Vision: Route{
			Provider: cfg.VisionProvider,
			Model:    cfg.VisionModel,
			Backend:  visionBackend,
			Timeout:  cfg.VisionTimeout,
		},
		Limiter:      NewLimiter(cfg.LLMMaxConcurrent, cfg.LLMRatePerSecond),
		Capabilities: caps,
		Metrics:      m,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("completion gateway ready",
		"text_provider", cfg.TextProvider,
		"text_model", cfg.TextModel,
		"vision_provider", cfg.VisionProvider,
		"vision_model", cfg.VisionModel,
		"max_concurrent", cfg.LLMMaxConcurrent,
	)
	return gateway, nil
}
