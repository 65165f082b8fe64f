package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"breakdown/internal/capabilities"
	"breakdown/internal/domain"
	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/metrics"
	"breakdown/internal/service/llm/providers"
)

const (
	DefaultTextTimeout     = 90 * time.Second
	DefaultVisionTimeout   = 120 * time.Second
	DefaultTextMaxTokens   = 2000
	DefaultVisionMaxTokens = 1000
	DefaultTemperature     = 0.8
)

// Route binds a modality to a backend and model.
type Route struct {
	Provider string
	Model    string
	Backend  domainllm.Backend
	Timeout  time.Duration

	caps *capabilities.ModelCapabilities
}

type GatewayConfig struct {
	Text   Route
	Vision Route

	Limiter      *Limiter
	Capabilities *capabilities.Registry // optional; nil skips capability checks
	Metrics      *metrics.Collector
	Logger       *slog.Logger
}

// Gateway is the single entry point for completion calls. It applies the
// per-modality timeout and the shared call ceiling, and reports errors as
// ProviderError, TransportError or TimeoutError. It does not retry.
type Gateway struct {
	text    Route
	vision  Route
	limiter *Limiter
	metrics *metrics.Collector
	logger  *slog.Logger
}

func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.Text.Backend == nil {
		return nil, fmt.Errorf("text backend is required")
	}
	if cfg.Vision.Backend == nil {
		cfg.Vision = cfg.Text
		cfg.Vision.caps = nil
	}
	if cfg.Text.Timeout <= 0 {
		cfg.Text.Timeout = DefaultTextTimeout
	}
	if cfg.Vision.Timeout <= 0 {
		cfg.Vision.Timeout = DefaultVisionTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Capabilities != nil {
		for _, r := range []*Route{&cfg.Text, &cfg.Vision} {
			caps, err := cfg.Capabilities.GetModelCapabilities(r.Provider, r.Model)
			if err != nil {
				return nil, fmt.Errorf("route %s/%s: %w", r.Provider, r.Model, err)
			}
			r.caps = caps
		}
		if !cfg.Vision.caps.SupportsVision {
			cfg.Logger.Warn("vision route model does not support images; identification will fail",
				"provider", cfg.Vision.Provider,
				"model", cfg.Vision.Model,
			)
		}
	}

	return &Gateway{
		text:    cfg.Text,
		vision:  cfg.Vision,
		limiter: cfg.Limiter,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}, nil
}

// TextComplete implements domainllm.Completer.
func (g *Gateway) TextComplete(ctx context.Context, prompt string) (string, error) {
	return g.Complete(ctx, &domainllm.CompletionRequest{
		Modality: domainllm.ModalityText,
		Prompt:   prompt,
	})
}

// VisionComplete implements domainllm.Completer.
func (g *Gateway) VisionComplete(ctx context.Context, image domainllm.Image, prompt string) (string, error) {
	return g.Complete(ctx, &domainllm.CompletionRequest{
		Modality: domainllm.ModalityVision,
		Prompt:   prompt,
		Image:    &image,
	})
}

// Complete routes the request by modality and returns the raw model text.
func (g *Gateway) Complete(ctx context.Context, req *domainllm.CompletionRequest) (string, error) {
	route := g.text
	if req.Modality == domainllm.ModalityVision {
		route = g.vision
		if req.Image == nil || len(req.Image.Data) == 0 {
			return "", fmt.Errorf("%w: vision request without image", domain.ErrValidation)
		}
		if route.caps != nil && !route.caps.SupportsVision {
			return "", fmt.Errorf("%w: model %s does not accept images", domain.ErrValidation, route.Model)
		}
	}

	prepared := g.prepare(req, route)

	callCtx, cancel := context.WithTimeout(ctx, route.Timeout)
	defer cancel()

	start := time.Now()
	release, err := g.limiter.Acquire(callCtx)
	if err != nil {
		return "", g.finish(ctx, callCtx, route, req.Modality, start, err)
	}
	defer release()

	text, err := route.Backend.Complete(callCtx, prepared)
	if err != nil {
		return "", g.finish(ctx, callCtx, route, req.Modality, start, err)
	}

	g.metrics.ObserveCompletion(route.Provider, string(req.Modality), "ok", time.Since(start))
	g.logger.Debug("completion finished",
		"provider", route.Provider,
		"modality", req.Modality,
		"duration_ms", time.Since(start).Milliseconds(),
		"chars", len(text),
	)
	return text, nil
}

// prepare copies the request and fills in route defaults.
func (g *Gateway) prepare(req *domainllm.CompletionRequest, route Route) *domainllm.CompletionRequest {
	out := *req
	out.Model = route.Model
	if out.System == "" {
		out.System = providers.SystemPrompt
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = DefaultTextMaxTokens
		if req.Modality == domainllm.ModalityVision {
			out.MaxTokens = DefaultVisionMaxTokens
		}
	}
	if route.caps != nil {
		if route.caps.MaxOutput > 0 && out.MaxTokens > route.caps.MaxOutput {
			out.MaxTokens = route.caps.MaxOutput
		}
		out.JSONMode = route.caps.SupportsJSONMode
	}
	if out.Temperature == nil && req.Modality == domainllm.ModalityText {
		temp := DefaultTemperature
		out.Temperature = &temp
	}
	return &out
}

// finish classifies a failed call. Our own deadline becomes TimeoutError;
// caller cancellation is passed through untouched.
func (g *Gateway) finish(parent, callCtx context.Context, route Route, modality domainllm.Modality, start time.Time, err error) error {
	elapsed := time.Since(start)

	var outcome string
	switch {
	case parent.Err() != nil:
		outcome = "canceled"
		err = parent.Err()
	case errors.Is(callCtx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
		err = &domain.TimeoutError{Provider: route.Provider, Modality: string(modality), After: route.Timeout}
	default:
		outcome = classify(err)
		if outcome == "other" {
			if errors.Is(err, domain.ErrValidation) {
				outcome = "rejected"
			} else {
				err = &domain.TransportError{Provider: route.Provider, Err: err}
				outcome = "transport"
			}
		}
	}

	g.metrics.ObserveCompletion(route.Provider, string(modality), outcome, elapsed)
	g.logger.Warn("completion failed",
		"provider", route.Provider,
		"modality", modality,
		"outcome", outcome,
		"duration_ms", elapsed.Milliseconds(),
		"error", err,
	)
	return err
}

func classify(err error) string {
	var provErr *domain.ProviderError
	var transErr *domain.TransportError
	var timeoutErr *domain.TimeoutError
	switch {
	case errors.As(err, &provErr):
		return "provider"
	case errors.As(err, &transErr):
		return "transport"
	case errors.As(err, &timeoutErr):
		return "timeout"
	default:
		return "other"
	}
}
