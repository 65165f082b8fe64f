// Package service wires the domain services together for the server and
// the command-line tool.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"breakdown/internal/capabilities"
	"breakdown/internal/catalog"
	"breakdown/internal/config"
	"breakdown/internal/domain/repositories"
	"breakdown/internal/domain/services"
	"breakdown/internal/metrics"
	"breakdown/internal/service/decomposition"
	"breakdown/internal/service/imagesearch"
	"breakdown/internal/service/knowledge"
	"breakdown/internal/service/llm"
	"breakdown/internal/service/session"
)

// Services is the assembled service graph.
type Services struct {
	Capabilities   *capabilities.Registry
	Catalog        *catalog.Catalog
	Gateway        *llm.Gateway
	Workspace      *decomposition.Workspace
	Controller     *decomposition.Controller
	Identifier     *decomposition.Identifier
	Decorator      *decomposition.Decorator
	Generator      *knowledge.Generator
	Decompositions services.DecompositionService
	Knowledge      services.KnowledgeService
	// Sessions is nil when no repository is configured.
	Sessions services.SessionService
}

// RetryPolicy builds the completion retry policy from configuration.
func RetryPolicy(cfg *config.Config, logger *slog.Logger) llm.RetryPolicy {
	p := llm.DefaultRetryPolicy()
	if cfg.RetryAttempts > 0 {
		p.MaxAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBaseDelay > 0 {
		p.BaseDelay = cfg.RetryBaseDelay
	}
	p.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("completion failed, retrying", "attempt", attempt, "wait", wait, "error", err)
	}
	return p
}

// Searcher returns the Pexels client when a key is configured.
func Searcher(cfg *config.Config) imagesearch.Searcher {
	if cfg.PexelsAPIKey == "" {
		return imagesearch.Noop{}
	}
	return imagesearch.NewPexelsClient(cfg.PexelsAPIKey)
}

// Storage is the persistence backing saved sessions. A zero Storage
// disables them; Tx may be nil when the driver has no transactions.
type Storage struct {
	Sessions repositories.SessionRepository
	Tx       repositories.TransactionManager
}

// Setup builds every service.
func Setup(ctx context.Context, cfg *config.Config, storage Storage, m *metrics.Collector, logger *slog.Logger) (*Services, error) {
	caps, err := capabilities.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("load capabilities: %w", err)
	}
	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	gateway, err := llm.SetupGateway(ctx, cfg, caps, cat, m, logger)
	if err != nil {
		return nil, err
	}

	retry := RetryPolicy(cfg, logger)
	workspace := decomposition.NewWorkspace(cfg.WorkspaceTTL, m, logger)
	decorator := decomposition.NewDecorator(Searcher(cfg), m, logger)
	controller := decomposition.NewController(decomposition.ControllerConfig{
		Completer: gateway,
		Catalog:   cat,
		Retry:     retry,
		MaxDepth:  cfg.MaxDepth,
		Language:  cfg.OutputLanguage,
		Decorator: decorator,
		Metrics:   m,
		Logger:    logger,
	})
	identifier := decomposition.NewIdentifier(gateway, retry, cfg.OutputLanguage, logger)
	generator := knowledge.NewGenerator(gateway, knowledge.NewQueue(cfg.CardConcurrency, m), retry, cfg.OutputLanguage, m, logger)

	svc := &Services{
		Capabilities:   caps,
		Catalog:        cat,
		Gateway:        gateway,
		Workspace:      workspace,
		Controller:     controller,
		Identifier:     identifier,
		Decorator:      decorator,
		Generator:      generator,
		Decompositions: decomposition.NewService(workspace, controller, identifier, decorator, logger),
		Knowledge:      knowledge.NewService(workspace, generator, logger),
	}
	if storage.Sessions != nil {
		svc.Sessions = session.NewService(storage.Sessions, storage.Tx, workspace, logger)
	}

	logger.Info("services initialized",
		"max_depth", controller.MaxDepth(),
		"card_concurrency", cfg.CardConcurrency,
		"sessions", storage.Sessions != nil,
	)
	return svc, nil
}

// Wait blocks until background decoration and card jobs finish.
func (s *Services) Wait() {
	s.Decorator.Wait()
	s.Generator.Wait()
}
