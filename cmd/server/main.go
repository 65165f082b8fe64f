package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"breakdown/internal/auth"
	"breakdown/internal/config"
	"breakdown/internal/handler"
	"breakdown/internal/metrics"
	"breakdown/internal/middleware"
	"breakdown/internal/repository/postgres"
	"breakdown/internal/repository/sqlite"
	"breakdown/internal/service"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.SetupLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"storage", cfg.StorageDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector("breakdown")

	storage, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open session storage: %v", err)
	}
	defer closeStorage()

	svc, err := service.Setup(ctx, cfg, storage, collector, logger)
	if err != nil {
		log.Fatalf("Failed to setup services: %v", err)
	}

	go svc.Workspace.Run(ctx, time.Minute)

	handlers := handler.Handlers{
		Decompositions: handler.NewDecompositionHandler(svc.Decompositions, nil, logger),
		Knowledge:      handler.NewKnowledgeHandler(svc.Knowledge, logger),
		Models:         handler.NewModelsHandler(cfg, logger, svc.Capabilities),
	}
	if svc.Sessions != nil {
		handlers.Sessions = handler.NewSessionHandler(svc.Sessions, logger)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handlers)
	mux.Handle("GET /metrics", collector.Handler())

	// Order: CORS → Recovery → Auth → Metrics → Routes
	var h http.Handler = middleware.Metrics(collector)(mux)

	if cfg.AuthDisabled {
		logger.Warn("AUTH DISABLED: every request runs as the dev user", "user_id", cfg.DevUserID)
		h = middleware.DevAuthMiddleware(cfg.DevUserID)(h)
	} else {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	}

	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}

	svc.Wait()
	logger.Info("server stopped")
}

// openStorage picks the storage driver. "none" disables saved sessions.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Storage, func(), error) {
	switch cfg.StorageDriver {
	case "none":
		logger.Warn("saved sessions disabled")
		return service.Storage{}, func() {}, nil

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return service.Storage{}, nil, err
		}
		logger.Info("sqlite storage ready", "path", cfg.SQLitePath)
		return service.Storage{Sessions: sqlite.NewSessionRepository(db, logger)}, func() { db.Close() }, nil

	default:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			return service.Storage{}, nil, err
		}
		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		if err := postgres.EnsureSchema(ctx, repoConfig); err != nil {
			pool.Close()
			return service.Storage{}, nil, err
		}
		logger.Info("database connected", "max_conns", 25, "min_conns", 5)
		return service.Storage{
			Sessions: postgres.NewSessionRepository(repoConfig),
			Tx:       postgres.NewTransactionManager(repoConfig),
		}, pool.Close, nil
	}
}
