package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"breakdown/internal/config"
	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/domain/services"
	"breakdown/internal/repository/postgres"
	"breakdown/internal/service"
)

const defaultItems = "自行车,台灯,智能手机"

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed sessions")
	clearData := flag.Bool("clear-data", false, "Clear the dev user's sessions (keep schema)")
	items := flag.String("items", defaultItems, "Comma-separated items to explode and save")
	depth := flag.Int("depth", 3, "Maximum decomposition depth for seeded trees")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	switch {
	case *clearData:
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	case *schemaOnly:
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	default:
		log.Printf("🌱 Seeding sessions (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, repoConfig.Tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, repoConfig); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		log.Println("🧹 Clearing existing sessions...")
		if err := clearUserSessions(ctx, pool, repoConfig.Tables, cfg.DevUserID); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Seeded trees come from the offline backend so no API key is needed.
	cfg.TextProvider, cfg.TextModel = "offline", "offline-fixture"
	cfg.VisionProvider, cfg.VisionModel = "offline", "offline-fixture"
	cfg.PexelsAPIKey = ""
	cfg.MaxDepth = *depth

	svc, err := service.Setup(ctx, cfg, service.Storage{
		Sessions: postgres.NewSessionRepository(repoConfig),
		Tx:       postgres.NewTransactionManager(repoConfig),
	}, nil, logger)
	if err != nil {
		log.Fatalf("Failed to setup services: %v", err)
	}

	log.Println("⚠️  Clearing existing sessions...")
	if err := clearUserSessions(ctx, pool, repoConfig.Tables, cfg.DevUserID); err != nil {
		log.Printf("Warning: Could not clear data: %v", err)
	}

	names := splitItems(*items)
	for i, name := range names {
		id, err := seedSession(ctx, svc, cfg.DevUserID, name)
		if err != nil {
			log.Printf("❌ Failed to seed '%s': %v", name, err)
			continue
		}
		log.Printf("✅ Created session %d/%d: %s (ID: %s)", i+1, len(names), name, id)
	}
	svc.Wait()

	log.Println("🎉 Seeding complete!")
}

// seedSession explodes one item fully and saves it for userID.
func seedSession(ctx context.Context, svc *service.Services, userID, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	view, err := svc.Decompositions.Start(ctx, userID, &services.StartDecompositionRequest{ItemName: name})
	if err != nil {
		return "", err
	}
	defer func() { _ = svc.Decompositions.Discard(context.Background(), userID, view.ID) }()

	events := make(chan models.ExplodeEvent, 16)
	go func() {
		for range events {
		}
	}()
	err = svc.Decompositions.Explode(ctx, userID, view.ID, "", events)
	close(events)
	if err != nil {
		return "", err
	}

	saved, err := svc.Sessions.Save(ctx, userID, &services.SaveSessionRequest{DecompositionID: view.ID})
	if err != nil {
		return "", err
	}
	return saved.ID, nil
}

// dropAllTables drops every table owned by this environment
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.Sessions} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}
	return nil
}

// clearUserSessions removes all saved sessions for a user
func clearUserSessions(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, userID string) error {
	_, err := pool.Exec(ctx, "DELETE FROM "+tables.Sessions+" WHERE user_id = $1", userID)
	return err
}

func splitItems(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
