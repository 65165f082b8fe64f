package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the sessions table and its index if missing.
func EnsureSchema(ctx context.Context, config *RepositoryConfig) error {
	stmts := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			title TEXT NOT NULL,
			root_object_name TEXT NOT NULL,
			root_object_icon TEXT NOT NULL DEFAULT '',
			root_object_image TEXT,
			snapshot JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_accessed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, config.Tables.Sessions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_user_accessed_idx ON %s (user_id, last_accessed_at DESC)`,
			config.Tables.Sessions, config.Tables.Sessions),
	}

	for _, stmt := range stmts {
		if _, err := config.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	config.Logger.Debug("schema ready", "table", config.Tables.Sessions)
	return nil
}
