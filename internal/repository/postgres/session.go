package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"breakdown/internal/domain"
	"breakdown/internal/domain/models"
	"breakdown/internal/domain/repositories"
)

// PostgresSessionRepository implements the SessionRepository interface
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(config *RepositoryConfig) repositories.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new session
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, title, root_object_name, root_object_icon, root_object_image,
			snapshot, created_at, updated_at, last_accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at, last_accessed_at
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		session.UserID,
		session.Title,
		session.RootObjectName,
		session.RootObjectIcon,
		session.RootObjectImage,
		[]byte(session.Snapshot),
		session.CreatedAt,
		session.UpdatedAt,
		session.LastAccessedAt,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt, &session.LastAccessedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("session '%s' already exists", session.Title),
				ResourceType: "session",
			}
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session including its snapshot
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id, userID string) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, root_object_name, root_object_icon, root_object_image,
			snapshot, created_at, updated_at, last_accessed_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Sessions)

	var session models.Session
	var snapshot []byte
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.RootObjectName,
		&session.RootObjectIcon,
		&session.RootObjectImage,
		&snapshot,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.LastAccessedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	session.Snapshot = snapshot
	return &session, nil
}

// ListByUser retrieves session summaries ordered by last_accessed_at DESC
func (r *PostgresSessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, root_object_name, root_object_icon, root_object_image,
			created_at, updated_at, last_accessed_at
		FROM %s
		WHERE user_id = $1
		ORDER BY last_accessed_at DESC
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.Title,
			&session.RootObjectName,
			&session.RootObjectIcon,
			&session.RootObjectImage,
			&session.CreatedAt,
			&session.UpdatedAt,
			&session.LastAccessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	if sessions == nil {
		sessions = []models.Session{}
	}

	return sessions, nil
}

// Update replaces the snapshot and summary of a session
func (r *PostgresSessionRepository) Update(ctx context.Context, session *models.Session) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, root_object_name = $2, root_object_icon = $3, root_object_image = $4,
			snapshot = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		session.Title,
		session.RootObjectName,
		session.RootObjectIcon,
		session.RootObjectImage,
		[]byte(session.Snapshot),
		session.UpdatedAt,
		session.ID,
		session.UserID,
	)
	if err != nil {
		if IsPgInvalidTextError(err) {
			return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
	}

	return nil
}

// Touch records that a session was opened
func (r *PostgresSessionRepository) Touch(ctx context.Context, id, userID string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET last_accessed_at = $1
		WHERE id = $2 AND user_id = $3
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, at, id, userID)
	if err != nil {
		if IsPgInvalidTextError(err) {
			return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("touch session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a session
func (r *PostgresSessionRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Sessions)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		if IsPgInvalidTextError(err) {
			return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	r.logger.Debug("session row deleted", "id", id)
	return nil
}
