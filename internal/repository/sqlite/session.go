package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"breakdown/internal/domain"
	"breakdown/internal/domain/models"
	"breakdown/internal/domain/repositories"
)

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SessionRepository implements repositories.SessionRepository on SQLite
type SessionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB, logger *slog.Logger) repositories.SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	created := formatTime(session.CreatedAt)
	updated := formatTime(session.UpdatedAt)
	accessed := formatTime(session.LastAccessedAt)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, title, root_object_name, root_object_icon, root_object_image,
			snapshot, created_at, updated_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Title,
		session.RootObjectName,
		session.RootObjectIcon,
		session.RootObjectImage,
		string(session.Snapshot),
		created,
		updated,
		accessed,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	session.CreatedAt, _ = parseTime(created)
	session.UpdatedAt, _ = parseTime(updated)
	session.LastAccessedAt, _ = parseTime(accessed)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner, withSnapshot bool) (*models.Session, error) {
	var (
		session                    models.Session
		image                      sql.NullString
		snapshot                   string
		created, updated, accessed string
	)
	dest := []any{
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.RootObjectName,
		&session.RootObjectIcon,
		&image,
	}
	if withSnapshot {
		dest = append(dest, &snapshot)
	}
	dest = append(dest, &created, &updated, &accessed)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if image.Valid {
		session.RootObjectImage = &image.String
	}
	if withSnapshot {
		session.Snapshot = []byte(snapshot)
	}

	var err error
	if session.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if session.LastAccessedAt, err = parseTime(accessed); err != nil {
		return nil, fmt.Errorf("parse last_accessed_at: %w", err)
	}
	return &session, nil
}

// GetByID retrieves a session including its snapshot
func (r *SessionRepository) GetByID(ctx context.Context, id, userID string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, root_object_name, root_object_icon, root_object_image,
			snapshot, created_at, updated_at, last_accessed_at
		FROM sessions
		WHERE id = ? AND user_id = ?`, id, userID)

	session, err := scanSession(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListByUser retrieves session summaries, most recently accessed first
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, root_object_name, root_object_icon, root_object_image,
			created_at, updated_at, last_accessed_at
		FROM sessions
		WHERE user_id = ?
		ORDER BY last_accessed_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		session, err := scanSession(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Update replaces the snapshot and summary of a session
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	updated := formatTime(session.UpdatedAt)
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET title = ?, root_object_name = ?, root_object_icon = ?, root_object_image = ?,
			snapshot = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		session.Title,
		session.RootObjectName,
		session.RootObjectIcon,
		session.RootObjectImage,
		string(session.Snapshot),
		updated,
		session.ID,
		session.UserID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if err := requireAffected(result, session.ID); err != nil {
		return err
	}
	session.UpdatedAt, _ = parseTime(updated)
	return nil
}

// Touch records that a session was opened
func (r *SessionRepository) Touch(ctx context.Context, id, userID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_accessed_at = ? WHERE id = ? AND user_id = ?`,
		formatTime(at), id, userID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return requireAffected(result, id)
}

// Delete deletes a session
func (r *SessionRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return err
	}
	r.logger.Debug("session row deleted", "id", id)
	return nil
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
