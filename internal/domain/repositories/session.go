package repositories

import (
	"context"
	"time"

	"breakdown/internal/domain/models"
)

// SessionRepository defines data access operations for saved sessions
type SessionRepository interface {
	// Create inserts a session and fills in ID and timestamps
	Create(ctx context.Context, session *models.Session) error

	// GetByID retrieves a session by ID, scoped to its owner
	GetByID(ctx context.Context, id, userID string) (*models.Session, error)

	// ListByUser returns a user's sessions without snapshots, most recently used first
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)

	// Update replaces title, root summary and snapshot and bumps updated_at
	Update(ctx context.Context, session *models.Session) error

	// Touch sets last_accessed_at
	Touch(ctx context.Context, id, userID string, at time.Time) error

	// Delete removes a session
	Delete(ctx context.Context, id, userID string) error
}
