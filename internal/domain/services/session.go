package services

import (
	"context"

	"breakdown/internal/domain/models"
)

// SaveSessionRequest persists a live decomposition
type SaveSessionRequest struct {
	DecompositionID string `json:"decomposition_id"`
	Title           string `json:"title,omitempty"`
}

// LoadedSession is a saved session rehydrated into a live decomposition
type LoadedSession struct {
	Session       *models.Session    `json:"session"`
	Decomposition *DecompositionView `json:"decomposition"`
}

// SessionService defines operations on saved sessions
type SessionService interface {
	// Save snapshots a live decomposition into a new session
	Save(ctx context.Context, userID string, req *SaveSessionRequest) (*models.Session, error)

	// List returns the user's sessions without snapshots
	List(ctx context.Context, userID string) ([]models.Session, error)

	// Load rehydrates a session and marks it accessed
	Load(ctx context.Context, userID, id string) (*LoadedSession, error)

	// Update re-snapshots a live decomposition into an existing session
	Update(ctx context.Context, userID, id string, req *SaveSessionRequest) (*models.Session, error)

	// Delete removes a session
	Delete(ctx context.Context, userID, id string) error
}
