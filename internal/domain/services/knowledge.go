package services

import (
	"context"

	models "breakdown/internal/domain/models/decomposition"
)

// CardPriority orders card generation jobs
type CardPriority string

const (
	CardPriorityHigh CardPriority = "high"
	CardPriorityLow  CardPriority = "low"
)

// CardView is a knowledge card with highlight segments per step.
// Available is false when no card could be produced.
type CardView struct {
	NodeID     string                 `json:"node_id"`
	Available  bool                   `json:"available"`
	Card       *models.KnowledgeCard  `json:"card,omitempty"`
	Highlights [][]models.TextSegment `json:"highlights,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
}

// KnowledgeService defines knowledge-card operations
type KnowledgeService interface {
	// GetCard returns the card for a node, generating it if needed
	GetCard(ctx context.Context, userID, decompositionID, nodeID string, priority CardPriority) (*CardView, error)

	// Prefetch queues low-priority cards for every expanded node without one
	Prefetch(ctx context.Context, userID, decompositionID string) (int, error)
}
