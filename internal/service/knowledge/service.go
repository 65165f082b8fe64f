package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"breakdown/internal/domain"
	"breakdown/internal/domain/services"
	"breakdown/internal/service/decomposition"
)

// knowledgeService implements the KnowledgeService interface
type knowledgeService struct {
	workspace *decomposition.Workspace
	generator *Generator
	logger    *slog.Logger
}

// NewService creates a new knowledge-card service
func NewService(workspace *decomposition.Workspace, generator *Generator, logger *slog.Logger) services.KnowledgeService {
	return &knowledgeService{workspace: workspace, generator: generator, logger: logger}
}

// GetCard returns the card for a node. An unavailable card is not an error.
func (s *knowledgeService) GetCard(ctx context.Context, userID, decompositionID, nodeID string, priority services.CardPriority) (*services.CardView, error) {
	p, err := ParsePriority(priority)
	if err != nil {
		return nil, err
	}
	sess, err := s.workspace.Get(decompositionID, userID)
	if err != nil {
		return nil, err
	}

	card, err := s.generator.GetCard(ctx, sess, nodeID, p)
	if errors.Is(err, domain.ErrCardUnavailable) {
		return &services.CardView{NodeID: nodeID, Available: false, Reason: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	names := ChildNames(sess.Node(nodeID))
	view := &services.CardView{NodeID: nodeID, Available: true, Card: card}
	for _, step := range card.Steps {
		view.Highlights = append(view.Highlights, Highlight(step.Description, names))
	}
	return view, nil
}

// Prefetch queues low-priority cards for every expanded node without one
func (s *knowledgeService) Prefetch(ctx context.Context, userID, decompositionID string) (int, error) {
	sess, err := s.workspace.Get(decompositionID, userID)
	if err != nil {
		return 0, err
	}
	n := s.generator.Prefetch(sess)
	s.logger.Info("card prefetch queued", "id", decompositionID, "nodes", n)
	return n, nil
}

// ParsePriority maps the API priority; empty means high.
func ParsePriority(p services.CardPriority) (Priority, error) {
	switch p {
	case "", services.CardPriorityHigh:
		return PriorityHigh, nil
	case services.CardPriorityLow:
		return PriorityLow, nil
	default:
		return 0, fmt.Errorf("%w: unknown priority %q", domain.ErrValidation, p)
	}
}
