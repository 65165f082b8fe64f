package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"breakdown/internal/config"
	"breakdown/internal/domain"
	"breakdown/internal/domain/models"
	treemodels "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/domain/repositories"
	"breakdown/internal/domain/services"
	"breakdown/internal/service/decomposition"
)

// sessionService implements the SessionService interface
type sessionService struct {
	repo      repositories.SessionRepository
	tx        repositories.TransactionManager
	workspace *decomposition.Workspace
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new saved-session service. tx may be nil.
func NewService(
	repo repositories.SessionRepository,
	tx repositories.TransactionManager,
	workspace *decomposition.Workspace,
	logger *slog.Logger,
) services.SessionService {
	return &sessionService{
		repo:      repo,
		tx:        tx,
		workspace: workspace,
		logger:    logger,
		now:       time.Now,
	}
}

// Save snapshots a live decomposition into a new session
func (s *sessionService) Save(ctx context.Context, userID string, req *services.SaveSessionRequest) (*models.Session, error) {
	if err := validateSaveRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	live, err := s.workspace.Get(req.DecompositionID, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &models.Session{
		UserID:         userID,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
	}
	if err := fill(record, live, req.Title); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("session saved",
		"id", record.ID,
		"decomposition_id", live.ID,
		"user_id", userID,
	)
	return record, nil
}

// List returns session summaries
func (s *sessionService) List(ctx context.Context, userID string) ([]models.Session, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Load rehydrates a saved session into the workspace
func (s *sessionService) Load(ctx context.Context, userID, id string) (*services.LoadedSession, error) {
	record, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrForbidden)
	}

	var snap treemodels.Snapshot
	if err := json.Unmarshal(record.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("%w: corrupt snapshot: %v", domain.ErrValidation, err)
	}
	live, err := decomposition.Rehydrate(&snap, userID)
	if err != nil {
		return nil, err
	}
	s.workspace.Put(live)

	now := s.now()
	if err := s.repo.Touch(ctx, id, userID, now); err != nil {
		// Loading still succeeded; the list order is only slightly stale.
		s.logger.Warn("touch session failed", "id", id, "error", err)
	} else {
		record.LastAccessedAt = now
	}

	s.logger.Info("session loaded",
		"id", id,
		"decomposition_id", live.ID,
		"nodes", treemodels.Count(live.Root()),
	)

	record.Snapshot = nil
	return &services.LoadedSession{
		Session:       record,
		Decomposition: decomposition.View(live),
	}, nil
}

// Update re-snapshots a live decomposition into an existing session
func (s *sessionService) Update(ctx context.Context, userID, id string, req *services.SaveSessionRequest) (*models.Session, error) {
	if err := validateSaveRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	live, err := s.workspace.Get(req.DecompositionID, userID)
	if err != nil {
		return nil, err
	}

	var record *models.Session
	err = s.inTx(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.repo.GetByID(ctx, id, userID)
		if err != nil {
			return err
		}
		if record.UserID != userID {
			return fmt.Errorf("session %s: %w", id, domain.ErrForbidden)
		}

		title := req.Title
		if strings.TrimSpace(title) == "" {
			title = record.Title
		}
		if err := fill(record, live, title); err != nil {
			return err
		}
		record.UpdatedAt = s.now()
		return s.repo.Update(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session updated", "id", id, "decomposition_id", live.ID)
	return record, nil
}

// Delete removes a saved session
func (s *sessionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info("session deleted", "id", id, "user_id", userID)
	return nil
}

// inTx runs fn in a transaction when the store supports one.
func (s *sessionService) inTx(ctx context.Context, fn repositories.TxFn) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.ExecTx(ctx, fn)
}

// fill copies the snapshot and root summary of live into record.
func fill(record *models.Session, live *decomposition.Session, title string) error {
	snap := live.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	root := live.Root()
	title = strings.TrimSpace(title)
	if title == "" {
		title = root.Name
	}
	record.Title = title
	record.RootObjectName = root.Name
	record.RootObjectIcon = root.Icon
	record.RootObjectImage = nil
	if root.ImageURL != "" {
		image := root.ImageURL
		record.RootObjectImage = &image
	}
	record.Snapshot = data
	return nil
}

func validateSaveRequest(req *services.SaveSessionRequest) error {
	if req == nil {
		return fmt.Errorf("missing body")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.DecompositionID, validation.Required),
		validation.Field(&req.Title, validation.RuneLength(0, config.MaxSessionTitleLength)),
	)
}
