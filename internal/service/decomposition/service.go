package decomposition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"breakdown/internal/config"
	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/domain/services"
)

// decompositionService implements the DecompositionService interface
type decompositionService struct {
	workspace   *Workspace
	controller  *Controller
	identifier  *Identifier
	decorator   *Decorator
	parallelism int
	logger      *slog.Logger
}

// NewService creates a new decomposition service
func NewService(
	workspace *Workspace,
	controller *Controller,
	identifier *Identifier,
	decorator *Decorator,
	logger *slog.Logger,
) services.DecompositionService {
	return &decompositionService{
		workspace:   workspace,
		controller:  controller,
		identifier:  identifier,
		decorator:   decorator,
		parallelism: DefaultExplodeParallelism,
		logger:      logger,
	}
}

// Start creates a live decomposition with an unexpanded root
func (s *decompositionService) Start(ctx context.Context, userID string, req *services.StartDecompositionRequest) (*services.DecompositionView, error) {
	if err := validateStartRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	root := NewRootNode(strings.TrimSpace(req.ItemName), strings.TrimSpace(req.Description), req.Icon)
	if req.Identification != nil {
		root.SearchTerm = req.Identification.SearchTerm
		if root.Icon == "" {
			root.Icon = req.Identification.Icon
		}
	}
	root.ImageURL = req.ImageURL

	sess := NewSession(userID, root, req.PromptSettings, req.Identification)
	s.workspace.Put(sess)
	s.decorator.Decorate(sess, []*models.Node{root})

	s.logger.Info("decomposition started",
		"id", sess.ID,
		"item", root.Name,
		"user_id", userID,
	)
	return View(sess), nil
}

// Get returns the current view
func (s *decompositionService) Get(ctx context.Context, userID, id string) (*services.DecompositionView, error) {
	sess, err := s.workspace.Get(id, userID)
	if err != nil {
		return nil, err
	}
	return View(sess), nil
}

// Expand expands, toggles or caps a node
func (s *decompositionService) Expand(ctx context.Context, userID, id, nodeID string) (*services.ExpandView, error) {
	sess, err := s.workspace.Get(id, userID)
	if err != nil {
		return nil, err
	}
	res, err := s.controller.Expand(ctx, sess, nodeID)
	if err != nil {
		return nil, err
	}
	return &services.ExpandView{
		DecompositionView: *View(sess),
		NodeID:            nodeID,
		Outcome:           string(res.Outcome),
	}, nil
}

// Drag moves a node and all its descendants
func (s *decompositionService) Drag(ctx context.Context, userID, id, nodeID string, req *services.DragRequest) (*services.DecompositionView, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: missing body", domain.ErrValidation)
	}
	sess, err := s.workspace.Get(id, userID)
	if err != nil {
		return nil, err
	}
	if err := sess.Drag(nodeID, req.DX, req.DY); err != nil {
		return nil, err
	}
	return View(sess), nil
}

// Explode expands the whole subtree under nodeID
func (s *decompositionService) Explode(ctx context.Context, userID, id, nodeID string, events chan<- models.ExplodeEvent) error {
	sess, err := s.workspace.Get(id, userID)
	if err != nil {
		return err
	}
	if nodeID == "" {
		nodeID = sess.Root().ID
	}
	s.logger.Info("explode started", "id", id, "node_id", nodeID)
	return s.controller.Explode(ctx, sess, nodeID, s.parallelism, events)
}

// Discard drops a live decomposition
func (s *decompositionService) Discard(ctx context.Context, userID, id string) error {
	if err := s.workspace.Remove(id, userID); err != nil {
		return err
	}
	s.logger.Info("decomposition discarded", "id", id, "user_id", userID)
	return nil
}

// Identify names the object in a photo
func (s *decompositionService) Identify(ctx context.Context, image []byte, mimeType string) (*models.Identification, error) {
	if len(image) > config.MaxUploadBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrValidation, config.MaxUploadBytes)
	}
	return s.identifier.Identify(ctx, image, mimeType)
}

// View renders a session for clients.
func View(sess *Session) *services.DecompositionView {
	tree, _ := sess.Versions()
	return &services.DecompositionView{
		ID:             sess.ID,
		Tree:           models.ToDocument(sess.Root()),
		Layout:         sess.Layout(),
		TreeVersion:    tree,
		PromptSettings: sess.PromptSettings(),
		Identification: sess.Identification(),
	}
}

func validateStartRequest(req *services.StartDecompositionRequest) error {
	if req == nil {
		return fmt.Errorf("missing body")
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ItemName,
			validation.Required,
			validation.By(notBlank),
			validation.RuneLength(1, config.MaxItemNameLength),
		),
		validation.Field(&req.Description, validation.RuneLength(0, config.MaxItemDescriptionLength)),
	); err != nil {
		return err
	}
	return ValidatePromptSettings(req.PromptSettings)
}

// ValidatePromptSettings checks slider ranges and the custom template.
func ValidatePromptSettings(p *models.PromptSettings) error {
	if p == nil {
		return nil
	}
	return validation.ValidateStruct(p,
		validation.Field(&p.Humor, validation.Min(0), validation.Max(100)),
		validation.Field(&p.Professional, validation.Min(0), validation.Max(100)),
		validation.Field(&p.CustomTemplate,
			validation.When(p.UseCustom, validation.Required, validation.By(hasItemPlaceholder)),
			validation.RuneLength(0, config.MaxCustomTemplateLength),
		),
	)
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be blank")
	}
	return nil
}

func hasItemPlaceholder(value interface{}) error {
	s, _ := value.(string)
	if !strings.Contains(s, "{{ITEM}}") {
		return fmt.Errorf("must contain {{ITEM}}")
	}
	return nil
}
