package services

import (
	"context"

	models "breakdown/internal/domain/models/decomposition"
)

// StartDecompositionRequest starts a live decomposition around one item
type StartDecompositionRequest struct {
	ItemName       string                 `json:"item_name"`
	Description    string                 `json:"description,omitempty"`
	Icon           string                 `json:"icon,omitempty"`
	ImageURL       string                 `json:"image_url,omitempty"`
	PromptSettings *models.PromptSettings `json:"prompt_settings,omitempty"`
	Identification *models.Identification `json:"identification,omitempty"`
}

// DragRequest moves a node and its subtree
type DragRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// DecompositionView is what clients render: the tree plus its layout
type DecompositionView struct {
	ID             string                 `json:"id"`
	Tree           *models.NodeDocument   `json:"tree"`
	Layout         *models.Layout         `json:"layout"`
	TreeVersion    uint64                 `json:"tree_version"`
	PromptSettings *models.PromptSettings `json:"prompt_settings,omitempty"`
	Identification *models.Identification `json:"identification,omitempty"`
}

// ExpandView is the view after an expand call
type ExpandView struct {
	DecompositionView
	NodeID  string `json:"node_id"`
	Outcome string `json:"outcome"`
}

// DecompositionService defines operations on live decompositions
type DecompositionService interface {
	// Start creates a live decomposition with an unexpanded root
	Start(ctx context.Context, userID string, req *StartDecompositionRequest) (*DecompositionView, error)

	// Get returns the current view
	Get(ctx context.Context, userID, id string) (*DecompositionView, error)

	// Expand expands, toggles or caps a node
	Expand(ctx context.Context, userID, id, nodeID string) (*ExpandView, error)

	// Drag moves a node and all its descendants
	Drag(ctx context.Context, userID, id, nodeID string, req *DragRequest) (*DecompositionView, error)

	// Explode expands the whole subtree under nodeID, sending progress to events
	Explode(ctx context.Context, userID, id, nodeID string, events chan<- models.ExplodeEvent) error

	// Discard drops a live decomposition
	Discard(ctx context.Context, userID, id string) error

	// Identify names the object in a photo
	Identify(ctx context.Context, image []byte, mimeType string) (*models.Identification, error)
}
