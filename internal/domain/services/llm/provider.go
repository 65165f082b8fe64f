package llm

import (
	"context"
)

// Modality selects text-only or image+text completion.
type Modality string

const (
	ModalityText   Modality = "text"
	ModalityVision Modality = "vision"
)

// Image is an inline image payload for vision requests.
type Image struct {
	Data     []byte
	MIMEType string
}

// CompletionRequest is a single-turn prompt sent to a backend.
type CompletionRequest struct {
	Modality Modality
	Prompt   string
	System   string
	Image    *Image // required for ModalityVision

	// Filled in by the gateway from its route before the backend sees them.
	Model       string
	MaxTokens   int
	Temperature *float64
	JSONMode    bool
}

// Backend is one concrete completion provider. Implementations return the
// raw model text and never retry.
//
// Errors should be *domain.ProviderError for non-success statuses and
// *domain.TransportError for network failures. Context errors may be
// returned unchanged; the gateway turns its own deadline into a timeout.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req *CompletionRequest) (string, error)
}

// Completer is what the decomposition core depends on.
type Completer interface {
	TextComplete(ctx context.Context, prompt string) (string, error)
	VisionComplete(ctx context.Context, image Image, prompt string) (string, error)
}
