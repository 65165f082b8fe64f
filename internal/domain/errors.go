package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrDepthExceeded is an internal guard condition. The controller converts
	// it into a terminal node and never returns it to callers.
	ErrDepthExceeded = errors.New("maximum decomposition depth exceeded")

	// ErrCardUnavailable means no knowledge card can be produced for a node.
	ErrCardUnavailable = errors.New("knowledge card unavailable")

	// ErrEnrichment marks best-effort decoration failures.
	ErrEnrichment = errors.New("enrichment failed")
)

// ProviderError is a non-success response from a completion backend.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider returned %d: %s", e.Provider, e.Status, e.Message)
}

// StatusCode implements HTTPError. Upstream failures are reported as bad gateway.
func (e *ProviderError) StatusCode() int { return http.StatusBadGateway }

// TransportError is a network-level failure talking to a backend.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error   { return e.Err }
func (e *TransportError) StatusCode() int { return http.StatusBadGateway }

// TimeoutError is returned when a completion call exceeds its allotted time.
type TimeoutError struct {
	Provider string
	Modality string
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s completion timed out after %s", e.Provider, e.Modality, e.After)
}

func (e *TimeoutError) StatusCode() int { return http.StatusGatewayTimeout }

// MalformedResponseError is returned when model output cannot be parsed into
// the expected shape. Raw holds the untouched output for diagnostics.
type MalformedResponseError struct {
	Raw    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed model response: " + e.Reason
}

func (e *MalformedResponseError) StatusCode() int { return http.StatusBadGateway }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string   { return e.Message }
func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
