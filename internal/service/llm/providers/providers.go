// Package providers holds helpers shared by the concrete completion backends.
package providers

import (
	"context"
	"errors"
	"net"
	"strings"

	"breakdown/internal/domain"
)

// SystemPrompt is sent with every completion unless the caller overrides it.
const SystemPrompt = "You are a helpful assistant that returns responses in JSON format."

const maxErrorBody = 512

// Transport wraps a network failure. Context errors pass through so that
// the gateway can tell its own deadline apart from caller cancellation.
func Transport(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return context.DeadlineExceeded
	}
	return &domain.TransportError{Provider: provider, Err: err}
}

// Status builds a ProviderError from a non-success response.
func Status(provider string, status int, body string) error {
	body = strings.TrimSpace(body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return &domain.ProviderError{Provider: provider, Status: status, Message: body}
}
