package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"breakdown/internal/domain"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"api error", genai.APIError{Code: 503, Message: "overloaded"}, 503, "provider"},
		{"wrapped api error", fmt.Errorf("call: %w", genai.APIError{Code: 400, Message: "bad"}), 400, "provider"},
		{"network", errors.New("connection reset"), 0, "transport"},
		{"canceled", context.Canceled, 0, "context"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(tt.err)

			var provErr *domain.ProviderError
			var transErr *domain.TransportError
			switch tt.wantKind {
			case "provider":
				if !errors.As(err, &provErr) {
					t.Fatalf("expected ProviderError, got %T", err)
				}
				if provErr.Status != tt.wantStatus {
					t.Errorf("status = %d, want %d", provErr.Status, tt.wantStatus)
				}
			case "transport":
				if !errors.As(err, &transErr) {
					t.Fatalf("expected TransportError, got %T", err)
				}
			case "context":
				if !errors.Is(err, context.Canceled) {
					t.Fatalf("expected context.Canceled, got %v", err)
				}
			}
		})
	}
}

func TestNewProvider_RequiresKey(t *testing.T) {
	if _, err := NewProvider(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}
