package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"breakdown/internal/domain"
	domainllm "breakdown/internal/domain/services/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider("test-key", option.WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func TestComplete_ConcatenatesTextBlocks(t *testing.T) {
	var gotBody map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-haiku-4-5-20251001",
			"content": [{"type": "text", "text": "{\"parent_item\":"}, {"type": "text", "text": "\"x\"}"}],
			"stop_reason": "end_turn", "usage": {"input_tokens": 3, "output_tokens": 5}
		}`))
	})

	temp := 0.8
	text, err := p.Complete(context.Background(), &domainllm.CompletionRequest{
		Modality:    domainllm.ModalityText,
		Prompt:      "decompose",
		System:      "json only",
		Model:       "claude-haiku-4-5-20251001",
		MaxTokens:   2000,
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"parent_item":"x"}` {
		t.Errorf("text = %q", text)
	}
	if gotBody["max_tokens"].(float64) != 2000 {
		t.Errorf("max_tokens = %v", gotBody["max_tokens"])
	}
}

func TestComplete_ProviderError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	})

	_, err := p.Complete(context.Background(), &domainllm.CompletionRequest{
		Modality:  domainllm.ModalityText,
		Prompt:    "x",
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 10,
	})

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if provErr.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d", provErr.Status)
	}
}

func TestBuildContent(t *testing.T) {
	tests := []struct {
		name       string
		req        *domainllm.CompletionRequest
		wantBlocks int
		wantErr    bool
	}{
		{"text", &domainllm.CompletionRequest{Modality: domainllm.ModalityText, Prompt: "p"}, 1, false},
		{"vision", &domainllm.CompletionRequest{Modality: domainllm.ModalityVision, Prompt: "p", Image: &domainllm.Image{Data: []byte{1}, MIMEType: "image/png"}}, 2, false},
		{"vision without image", &domainllm.CompletionRequest{Modality: domainllm.ModalityVision, Prompt: "p"}, 0, true},
		{"unsupported mime", &domainllm.CompletionRequest{Modality: domainllm.ModalityVision, Prompt: "p", Image: &domainllm.Image{Data: []byte{1}, MIMEType: "image/bmp"}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := buildContent(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(blocks) != tt.wantBlocks {
				t.Errorf("blocks = %d, want %d", len(blocks), tt.wantBlocks)
			}
		})
	}
}
