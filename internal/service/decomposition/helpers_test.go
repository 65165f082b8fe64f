package decomposition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"breakdown/internal/catalog"
	models "breakdown/internal/domain/models/decomposition"
	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/service/llm"
)

// fakeCompleter is a hand-written Completer that records every prompt.
type fakeCompleter struct {
	mu      sync.Mutex
	calls   int
	prompts []string

	text   func(call int, prompt string) (string, error)
	vision func(image domainllm.Image, prompt string) (string, error)
}

func (f *fakeCompleter) TextComplete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.text(call, prompt)
}

func (f *fakeCompleter) VisionComplete(ctx context.Context, image domainllm.Image, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.vision(image, prompt)
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testPart struct {
	Name string `json:"name"`
	Desc string `json:"description,omitempty"`
	Raw  bool   `json:"is_raw_material"`
	Icon string `json:"icon,omitempty"`
	Term string `json:"searchTerm,omitempty"`
}

func partsJSON(t *testing.T, parent string, parts ...testPart) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"parent_item": parent, "parts": parts})
	if err != nil {
		t.Fatalf("marshal parts: %v", err)
	}
	return "```json\n" + string(data) + "\n```"
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry() llm.RetryPolicy {
	return llm.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("n%03d", n)
	}
}

func newTestController(t *testing.T, completer domainllm.Completer, maxDepth int) *Controller {
	t.Helper()
	return NewController(ControllerConfig{
		Completer: completer,
		Catalog:   catalog.MustLoad(),
		Retry:     fastRetry(),
		MaxDepth:  maxDepth,
		Logger:    discardLogger(),
		NewID:     sequentialIDs(),
	})
}

func newTestSession(name string) *Session {
	root := &models.Node{ID: "root", Name: name, State: models.StateUnexpanded}
	return NewSession("user-1", root, nil, nil)
}
