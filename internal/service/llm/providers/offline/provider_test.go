package offline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"breakdown/internal/catalog"
	domainllm "breakdown/internal/domain/services/llm"
)

func unfence(s string) string {
	s = strings.TrimPrefix(s, "```json\n")
	return strings.TrimSuffix(s, "\n```")
}

func TestDecompose_TerminatesNearMaxLevel(t *testing.T) {
	p := NewProvider(catalog.MustLoad(), 0)

	tests := []struct {
		name        string
		prompt      string
		wantNonRaw  int
		wantPartLen int
	}{
		{"shallow", "Item: 台灯\nCurrent level: 0 of 6\n", 2, 4},
		{"deep", "Item: 台灯外壳\nCurrent level: 4 of 6\n", 0, 4},
		{"no markers", "decompose something", 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := p.Complete(context.Background(), &domainllm.CompletionRequest{Prompt: tt.prompt})
			if err != nil {
				t.Fatalf("Complete: %v", err)
			}
			var out struct {
				Parts []part `json:"parts"`
			}
			if err := json.Unmarshal([]byte(unfence(raw)), &out); err != nil {
				t.Fatalf("unmarshal: %v\n%s", err, raw)
			}
			if len(out.Parts) != tt.wantPartLen {
				t.Fatalf("parts = %d, want %d", len(out.Parts), tt.wantPartLen)
			}
			nonRaw := 0
			for _, part := range out.Parts {
				if !part.IsRawMaterial {
					nonRaw++
				}
			}
			if nonRaw != tt.wantNonRaw {
				t.Errorf("non-raw parts = %d, want %d", nonRaw, tt.wantNonRaw)
			}
		})
	}
}

func TestCard_MentionsComponents(t *testing.T) {
	p := NewProvider(catalog.MustLoad(), 0)
	prompt := "Item: 台灯\nDocument number: PROC-123456\nComponents:\n- 灯罩\n- 灯臂\n"

	raw, err := p.Complete(context.Background(), &domainllm.CompletionRequest{Prompt: prompt})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(raw, "PROC-123456") || !strings.Contains(raw, "灯罩") || !strings.Contains(raw, "灯臂") {
		t.Errorf("card does not reference prompt data: %s", raw)
	}
}

func TestComplete_HonoursContext(t *testing.T) {
	p := NewProvider(catalog.MustLoad(), 1<<40)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Complete(ctx, &domainllm.CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected context error")
	}
}
