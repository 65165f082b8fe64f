package llm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    *ModelRef
		wantErr bool
	}{
		{"explicit provider", "gemini/gemini-2.5-flash", &ModelRef{Provider: "gemini", Model: "gemini-2.5-flash"}, false},
		{"openrouter keeps nested id", "openrouter/anthropic/claude-haiku-4.5", &ModelRef{Provider: "openrouter", Model: "anthropic/claude-haiku-4.5"}, false},
		{"claude inferred", "claude-haiku-4-5-20251001", &ModelRef{Provider: "anthropic", Model: "claude-haiku-4-5-20251001"}, false},
		{"gpt inferred", "gpt-4o-mini", &ModelRef{Provider: "openai", Model: "gpt-4o-mini"}, false},
		{"reasoning model inferred", "o4-mini", &ModelRef{Provider: "openai", Model: "o4-mini"}, false},
		{"offline inferred", "offline-fixture", &ModelRef{Provider: "offline", Model: "offline-fixture"}, false},
		{"case insensitive", "Gemini-2.5-Pro", &ModelRef{Provider: "gemini", Model: "Gemini-2.5-Pro"}, false},
		{"trims space", "  claude-x ", &ModelRef{Provider: "anthropic", Model: "claude-x"}, false},
		{"empty", "", nil, true},
		{"provider without model", "anthropic/", nil, true},
		{"unknown prefix", "x-ai/grok-4", nil, true},
		{"unknown bare", "llama-3", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModel(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseModel(%q): %v", tt.ref, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}
