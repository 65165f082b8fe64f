package llm

import (
	"fmt"
	"slices"
	"strings"
)

// Providers lists the backend names NewBackend understands.
var Providers = []string{"anthropic", "gemini", "openai", "openrouter", "offline"}

// ModelRef is a provider/model pair.
type ModelRef struct {
	Provider string
	Model    string
}

// ParseModel resolves a model reference.
//
//   - "gemini/gemini-2.5-flash"              → gemini, gemini-2.5-flash
//   - "openrouter/anthropic/claude-haiku-4.5" → openrouter, anthropic/claude-haiku-4.5
//   - "claude-haiku-4-5-20251001"            → anthropic (inferred from the prefix)
//
// A leading segment is only treated as a provider when it is one of
// Providers, so bare OpenRouter ids such as "x-ai/grok-4" fail inference
// instead of being misrouted.
func ParseModel(ref string) (*ModelRef, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("model reference cannot be empty")
	}

	if provider, model, ok := strings.Cut(ref, "/"); ok && slices.Contains(Providers, provider) {
		if model == "" {
			return nil, fmt.Errorf("model missing in %q", ref)
		}
		return &ModelRef{Provider: provider, Model: model}, nil
	}

	provider := inferProvider(ref)
	if provider == "" {
		return nil, fmt.Errorf("cannot infer provider for %q, use provider/model", ref)
	}
	return &ModelRef{Provider: provider, Model: ref}, nil
}

func inferProvider(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "/"):
		return ""
	case strings.HasPrefix(m, "claude-"):
		return "anthropic"
	case strings.HasPrefix(m, "gemini-"):
		return "gemini"
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return "openai"
	case strings.HasPrefix(m, "offline-"):
		return "offline"
	}
	return ""
}
