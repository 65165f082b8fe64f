package llm

import (
	"context"
	"fmt"

	"breakdown/internal/catalog"
	"breakdown/internal/config"
	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/service/llm/providers/anthropic"
	"breakdown/internal/service/llm/providers/gemini"
	"breakdown/internal/service/llm/providers/offline"
	"breakdown/internal/service/llm/providers/openai"
	"breakdown/internal/service/llm/providers/openrouter"
)

// ProviderFactory creates completion backends from configuration
type ProviderFactory struct {
	config  *config.Config
	catalog *catalog.Catalog
}

func NewProviderFactory(cfg *config.Config, c *catalog.Catalog) *ProviderFactory {
	return &ProviderFactory{
		config:  cfg,
		catalog: c,
	}
}

// NewBackend returns a backend instance for the given provider name
//
// Supported providers:
//   - "anthropic"  - Claude models, text and vision
//   - "gemini"     - Google Gemini models, text and vision
//   - "openrouter" - text models via OpenRouter
//   - "openai"     - any OpenAI-compatible endpoint, text and vision
//   - "offline"    - canned responses, no API key required
func (f *ProviderFactory) NewBackend(ctx context.Context, providerName string) (domainllm.Backend, error) {
	switch providerName {
	case "anthropic":
		if f.config.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		return anthropic.NewProvider(f.config.AnthropicAPIKey)

	case "gemini":
		if f.config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
		return gemini.NewProvider(ctx, f.config.GeminiAPIKey, "")

	case "openrouter":
		if f.config.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
		}
		return openrouter.NewProvider(f.config.OpenRouterAPIKey)

	case "openai":
		if f.config.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		return openai.NewProvider(f.config.OpenAIAPIKey, f.config.OpenAIBaseURL)

	case "offline":
		return offline.NewProvider(f.catalog, 0), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}
