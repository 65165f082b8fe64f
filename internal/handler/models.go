package handler

import (
	"log/slog"
	"net/http"

	"breakdown/internal/capabilities"
	"breakdown/internal/config"
	"breakdown/internal/httputil"
)

// ModelsHandler handles HTTP requests for model capabilities
type ModelsHandler struct {
	config   *config.Config
	logger   *slog.Logger
	registry *capabilities.Registry
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(cfg *config.Config, logger *slog.Logger, registry *capabilities.Registry) *ModelsHandler {
	return &ModelsHandler{
		config:   cfg,
		logger:   logger,
		registry: registry,
	}
}

// ProviderResponse represents a provider with its models
type ProviderResponse struct {
	ID     string                           `json:"id"`
	Name   string                           `json:"name"`
	Models []capabilities.ModelCapabilities `json:"models"`
}

// ActiveModel is the model serving one modality
type ActiveModel struct {
	Provider     string                          `json:"provider"`
	Model        string                          `json:"model"`
	Capabilities *capabilities.ModelCapabilities `json:"capabilities,omitempty"`
}

// ModelsResponse lists the active models and every configured provider
type ModelsResponse struct {
	Text      ActiveModel        `json:"text"`
	Vision    ActiveModel        `json:"vision"`
	Providers []ProviderResponse `json:"providers"`
}

var providerNames = map[string]string{
	"anthropic":  "Anthropic",
	"gemini":     "Google Gemini",
	"openrouter": "OpenRouter",
	"openai":     "OpenAI compatible",
	"offline":    "Offline",
}

// GetModels returns the active models and the capability registry for
// providers that have credentials
// GET /api/models
func (h *ModelsHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	resp := ModelsResponse{
		Text:      h.active(h.config.TextProvider, h.config.TextModel),
		Vision:    h.active(h.config.VisionProvider, h.config.VisionModel),
		Providers: []ProviderResponse{},
	}

	for _, id := range h.registry.GetAllProviders() {
		if !h.configured(id) {
			continue
		}
		models, err := h.registry.ListProviderModels(id)
		if err != nil {
			h.logger.Warn("list provider models", "provider", id, "error", err)
			continue
		}
		resp.Providers = append(resp.Providers, ProviderResponse{
			ID:     id,
			Name:   providerNames[id],
			Models: models,
		})
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

func (h *ModelsHandler) active(provider, model string) ActiveModel {
	am := ActiveModel{Provider: provider, Model: model}
	if caps, err := h.registry.GetModelCapabilities(provider, model); err == nil {
		am.Capabilities = caps
	}
	return am
}

func (h *ModelsHandler) configured(provider string) bool {
	switch provider {
	case "anthropic":
		return h.config.AnthropicAPIKey != ""
	case "gemini":
		return h.config.GeminiAPIKey != ""
	case "openrouter":
		return h.config.OpenRouterAPIKey != ""
	case "openai":
		return h.config.OpenAIAPIKey != ""
	case "offline":
		return true
	default:
		return false
	}
}
