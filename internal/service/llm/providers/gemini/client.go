// Package gemini implements the completion backend for Google Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/service/llm/providers"
)

type Provider struct {
	client *genai.Client
}

// NewProvider creates a Gemini API client. baseURL is optional and only
// used to point at a proxy.
func NewProvider(ctx context.Context, apiKey, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{client: client}, nil
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) Complete(ctx context.Context, req *domainllm.CompletionRequest) (string, error) {
	parts := make([]*genai.Part, 0, 2)
	if req.Modality == domainllm.ModalityVision {
		if req.Image == nil || len(req.Image.Data) == 0 {
			return "", fmt.Errorf("vision request without image data")
		}
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}
	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", classifyError(err)
	}

	return resp.Text(), nil
}

// classifyError maps SDK errors onto the domain taxonomy. The SDK has
// returned APIError both by value and by pointer across releases.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return providers.Status("gemini", apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return providers.Status("gemini", apiErrPtr.Code, apiErrPtr.Message)
	}
	return providers.Transport("gemini", err)
}
