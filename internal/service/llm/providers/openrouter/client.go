// Package openrouter routes text completions through OpenRouter using the
// provider-agnostic meridian-llm-go client.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/openrouter"

	"breakdown/internal/domain"
	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/service/llm/providers"
)

type Provider struct {
	provider llmprovider.Provider
}

// NewProvider creates an OpenRouter backend.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	provider, err := openrouter.NewProvider(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter provider: %w", err)
	}
	return NewProviderWithClient(provider), nil
}

// NewProviderWithClient wraps an existing library provider.
func NewProviderWithClient(provider llmprovider.Provider) *Provider {
	return &Provider{provider: provider}
}

func (p *Provider) Name() string {
	return "openrouter"
}

// Complete sends a text-only request. OpenRouter models here are not
// configured for images, so vision requests are rejected up front.
func (p *Provider) Complete(ctx context.Context, req *domainllm.CompletionRequest) (string, error) {
	if req.Modality == domainllm.ModalityVision {
		return "", fmt.Errorf("%w: openrouter backend does not accept images", domain.ErrValidation)
	}

	prompt := req.Prompt
	libReq := &llmprovider.GenerateRequest{
		Messages: []llmprovider.Message{
			{
				Role: "user",
				Blocks: []*llmprovider.Block{
					{
						BlockType:   "text",
						Sequence:    0,
						TextContent: &prompt,
					},
				},
			},
		},
		Model:  req.Model,
		Params: buildParams(req),
	}

	resp, err := p.provider.GenerateResponse(ctx, libReq)
	if err != nil {
		return "", classifyError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Blocks {
		if block.BlockType == "text" && block.TextContent != nil {
			sb.WriteString(*block.TextContent)
		}
	}
	return sb.String(), nil
}

func buildParams(req *domainllm.CompletionRequest) *llmprovider.RequestParams {
	params := &llmprovider.RequestParams{
		Temperature: req.Temperature,
	}
	if req.System != "" {
		system := req.System
		params.System = &system
	}
	return params
}

// classifyError maps library errors. The library does not expose HTTP
// status codes, so anything that is not a network or context failure is
// reported as a bad-gateway provider error.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return providers.Transport("openrouter", err)
	}
	return providers.Status("openrouter", 502, err.Error())
}
