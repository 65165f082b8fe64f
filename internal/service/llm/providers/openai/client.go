// Package openai talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, DashScope compatible mode, local gateways).
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/service/llm/providers"
)

type Provider struct {
	client openai.Client
}

// NewProvider creates a client for baseURL (e.g. https://api.openai.com/v1).
// Timeouts come from the request context and retries are left to the gateway.
func NewProvider(apiKey, baseURL string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("openai base URL is required")
	}
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}, opts...)
	return &Provider{client: openai.NewClient(opts...)}, nil
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) Complete(ctx context.Context, req *domainllm.CompletionRequest) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, buildParams(req))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", providers.Status(p.Name(), apiErr.StatusCode, apiErr.Error())
		}
		return "", providers.Transport(p.Name(), err)
	}
	if len(completion.Choices) == 0 {
		return "", providers.Status(p.Name(), http.StatusOK, "response has no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

func buildParams(req *domainllm.CompletionRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	if req.Modality == domainllm.ModalityVision && req.Image != nil {
		dataURL := fmt.Sprintf("data:%s;base64,%s", req.Image.MIMEType, base64.StdEncoding.EncodeToString(req.Image.Data))
		messages = append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
		}))
	} else {
		messages = append(messages, openai.UserMessage(req.Prompt))
	}

	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: messages,
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}
