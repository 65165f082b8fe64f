package anthropic

import (
	"encoding/base64"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	domainllm "breakdown/internal/domain/services/llm"
)

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// buildContent converts a completion request into Anthropic content blocks.
// The image goes first, which is what the Messages API recommends.
func buildContent(req *domainllm.CompletionRequest) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, 2)

	if req.Modality == domainllm.ModalityVision {
		if req.Image == nil || len(req.Image.Data) == 0 {
			return nil, fmt.Errorf("vision request without image data")
		}
		if !supportedImageTypes[req.Image.MIMEType] {
			return nil, fmt.Errorf("unsupported image type %q", req.Image.MIMEType)
		}
		encoded := base64.StdEncoding.EncodeToString(req.Image.Data)
		blocks = append(blocks, anthropic.NewImageBlockBase64(req.Image.MIMEType, encoded))
	}

	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))
	return blocks, nil
}
