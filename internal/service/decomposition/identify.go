package decomposition

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"breakdown/internal/domain"
	models "breakdown/internal/domain/models/decomposition"
	domainllm "breakdown/internal/domain/services/llm"
	"breakdown/internal/service/llm"
)

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Identifier names the main object in a photo.
type Identifier struct {
	completer domainllm.Completer
	retry     llm.RetryPolicy
	language  string
	logger    *slog.Logger
}

func NewIdentifier(completer domainllm.Completer, retry llm.RetryPolicy, language string, logger *slog.Logger) *Identifier {
	return &Identifier{completer: completer, retry: retry, language: language, logger: logger}
}

// Identify runs vision identification on image. An empty mimeType is
// sniffed from the bytes.
func (i *Identifier) Identify(ctx context.Context, image []byte, mimeType string) (*models.Identification, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", domain.ErrValidation)
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	if !supportedImageTypes[mimeType] {
		return nil, fmt.Errorf("%w: unsupported image type %q", domain.ErrValidation, mimeType)
	}

	prompt := CompileIdentificationPrompt(i.language)
	img := domainllm.Image{Data: image, MIMEType: mimeType}

	start := time.Now()
	ident, err := llm.Retry(ctx, i.retry, func(ctx context.Context) (*models.Identification, error) {
		raw, err := i.completer.VisionComplete(ctx, img, prompt)
		if err != nil {
			return nil, err
		}
		return NormalizeIdentification(raw)
	})
	if err != nil {
		i.logger.Warn("identification failed", "mime_type", mimeType, "bytes", len(image), "error", err)
		return nil, err
	}

	i.logger.Info("object identified",
		"name", ident.Name,
		"category", ident.Category,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ident, nil
}
