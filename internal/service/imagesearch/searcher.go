// Package imagesearch finds a representative photo for a node name.
package imagesearch

import (
	"context"
)

// Result is one image hit.
type Result struct {
	ImageURL     string
	ThumbnailURL string
	Photographer string
	SourceURL    string
}

// Searcher looks up a single image for a search term. A nil result with a
// nil error means nothing was found.
type Searcher interface {
	Search(ctx context.Context, term string) (*Result, error)
}

// Noop is used when no image service is configured.
type Noop struct{}

func (Noop) Search(context.Context, string) (*Result, error) {
	return nil, nil
}
