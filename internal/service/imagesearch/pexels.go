package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"breakdown/internal/domain"
)

const (
	// DefaultPexelsBaseURL is the Pexels photo search endpoint
	DefaultPexelsBaseURL = "https://api.pexels.com/v1/search"
	// DefaultPexelsTimeout is the HTTP timeout for Pexels requests
	DefaultPexelsTimeout = 10 * time.Second
)

// PexelsClient implements Searcher for the Pexels photo API.
type PexelsClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewPexelsClient(apiKey string) *PexelsClient {
	return NewPexelsClientWithConfig(apiKey, DefaultPexelsBaseURL, DefaultPexelsTimeout)
}

// NewPexelsClientWithConfig creates a Pexels client with a custom endpoint and timeout.
func NewPexelsClientWithConfig(apiKey, baseURL string, timeout time.Duration) *PexelsClient {
	return &PexelsClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search returns the first photo for term.
func (c *PexelsClient) Search(ctx context.Context, term string) (*Result, error) {
	q := url.Values{}
	q.Set("query", term)
	q.Set("per_page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrEnrichment, err)
	}
	// Pexels takes the bare key, no Bearer prefix
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", domain.ErrEnrichment, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrEnrichment, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: pexels status %d: %s", domain.ErrEnrichment, resp.StatusCode, string(body))
	}

	var pr pexelsResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", domain.ErrEnrichment, err)
	}
	if len(pr.Photos) == 0 {
		return nil, nil
	}

	photo := pr.Photos[0]
	return &Result{
		ImageURL:     photo.Src.Large,
		ThumbnailURL: photo.Src.Medium,
		Photographer: photo.Photographer,
		SourceURL:    photo.URL,
	}, nil
}

type pexelsResponse struct {
	Photos []pexelsPhoto `json:"photos"`
}

type pexelsPhoto struct {
	URL          string `json:"url"`
	Photographer string `json:"photographer"`
	Src          struct {
		Large  string `json:"large"`
		Medium string `json:"medium"`
	} `json:"src"`
}
