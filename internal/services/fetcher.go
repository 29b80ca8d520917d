package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	fetchTimeout     = 30 * time.Second
	maxDocumentBytes = 10 << 20 // 10 MB
	fetcherUserAgent = "askdocs/1.0"
	acceptedMIMEHint = "text/plain, text/html, text/markdown, application/json"
)

// DocumentFetcher downloads raw document text over HTTP for ingestion.
type DocumentFetcher struct {
	client *http.Client
	logger *log.Logger
}

// NewDocumentFetcher creates a new document fetcher
func NewDocumentFetcher(logger *log.Logger) *DocumentFetcher {
	return &DocumentFetcher{
		client: &http.Client{Timeout: fetchTimeout},
		logger: logger,
	}
}

// Fetch retrieves the document at url and returns its body as text.
// Bodies larger than maxDocumentBytes are rejected rather than truncated.
func (f *DocumentFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", fetcherUserAgent)
	req.Header.Set("Accept", acceptedMIMEHint)

	f.logger.Printf("Fetching document from %s", url)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document fetch returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}
	if len(body) > maxDocumentBytes {
		return "", fmt.Errorf("document at %s exceeds the %d byte limit", url, maxDocumentBytes)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("document at %s is empty", url)
	}

	return string(body), nil
}
