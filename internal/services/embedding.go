package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmbeddingService turns text into fixed-length vectors. The same service
// (and model) must be used for building an index and querying it; the index
// layer enforces this by recording ModelID in collection metadata.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelID() string
}

// EmbeddingServiceError represents a failure of the embedding backend.
// These are transient service faults: callers may retry the whole operation.
type EmbeddingServiceError struct {
	Err     error
	Message string
}

func (e *EmbeddingServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *EmbeddingServiceError) Unwrap() error {
	return e.Err
}

// NewEmbeddingServiceError creates a new embedding service error
func NewEmbeddingServiceError(message string, err error) *EmbeddingServiceError {
	return &EmbeddingServiceError{Message: message, Err: err}
}

const (
	OllamaBaseURL         = "http://localhost:11434"
	DefaultEmbeddingModel = "nomic-embed-text"
)

// OllamaEmbeddingClient implements EmbeddingService against the Ollama
// embeddings API.
type OllamaEmbeddingClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaEmbeddingClient creates a new Ollama embedding client
func NewOllamaEmbeddingClient(baseURL, model string) *OllamaEmbeddingClient {
	if baseURL == "" {
		baseURL = OllamaBaseURL
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OllamaEmbeddingClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ollamaEmbedRequest is the Ollama API request format
type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaEmbedResponse is the Ollama API response format
type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for a single text
func (c *OllamaEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := ollamaEmbedRequest{
		Model:  c.model,
		Prompt: text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, NewEmbeddingServiceError("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, NewEmbeddingServiceError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewEmbeddingServiceError("embedding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewEmbeddingServiceError(
			fmt.Sprintf("embedding backend returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, NewEmbeddingServiceError("failed to decode response", err)
	}

	if len(embedResp.Embedding) == 0 {
		return nil, NewEmbeddingServiceError("embedding backend returned an empty vector", nil)
	}

	return embedResp.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts. Any failure aborts the
// whole batch so callers never see a partial result.
func (c *OllamaEmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := c.Embed(ctx, text)
		if err != nil {
			return nil, NewEmbeddingServiceError(fmt.Sprintf("embedding text %d of %d", i, len(texts)), err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// ModelID identifies the embedding function (backend + model) so indexes can
// record what produced their vectors.
func (c *OllamaEmbeddingClient) ModelID() string {
	return "ollama/" + c.model
}
