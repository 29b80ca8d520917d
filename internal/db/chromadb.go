package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChromaClient wraps HTTP calls to the ChromaDB v2 API.
// The official Go client (v0.3.0-alpha.1) has v1/v2 API compatibility issues,
// so collection and document operations go through this thin REST wrapper.
type ChromaClient struct {
	baseURL    string
	serverURL  string
	httpClient *http.Client
}

// ChromaConfig holds configuration for the ChromaDB connection
type ChromaConfig struct {
	Host     string
	Port     int
	Tenant   string // default: "default_tenant"
	Database string // default: "default_database"
	Timeout  time.Duration
}

// DefaultChromaConfig returns a ChromaDB configuration with sensible defaults
func DefaultChromaConfig() ChromaConfig {
	return ChromaConfig{
		Host:     "localhost",
		Port:     8000,
		Tenant:   "default_tenant",
		Database: "default_database",
		Timeout:  30 * time.Second,
	}
}

// ChromaCollection represents a ChromaDB collection
type ChromaCollection struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ChromaQueryResponse represents the response from a similarity query
type ChromaQueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float32                `json:"distances"`
}

// ChromaGetResponse represents the response from a get request
type ChromaGetResponse struct {
	IDs        []string                 `json:"ids"`
	Documents  []string                 `json:"documents"`
	Metadatas  []map[string]interface{} `json:"metadatas"`
	Embeddings [][]float32              `json:"embeddings,omitempty"`
}

// NewChromaClient creates a new ChromaDB client against the v2 API
func NewChromaClient(config ChromaConfig) *ChromaClient {
	if config.Tenant == "" {
		config.Tenant = "default_tenant"
	}
	if config.Database == "" {
		config.Database = "default_database"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	serverURL := fmt.Sprintf("http://%s:%d", config.Host, config.Port)
	baseURL := fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s",
		serverURL, config.Tenant, config.Database)

	return &ChromaClient{
		baseURL:   baseURL,
		serverURL: serverURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// do issues a JSON request against the given URL and decodes the response
// into result (when result is non-nil).
func (c *ChromaClient) do(ctx context.Context, method, url string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed (status %d): %s", method, url, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Heartbeat checks if ChromaDB is alive
func (c *ChromaClient) Heartbeat(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/v2/heartbeat", c.serverURL)
	if err := c.do(ctx, "GET", url, nil, nil); err != nil {
		return fmt.Errorf("heartbeat failed: %w", err)
	}
	return nil
}

// ListCollections returns all collections
func (c *ChromaClient) ListCollections(ctx context.Context) ([]ChromaCollection, error) {
	var collections []ChromaCollection
	url := fmt.Sprintf("%s/collections", c.baseURL)
	if err := c.do(ctx, "GET", url, nil, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// CreateCollection creates a new collection. Cosine distance is the only
// space used by this application.
func (c *ChromaClient) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (*ChromaCollection, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["hnsw:space"] = "cosine"

	payload := map[string]interface{}{
		"name":     name,
		"metadata": metadata,
	}

	var collection ChromaCollection
	url := fmt.Sprintf("%s/collections", c.baseURL)
	if err := c.do(ctx, "POST", url, payload, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// GetCollection retrieves a collection by name
func (c *ChromaClient) GetCollection(ctx context.Context, name string) (*ChromaCollection, error) {
	var collection ChromaCollection
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)
	if err := c.do(ctx, "GET", url, nil, &collection); err != nil {
		return nil, fmt.Errorf("collection %q: %w", name, err)
	}
	return &collection, nil
}

// DeleteCollection deletes a collection
func (c *ChromaClient) DeleteCollection(ctx context.Context, name string) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, name)
	return c.do(ctx, "DELETE", url, nil, nil)
}

// CountCollection returns the number of embedded chunks in a collection
func (c *ChromaClient) CountCollection(ctx context.Context, name string) (int, error) {
	collection, err := c.GetCollection(ctx, name)
	if err != nil {
		return 0, err
	}

	var count int
	url := fmt.Sprintf("%s/collections/%s/count", c.baseURL, collection.ID)
	if err := c.do(ctx, "GET", url, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// AddRecords adds embedded documents to a collection
func (c *ChromaClient) AddRecords(ctx context.Context, collectionName string, ids []string, documents []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"ids":        ids,
		"documents":  documents,
		"embeddings": embeddings,
	}
	if metadatas != nil {
		payload["metadatas"] = metadatas
	}

	url := fmt.Sprintf("%s/collections/%s/add", c.baseURL, collection.ID)
	return c.do(ctx, "POST", url, payload, nil)
}

// Query searches a collection for the nearest records to the query embeddings
func (c *ChromaClient) Query(ctx context.Context, collectionName string, queryEmbeddings [][]float32, nResults int, where map[string]interface{}) (*ChromaQueryResponse, error) {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"query_embeddings": queryEmbeddings,
		"n_results":        nResults,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if where != nil {
		payload["where"] = where
	}

	var queryResp ChromaQueryResponse
	url := fmt.Sprintf("%s/collections/%s/query", c.baseURL, collection.ID)
	if err := c.do(ctx, "POST", url, payload, &queryResp); err != nil {
		return nil, err
	}
	return &queryResp, nil
}

// GetRecords retrieves records from a collection with optional filtering
func (c *ChromaClient) GetRecords(ctx context.Context, collectionName string, where map[string]interface{}, limit int, offset int) (*ChromaGetResponse, error) {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"include": []string{"documents", "metadatas"},
	}
	if len(where) > 0 {
		payload["where"] = where
	}
	if limit > 0 {
		payload["limit"] = limit
	} else {
		// ChromaDB requires a limit; fetch effectively everything
		payload["limit"] = 100000
	}
	if offset > 0 {
		payload["offset"] = offset
	}

	var getResp ChromaGetResponse
	url := fmt.Sprintf("%s/collections/%s/get", c.baseURL, collection.ID)
	if err := c.do(ctx, "POST", url, payload, &getResp); err != nil {
		return nil, err
	}
	return &getResp, nil
}

// DeleteRecords deletes records from a collection by IDs
func (c *ChromaClient) DeleteRecords(ctx context.Context, collectionName string, ids []string) error {
	collection, err := c.GetCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"ids": ids,
	}

	url := fmt.Sprintf("%s/collections/%s/delete", c.baseURL, collection.ID)
	return c.do(ctx, "POST", url, payload, nil)
}

// Close closes idle HTTP connections
func (c *ChromaClient) Close() {
	c.httpClient.CloseIdleConnections()
}
