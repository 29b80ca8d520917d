package models

import (
	"time"
)

// Chunk represents a bounded contiguous segment of source text, the unit of
// retrieval. Chunks are immutable once created by the splitter.
type Chunk struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	Text       string                 `json:"text"`
	Embedding  []float32              `json:"embedding,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	ChunkIndex int                    `json:"chunk_index"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ChunkDTO represents the API view of a chunk
type ChunkDTO struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	Text       string                 `json:"text"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	ChunkIndex int                    `json:"chunk_index"`
	CreatedAt  string                 `json:"created_at"`
}

// ToDTO converts Chunk domain model to DTO
func (c *Chunk) ToDTO() ChunkDTO {
	return ChunkDTO{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		Text:       c.Text,
		Metadata:   c.Metadata,
		ChunkIndex: c.ChunkIndex,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}

// Validate checks if the chunk is valid
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return &ValidationError{Field: "id", Message: "chunk ID is required"}
	}
	if c.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if c.Text == "" {
		return &ValidationError{Field: "text", Message: "text is required"}
	}
	if c.ChunkIndex < 0 {
		return &ValidationError{Field: "chunk_index", Message: "chunk index cannot be negative"}
	}
	return nil
}

// SearchResult represents a single search result from vector similarity search
type SearchResult struct {
	ChunkID    string                 `json:"chunk_id"`
	DocumentID string                 `json:"document_id"`
	Text       string                 `json:"text"`
	Score      float32                `json:"score"`    // Similarity score (0-1, higher is better)
	Distance   float32                `json:"distance"` // Distance metric
	Metadata   map[string]interface{} `json:"metadata"`
	ChunkIndex int                    `json:"chunk_index"`
}

// SearchRequest represents a top-k retrieval request
type SearchRequest struct {
	Query    string   `json:"query"`
	TopK     int      `json:"top_k"`
	MinScore *float32 `json:"min_score,omitempty"`
}

// Validate validates the search request
func (sr *SearchRequest) Validate() error {
	if sr.Query == "" {
		return &ValidationError{Field: "query", Message: "query is required"}
	}
	if sr.TopK <= 0 {
		sr.TopK = 5 // Default to 5 results
	}
	if sr.TopK > 100 {
		return &ValidationError{Field: "top_k", Message: "top_k cannot exceed 100"}
	}
	return nil
}

// SearchResponse represents a search response
type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	Query      string         `json:"query"`
	TotalFound int            `json:"total_found"`
}
