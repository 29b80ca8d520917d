package models

import (
	"time"
)

// Document represents an ingested document source with all metadata
type Document struct {
	ID         string                 `json:"document_id"`
	SourceURL  string                 `json:"source_url,omitempty"`
	Name       string                 `json:"name"`
	Collection string                 `json:"collection"`
	ChunkCount int                    `json:"chunk_count"`
	Status     DocumentStatus         `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`

	// Processing metadata
	ChunkSize    int `json:"chunk_size,omitempty"`
	ChunkOverlap int `json:"chunk_overlap,omitempty"`

	// Embedding metadata, recorded so a query is never run against an index
	// built with a different embedding model
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// DocumentStatus represents the status of a document
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
	DocumentStatusDeleted    DocumentStatus = "deleted"
)

// DocumentDTO - API Request/Response (what clients see)
type DocumentDTO struct {
	ID             string                 `json:"document_id"`
	SourceURL      string                 `json:"source_url,omitempty"`
	Name           string                 `json:"name"`
	Collection     string                 `json:"collection"`
	ChunkCount     int                    `json:"chunk_count"`
	Status         string                 `json:"status"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	ChunkSize      int                    `json:"chunk_size,omitempty"`
	ChunkOverlap   int                    `json:"chunk_overlap,omitempty"`
	EmbeddingModel string                 `json:"embedding_model,omitempty"`
}

// ToDTO converts Document domain model to DTO
func (d *Document) ToDTO() DocumentDTO {
	return DocumentDTO{
		ID:             d.ID,
		SourceURL:      d.SourceURL,
		Name:           d.Name,
		Collection:     d.Collection,
		ChunkCount:     d.ChunkCount,
		Status:         string(d.Status),
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      d.UpdatedAt.Format(time.RFC3339),
		Metadata:       d.Metadata,
		ChunkSize:      d.ChunkSize,
		ChunkOverlap:   d.ChunkOverlap,
		EmbeddingModel: d.EmbeddingModel,
	}
}

// DocumentFromDTO converts DocumentDTO to Document domain model
func DocumentFromDTO(dto DocumentDTO) (*Document, error) {
	createdAt, err := time.Parse(time.RFC3339, dto.CreatedAt)
	if err != nil {
		createdAt = time.Now()
	}

	updatedAt, err := time.Parse(time.RFC3339, dto.UpdatedAt)
	if err != nil {
		updatedAt = time.Now()
	}

	return &Document{
		ID:             dto.ID,
		SourceURL:      dto.SourceURL,
		Name:           dto.Name,
		Collection:     dto.Collection,
		ChunkCount:     dto.ChunkCount,
		Status:         DocumentStatus(dto.Status),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		Metadata:       dto.Metadata,
		ChunkSize:      dto.ChunkSize,
		ChunkOverlap:   dto.ChunkOverlap,
		EmbeddingModel: dto.EmbeddingModel,
	}, nil
}

// Validate checks if the document is valid
func (d *Document) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if d.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if d.Collection == "" {
		return &ValidationError{Field: "collection", Message: "collection is required"}
	}
	if d.ChunkCount < 0 {
		return &ValidationError{Field: "chunk_count", Message: "chunk count cannot be negative"}
	}
	return nil
}

// IsValid checks if document status is valid
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusCompleted, DocumentStatusFailed, DocumentStatusDeleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of document status
func (s DocumentStatus) String() string {
	return string(s)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
