package repositories

import (
	"context"

	"askdocs/internal/models"
)

// VectorRepository defines the interface for vector database operations.
// Two implementations exist: a ChromaDB-backed one and an in-memory one used
// for tests and single-process deployments.
type VectorRepository interface {
	// Collection management
	CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) error
	DeleteCollection(ctx context.Context, name string) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	GetCollectionMetadata(ctx context.Context, name string) (map[string]interface{}, error)
	CountChunks(ctx context.Context, name string) (int, error)

	// Chunk operations
	StoreChunks(ctx context.Context, collectionName string, chunks []*models.Chunk) error
	SearchChunks(ctx context.Context, collectionName string, queryEmbedding []float32, topK int) ([]*models.SearchResult, error)
	DeleteDocument(ctx context.Context, collectionName string, documentID string) (int, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// VectorRepositoryError represents errors from the vector repository
type VectorRepositoryError struct {
	Operation string
	Err       error
	Message   string
}

func (e *VectorRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + ": unknown error"
}

func (e *VectorRepositoryError) Unwrap() error {
	return e.Err
}

// NewVectorRepositoryError creates a new vector repository error
func NewVectorRepositoryError(operation string, err error, message string) *VectorRepositoryError {
	return &VectorRepositoryError{
		Operation: operation,
		Err:       err,
		Message:   message,
	}
}

// CollectionNotFoundError indicates the named collection does not exist
func CollectionNotFoundError(name string) error {
	return NewVectorRepositoryError("get_collection", nil, "collection not found: "+name)
}

// CollectionAlreadyExistsError indicates a create collided with an existing collection
func CollectionAlreadyExistsError(name string) error {
	return NewVectorRepositoryError("create_collection", nil, "collection already exists: "+name)
}
