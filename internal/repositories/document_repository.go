package repositories

import (
	"context"

	"askdocs/internal/models"
)

// DocumentRepository defines the interface for the document metadata registry
type DocumentRepository interface {
	Register(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, documentID string) (*models.Document, error)
	List(ctx context.Context) ([]*models.Document, error)
	ListByCollection(ctx context.Context, collection string) ([]*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, documentID string) error
	Exists(ctx context.Context, documentID string) (bool, error)
	Ping(ctx context.Context) error
}

// DocumentRepositoryError represents errors from the document repository
type DocumentRepositoryError struct {
	Operation  string
	DocumentID string
	Err        error
	Message    string
}

func (e *DocumentRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + ": unknown error"
}

func (e *DocumentRepositoryError) Unwrap() error {
	return e.Err
}

// NewDocumentRepositoryError creates a new document repository error
func NewDocumentRepositoryError(operation string, documentID string, err error, message string) *DocumentRepositoryError {
	return &DocumentRepositoryError{
		Operation:  operation,
		DocumentID: documentID,
		Err:        err,
		Message:    message,
	}
}

// DocumentNotFoundError indicates no document is registered under the ID
func DocumentNotFoundError(documentID string) error {
	return NewDocumentRepositoryError("get", documentID, nil, "document not found: "+documentID)
}

// DocumentAlreadyExistsError indicates a register collided with an existing document
func DocumentAlreadyExistsError(documentID string) error {
	return NewDocumentRepositoryError("register", documentID, nil, "document already exists: "+documentID)
}
