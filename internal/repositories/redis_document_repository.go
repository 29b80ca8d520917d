package repositories

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"askdocs/internal/models"
)

const (
	documentKeyPrefix  = "document:"
	documentIndexKey   = "documents:index"
	collectionIndexKey = "collection:"
)

// RedisDocumentRepository implements DocumentRepository using Redis
type RedisDocumentRepository struct {
	client *redis.Client
}

// NewRedisDocumentRepository creates a new Redis-based document repository
func NewRedisDocumentRepository(client *redis.Client) DocumentRepository {
	return &RedisDocumentRepository{
		client: client,
	}
}

// Register stores a new document in the registry
func (r *RedisDocumentRepository) Register(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	exists, err := r.Exists(ctx, doc.ID)
	if err != nil {
		return NewDocumentRepositoryError("register", doc.ID, err, "")
	}
	if exists {
		return DocumentAlreadyExistsError(doc.ID)
	}

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return NewDocumentRepositoryError("register", doc.ID, err, "failed to marshal document")
	}

	// Transaction keeps the document and its indexes consistent
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, documentKeyPrefix+doc.ID, docJSON, 0)
	pipe.SAdd(ctx, documentIndexKey, doc.ID)
	pipe.SAdd(ctx, collectionIndexKey+doc.Collection, doc.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewDocumentRepositoryError("register", doc.ID, err, "failed to execute transaction")
	}

	return nil
}

// Get retrieves a document by ID
func (r *RedisDocumentRepository) Get(ctx context.Context, documentID string) (*models.Document, error) {
	docJSON, err := r.client.Get(ctx, documentKeyPrefix+documentID).Result()
	if err == redis.Nil {
		return nil, DocumentNotFoundError(documentID)
	}
	if err != nil {
		return nil, NewDocumentRepositoryError("get", documentID, err, "")
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		return nil, NewDocumentRepositoryError("get", documentID, err, "failed to unmarshal document")
	}

	return &doc, nil
}

// List retrieves all documents, newest first
func (r *RedisDocumentRepository) List(ctx context.Context) ([]*models.Document, error) {
	docIDs, err := r.client.SMembers(ctx, documentIndexKey).Result()
	if err != nil {
		return nil, NewDocumentRepositoryError("list", "", err, "")
	}

	return r.fetchDocuments(ctx, docIDs)
}

// ListByCollection retrieves all documents in a collection, newest first
func (r *RedisDocumentRepository) ListByCollection(ctx context.Context, collection string) ([]*models.Document, error) {
	docIDs, err := r.client.SMembers(ctx, collectionIndexKey+collection).Result()
	if err != nil {
		return nil, NewDocumentRepositoryError("list_by_collection", "", err, "")
	}

	return r.fetchDocuments(ctx, docIDs)
}

func (r *RedisDocumentRepository) fetchDocuments(ctx context.Context, docIDs []string) ([]*models.Document, error) {
	docs := make([]*models.Document, 0, len(docIDs))
	for _, id := range docIDs {
		doc, err := r.Get(ctx, id)
		if err != nil {
			// Index can briefly lag the key space; skip dangling entries
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	return docs, nil
}

// Update replaces a stored document
func (r *RedisDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	exists, err := r.Exists(ctx, doc.ID)
	if err != nil {
		return NewDocumentRepositoryError("update", doc.ID, err, "")
	}
	if !exists {
		return DocumentNotFoundError(doc.ID)
	}

	doc.UpdatedAt = time.Now()

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return NewDocumentRepositoryError("update", doc.ID, err, "failed to marshal document")
	}

	if err := r.client.Set(ctx, documentKeyPrefix+doc.ID, docJSON, 0).Err(); err != nil {
		return NewDocumentRepositoryError("update", doc.ID, err, "")
	}

	return nil
}

// Delete removes a document and its index entries
func (r *RedisDocumentRepository) Delete(ctx context.Context, documentID string) error {
	doc, err := r.Get(ctx, documentID)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, documentKeyPrefix+documentID)
	pipe.SRem(ctx, documentIndexKey, documentID)
	pipe.SRem(ctx, collectionIndexKey+doc.Collection, documentID)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewDocumentRepositoryError("delete", documentID, err, "failed to execute transaction")
	}

	return nil
}

// Exists checks if a document is registered
func (r *RedisDocumentRepository) Exists(ctx context.Context, documentID string) (bool, error) {
	count, err := r.client.Exists(ctx, documentKeyPrefix+documentID).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ping checks if Redis is alive
func (r *RedisDocumentRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
