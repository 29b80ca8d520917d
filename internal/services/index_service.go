package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"askdocs/internal/models"
	"askdocs/internal/repositories"
)

// EmptyIndexError indicates a search against an index that was never built or
// holds zero chunks. Distinct from a successful search with no matches.
type EmptyIndexError struct {
	Collection string
}

func (e *EmptyIndexError) Error() string {
	if e.Collection == "" {
		return "index has not been built yet"
	}
	return "index is empty: " + e.Collection
}

// EmbeddingModelMismatchError indicates the published index was built with a
// different embedding model than the one configured for queries. Searching
// across embedding spaces produces garbage, so it is refused outright.
type EmbeddingModelMismatchError struct {
	IndexModel string
	QueryModel string
}

func (e *EmbeddingModelMismatchError) Error() string {
	return fmt.Sprintf("index was built with embedding model %q but queries use %q", e.IndexModel, e.QueryModel)
}

const embeddingModelMetadataKey = "embedding_model"

// IndexService owns the searchable chunk index. Builds embed every chunk and
// publish the result atomically: a rebuild writes into a fresh versioned
// collection and swaps it in only after every chunk is stored, so concurrent
// searches never observe a half-built index.
type IndexService struct {
	embedder   EmbeddingService
	vectorRepo repositories.VectorRepository
	baseName   string
	logger     *log.Logger

	mu        sync.RWMutex
	published string // current collection name, "" until the first successful build
	version   int
}

// NewIndexService creates a new index service. baseName prefixes the
// versioned collection names.
func NewIndexService(embedder EmbeddingService, vectorRepo repositories.VectorRepository, baseName string, logger *log.Logger) *IndexService {
	if baseName == "" {
		baseName = "documents"
	}
	return &IndexService{
		embedder:   embedder,
		vectorRepo: vectorRepo,
		baseName:   baseName,
		logger:     logger,
	}
}

// BuildIndex embeds chunks and publishes them as a brand new index, replacing
// whatever was published before. Any embedding failure aborts the whole build
// and leaves the previous index untouched; there is no partial index.
func (s *IndexService) BuildIndex(ctx context.Context, chunks []*models.Chunk) error {
	s.mu.RLock()
	next := fmt.Sprintf("%s_v%d", s.baseName, s.version+1)
	s.mu.RUnlock()

	s.logger.Printf("Building index %s from %d chunks", next, len(chunks))

	embedded, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	metadata := map[string]interface{}{
		embeddingModelMetadataKey: s.embedder.ModelID(),
	}
	if err := s.vectorRepo.CreateCollection(ctx, next, metadata); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", next, err)
	}

	if err := s.vectorRepo.StoreChunks(ctx, next, embedded); err != nil {
		// Clean up the unpublished collection; the old index stays live
		_ = s.vectorRepo.DeleteCollection(ctx, next)
		return fmt.Errorf("failed to store chunks in %s: %w", next, err)
	}

	s.mu.Lock()
	previous := s.published
	s.published = next
	s.version++
	s.mu.Unlock()

	if previous != "" {
		if err := s.vectorRepo.DeleteCollection(ctx, previous); err != nil {
			s.logger.Printf("Failed to delete superseded collection %s: %v", previous, err)
		}
	}

	s.logger.Printf("Index %s published (%d chunks)", next, len(embedded))
	return nil
}

// IndexChunks embeds chunks and appends them to the published index, creating
// it first if no build has happened yet. Used by the ingestion pipeline to add
// documents incrementally.
func (s *IndexService) IndexChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	embedded, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.published == "" {
		name := fmt.Sprintf("%s_v%d", s.baseName, s.version+1)
		metadata := map[string]interface{}{
			embeddingModelMetadataKey: s.embedder.ModelID(),
		}
		if err := s.vectorRepo.CreateCollection(ctx, name, metadata); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		s.published = name
		s.version++
	}

	if err := s.vectorRepo.StoreChunks(ctx, s.published, embedded); err != nil {
		return fmt.Errorf("failed to store chunks in %s: %w", s.published, err)
	}

	s.logger.Printf("Indexed %d chunks into %s", len(embedded), s.published)
	return nil
}

// Search embeds the query with the index's embedding model and returns up to
// topK chunks in descending similarity order, ties broken by insertion order.
// Safe for concurrent use; read-only.
func (s *IndexService) Search(ctx context.Context, query string, topK int) ([]*models.SearchResult, error) {
	if topK <= 0 {
		return nil, &models.ValidationError{Field: "top_k", Message: "top_k must be positive"}
	}

	s.mu.RLock()
	collection := s.published
	s.mu.RUnlock()

	if collection == "" {
		return nil, &EmptyIndexError{}
	}

	if err := s.checkEmbeddingModel(ctx, collection); err != nil {
		return nil, err
	}

	count, err := s.vectorRepo.CountChunks(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to count index %s: %w", collection, err)
	}
	if count == 0 {
		return nil, &EmptyIndexError{Collection: collection}
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, NewEmbeddingServiceError("failed to embed query", err)
	}

	results, err := s.vectorRepo.SearchChunks(ctx, collection, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return results, nil
}

// DeleteDocument removes a document's chunks from the published index
func (s *IndexService) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.RLock()
	collection := s.published
	s.mu.RUnlock()

	if collection == "" {
		return 0, nil
	}
	return s.vectorRepo.DeleteDocument(ctx, collection, documentID)
}

// ChunkCount returns the number of chunks in the published index
func (s *IndexService) ChunkCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	collection := s.published
	s.mu.RUnlock()

	if collection == "" {
		return 0, nil
	}
	return s.vectorRepo.CountChunks(ctx, collection)
}

// EmbeddingModelID reports which embedding model this index uses
func (s *IndexService) EmbeddingModelID() string {
	return s.embedder.ModelID()
}

func (s *IndexService) embedChunks(ctx context.Context, chunks []*models.Chunk) ([]*models.Chunk, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, NewEmbeddingServiceError("index build aborted", err)
	}

	embedded := make([]*models.Chunk, len(chunks))
	for i, chunk := range chunks {
		copied := *chunk
		copied.Embedding = vectors[i]
		embedded[i] = &copied
	}
	return embedded, nil
}

func (s *IndexService) checkEmbeddingModel(ctx context.Context, collection string) error {
	metadata, err := s.vectorRepo.GetCollectionMetadata(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to read index metadata: %w", err)
	}

	indexModel, _ := metadata[embeddingModelMetadataKey].(string)
	if indexModel != "" && indexModel != s.embedder.ModelID() {
		return &EmbeddingModelMismatchError{
			IndexModel: indexModel,
			QueryModel: s.embedder.ModelID(),
		}
	}
	return nil
}
