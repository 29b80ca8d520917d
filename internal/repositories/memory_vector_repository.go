package repositories

import (
	"context"
	"math"
	"sort"
	"sync"

	"askdocs/internal/models"
)

// MemoryVectorRepository implements VectorRepository with an in-process
// brute-force cosine search. Results are deterministic: ties in similarity
// are broken by insertion order, earliest chunk first.
type MemoryVectorRepository struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	metadata map[string]interface{}
	chunks   []*models.Chunk
	vectors  [][]float32
}

// NewMemoryVectorRepository creates an empty in-memory vector repository
func NewMemoryVectorRepository() VectorRepository {
	return &MemoryVectorRepository{
		collections: make(map[string]*memoryCollection),
	}
}

// CreateCollection creates a new collection
func (r *MemoryVectorRepository) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[name]; exists {
		return CollectionAlreadyExistsError(name)
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	r.collections[name] = &memoryCollection{metadata: metadata}
	return nil
}

// DeleteCollection deletes a collection
func (r *MemoryVectorRepository) DeleteCollection(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[name]; !exists {
		return CollectionNotFoundError(name)
	}
	delete(r.collections, name)
	return nil
}

// CollectionExists checks if a collection exists
func (r *MemoryVectorRepository) CollectionExists(ctx context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.collections[name]
	return exists, nil
}

// GetCollectionMetadata returns the metadata recorded on a collection
func (r *MemoryVectorRepository) GetCollectionMetadata(ctx context.Context, name string) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coll, exists := r.collections[name]
	if !exists {
		return nil, CollectionNotFoundError(name)
	}
	return coll.metadata, nil
}

// CountChunks returns the number of chunks stored in a collection
func (r *MemoryVectorRepository) CountChunks(ctx context.Context, name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coll, exists := r.collections[name]
	if !exists {
		return 0, CollectionNotFoundError(name)
	}
	return len(coll.chunks), nil
}

// StoreChunks appends embedded chunks to a collection
func (r *MemoryVectorRepository) StoreChunks(ctx context.Context, collectionName string, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	coll, exists := r.collections[collectionName]
	if !exists {
		return CollectionNotFoundError(collectionName)
	}

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return NewVectorRepositoryError("store_chunks", nil, "chunk has no embedding: "+chunk.ID)
		}
	}

	for _, chunk := range chunks {
		coll.chunks = append(coll.chunks, chunk)
		coll.vectors = append(coll.vectors, chunk.Embedding)
	}
	return nil
}

// SearchChunks returns the topK chunks nearest to the query embedding by
// cosine similarity, in descending order.
func (r *MemoryVectorRepository) SearchChunks(ctx context.Context, collectionName string, queryEmbedding []float32, topK int) ([]*models.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coll, exists := r.collections[collectionName]
	if !exists {
		return nil, CollectionNotFoundError(collectionName)
	}

	type scored struct {
		index int
		score float32
	}

	scores := make([]scored, len(coll.vectors))
	for i, vec := range coll.vectors {
		scores[i] = scored{index: i, score: cosineSimilarity(queryEmbedding, vec)}
	}

	// Stable sort keeps insertion order for equal scores
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if topK > len(scores) {
		topK = len(scores)
	}

	results := make([]*models.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		chunk := coll.chunks[scores[i].index]
		results = append(results, &models.SearchResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Text:       chunk.Text,
			Score:      scores[i].score,
			Distance:   1.0 - scores[i].score,
			Metadata:   chunk.Metadata,
			ChunkIndex: chunk.ChunkIndex,
		})
	}
	return results, nil
}

// DeleteDocument removes all chunks belonging to a document
func (r *MemoryVectorRepository) DeleteDocument(ctx context.Context, collectionName string, documentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coll, exists := r.collections[collectionName]
	if !exists {
		return 0, CollectionNotFoundError(collectionName)
	}

	kept := coll.chunks[:0]
	keptVectors := coll.vectors[:0]
	removed := 0
	for i, chunk := range coll.chunks {
		if chunk.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, chunk)
		keptVectors = append(keptVectors, coll.vectors[i])
	}
	coll.chunks = kept
	coll.vectors = keptVectors
	return removed, nil
}

// Ping always succeeds for the in-memory implementation
func (r *MemoryVectorRepository) Ping(ctx context.Context) error {
	return nil
}

// Close releases nothing for the in-memory implementation
func (r *MemoryVectorRepository) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero-length or zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
