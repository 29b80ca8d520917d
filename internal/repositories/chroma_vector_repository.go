package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"askdocs/internal/db"
	"askdocs/internal/models"
)

// ChromaVectorRepository implements VectorRepository using ChromaDB
type ChromaVectorRepository struct {
	client *db.ChromaClient
}

// NewChromaVectorRepository creates a new ChromaDB-backed vector repository
func NewChromaVectorRepository(client *db.ChromaClient) VectorRepository {
	return &ChromaVectorRepository{
		client: client,
	}
}

// CreateCollection creates a new collection
func (r *ChromaVectorRepository) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) error {
	exists, err := r.CollectionExists(ctx, name)
	if err != nil {
		return NewVectorRepositoryError("create_collection", err, "")
	}
	if exists {
		return CollectionAlreadyExistsError(name)
	}

	if _, err := r.client.CreateCollection(ctx, name, metadata); err != nil {
		return NewVectorRepositoryError("create_collection", err, "failed to create collection: "+name)
	}

	return nil
}

// DeleteCollection deletes a collection
func (r *ChromaVectorRepository) DeleteCollection(ctx context.Context, name string) error {
	if err := r.client.DeleteCollection(ctx, name); err != nil {
		return NewVectorRepositoryError("delete_collection", err, "failed to delete collection: "+name)
	}
	return nil
}

// CollectionExists checks if a collection exists
func (r *ChromaVectorRepository) CollectionExists(ctx context.Context, name string) (bool, error) {
	if _, err := r.client.GetCollection(ctx, name); err != nil {
		// Assume not found error means collection doesn't exist
		return false, nil
	}
	return true, nil
}

// GetCollectionMetadata returns the metadata recorded on a collection
func (r *ChromaVectorRepository) GetCollectionMetadata(ctx context.Context, name string) (map[string]interface{}, error) {
	collection, err := r.client.GetCollection(ctx, name)
	if err != nil {
		return nil, CollectionNotFoundError(name)
	}
	return collection.Metadata, nil
}

// CountChunks returns the number of chunks stored in a collection
func (r *ChromaVectorRepository) CountChunks(ctx context.Context, name string) (int, error) {
	count, err := r.client.CountCollection(ctx, name)
	if err != nil {
		return 0, NewVectorRepositoryError("count_chunks", err, "failed to count collection: "+name)
	}
	return count, nil
}

// StoreChunks stores embedded chunks in a collection
func (r *ChromaVectorRepository) StoreChunks(ctx context.Context, collectionName string, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	exists, err := r.CollectionExists(ctx, collectionName)
	if err != nil {
		return NewVectorRepositoryError("store_chunks", err, "")
	}
	if !exists {
		return CollectionNotFoundError(collectionName)
	}

	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))

	for i, chunk := range chunks {
		ids[i] = chunk.ID
		documents[i] = chunk.Text
		embeddings[i] = chunk.Embedding

		metadata := map[string]interface{}{
			"document_id": chunk.DocumentID,
			"chunk_index": chunk.ChunkIndex,
		}

		// ChromaDB metadata only supports simple types (string, int, float,
		// bool); arrays and objects must be serialized to JSON strings.
		for k, v := range chunk.Metadata {
			switch val := v.(type) {
			case []string, []interface{}, map[string]interface{}:
				if jsonBytes, err := json.Marshal(val); err == nil {
					metadata[k] = string(jsonBytes)
				}
			default:
				metadata[k] = v
			}
		}

		metadatas[i] = metadata
	}

	if err := r.client.AddRecords(ctx, collectionName, ids, documents, embeddings, metadatas); err != nil {
		return NewVectorRepositoryError("store_chunks", err, fmt.Sprintf("failed to store %d chunks", len(chunks)))
	}

	return nil
}

// SearchChunks searches a collection for the chunks nearest to the query
// embedding, ordered by descending similarity.
func (r *ChromaVectorRepository) SearchChunks(ctx context.Context, collectionName string, queryEmbedding []float32, topK int) ([]*models.SearchResult, error) {
	exists, err := r.CollectionExists(ctx, collectionName)
	if err != nil {
		return nil, NewVectorRepositoryError("search_chunks", err, "")
	}
	if !exists {
		return nil, CollectionNotFoundError(collectionName)
	}

	results, err := r.client.Query(ctx, collectionName, [][]float32{queryEmbedding}, topK, nil)
	if err != nil {
		return nil, NewVectorRepositoryError("search_chunks", err, "query failed")
	}

	searchResults := make([]*models.SearchResult, 0)
	if len(results.IDs) > 0 {
		for i := 0; i < len(results.IDs[0]); i++ {
			metadata := map[string]interface{}{}
			if len(results.Metadatas) > 0 && len(results.Metadatas[0]) > i {
				metadata = results.Metadatas[0][i]
			}

			var text string
			if len(results.Documents) > 0 && len(results.Documents[0]) > i {
				text = results.Documents[0][i]
			}

			var distance float32
			if len(results.Distances) > 0 && len(results.Distances[0]) > i {
				distance = results.Distances[0][i]
			}

			documentID := ""
			if docID, ok := metadata["document_id"].(string); ok {
				documentID = docID
			}

			chunkIndex := 0
			if ci, ok := metadata["chunk_index"].(float64); ok {
				chunkIndex = int(ci)
			}

			searchResults = append(searchResults, &models.SearchResult{
				ChunkID:    results.IDs[0][i],
				DocumentID: documentID,
				Text:       text,
				Score:      1.0 - distance, // cosine distance -> similarity
				Distance:   distance,
				Metadata:   metadata,
				ChunkIndex: chunkIndex,
			})
		}
	}

	return searchResults, nil
}

// DeleteDocument deletes all chunks for a document and returns how many were removed
func (r *ChromaVectorRepository) DeleteDocument(ctx context.Context, collectionName string, documentID string) (int, error) {
	exists, err := r.CollectionExists(ctx, collectionName)
	if err != nil {
		return 0, NewVectorRepositoryError("delete_document", err, "")
	}
	if !exists {
		return 0, CollectionNotFoundError(collectionName)
	}

	where := map[string]interface{}{
		"document_id": documentID,
	}
	result, err := r.client.GetRecords(ctx, collectionName, where, 0, 0)
	if err != nil {
		return 0, NewVectorRepositoryError("delete_document", err, "failed to get chunks for document")
	}

	if len(result.IDs) == 0 {
		return 0, nil
	}

	if err := r.client.DeleteRecords(ctx, collectionName, result.IDs); err != nil {
		return 0, NewVectorRepositoryError("delete_document", err, fmt.Sprintf("failed to delete %d chunks", len(result.IDs)))
	}

	return len(result.IDs), nil
}

// Ping checks if ChromaDB is alive
func (r *ChromaVectorRepository) Ping(ctx context.Context) error {
	if err := r.client.Heartbeat(ctx); err != nil {
		return NewVectorRepositoryError("ping", err, "ChromaDB heartbeat failed")
	}
	return nil
}

// Close closes the ChromaDB client
func (r *ChromaVectorRepository) Close() error {
	r.client.Close()
	return nil
}
