package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"askdocs/internal/models"
	"askdocs/internal/repositories"
)

const chunkKeywordLimit = 5

// IngestService runs the document ingestion pipeline: fetch, split, enrich
// with keywords, embed and index, then record the outcome in the document
// registry.
type IngestService struct {
	fetcher   *DocumentFetcher
	splitter  *Splitter
	keywords  *KeywordExtractor
	index     *IndexService
	documents repositories.DocumentRepository
	logger    *log.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(fetcher *DocumentFetcher, splitter *Splitter, keywords *KeywordExtractor, index *IndexService, documents repositories.DocumentRepository, logger *log.Logger) *IngestService {
	return &IngestService{
		fetcher:   fetcher,
		splitter:  splitter,
		keywords:  keywords,
		index:     index,
		documents: documents,
		logger:    logger,
	}
}

// IngestDocument processes one registered document. When text is empty the
// document's source URL is fetched. Status transitions are persisted so the
// registry always reflects where the pipeline got to.
func (s *IngestService) IngestDocument(ctx context.Context, doc *models.Document, text string) error {
	doc.Status = models.DocumentStatusProcessing
	doc.ChunkSize = s.splitter.ChunkSize()
	doc.ChunkOverlap = s.splitter.ChunkOverlap()
	doc.UpdatedAt = time.Now()
	if err := s.documents.Update(ctx, doc); err != nil {
		return fmt.Errorf("failed to mark document as processing: %w", err)
	}

	chunks, err := s.processDocument(ctx, doc, text)
	if err != nil {
		doc.Status = models.DocumentStatusFailed
		doc.UpdatedAt = time.Now()
		if updateErr := s.documents.Update(ctx, doc); updateErr != nil {
			s.logger.Printf("Failed to record ingest failure for document %s: %v", doc.ID, updateErr)
		}
		return err
	}

	doc.Status = models.DocumentStatusCompleted
	doc.ChunkCount = len(chunks)
	doc.EmbeddingModel = s.index.EmbeddingModelID()
	doc.UpdatedAt = time.Now()
	if err := s.documents.Update(ctx, doc); err != nil {
		return fmt.Errorf("failed to mark document as completed: %w", err)
	}

	s.logger.Printf("Ingested document %s: %d chunks indexed", doc.ID, len(chunks))
	return nil
}

func (s *IngestService) processDocument(ctx context.Context, doc *models.Document, text string) ([]*models.Chunk, error) {
	if text == "" {
		if doc.SourceURL == "" {
			return nil, &models.ValidationError{Field: "source_url", Message: "document has no text and no source URL"}
		}
		fetched, err := s.fetcher.Fetch(ctx, doc.SourceURL)
		if err != nil {
			return nil, err
		}
		text = fetched
	}

	split := s.splitter.Split(text, doc.ID)
	if len(split) == 0 {
		return nil, fmt.Errorf("document %s produced no chunks", doc.ID)
	}

	chunks := make([]*models.Chunk, len(split))
	for i := range split {
		chunks[i] = &split[i]
	}
	s.enrichChunks(chunks, doc)

	if err := s.index.IndexChunks(ctx, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// enrichChunks attaches document provenance and extracted keywords to each
// chunk's metadata. Keyword extraction failures are logged and skipped, they
// never fail an ingest.
func (s *IngestService) enrichChunks(chunks []*models.Chunk, doc *models.Document) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	scorer := NewTFIDFScorer(texts)

	for _, chunk := range chunks {
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]interface{})
		}
		chunk.Metadata["document_name"] = doc.Name
		chunk.Metadata["collection"] = doc.Collection
		if doc.SourceURL != "" {
			chunk.Metadata["source_url"] = doc.SourceURL
		}

		keywords := make([]string, 0, chunkKeywordLimit*2)
		seen := make(map[string]bool)

		words, err := s.keywords.TopWords(chunk.Text, chunkKeywordLimit)
		if err != nil {
			s.logger.Printf("Keyword extraction failed for chunk %s: %v", chunk.ID, err)
		} else {
			for _, word := range words {
				if !seen[word] {
					seen[word] = true
					keywords = append(keywords, word)
				}
			}
		}
		for _, result := range scorer.Score(chunk.Text, chunkKeywordLimit) {
			if !seen[result.Word] {
				seen[result.Word] = true
				keywords = append(keywords, result.Word)
			}
		}

		if len(keywords) > 0 {
			chunk.Metadata["keywords"] = keywords
		}
	}
}

// DeleteDocument removes a document's chunks from the index and marks the
// registry entry as deleted.
func (s *IngestService) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return 0, err
	}

	removed, err := s.index.DeleteDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	doc.Status = models.DocumentStatusDeleted
	doc.ChunkCount = 0
	doc.UpdatedAt = time.Now()
	if err := s.documents.Update(ctx, doc); err != nil {
		return removed, fmt.Errorf("chunks removed but registry update failed: %w", err)
	}

	s.logger.Printf("Deleted document %s: %d chunks removed", documentID, removed)
	return removed, nil
}

// RebuildIndex re-fetches every completed document that has a source URL,
// re-chunks it, and publishes a fresh index in one atomic swap. Documents
// without a source URL cannot be re-fetched and are skipped.
func (s *IngestService) RebuildIndex(ctx context.Context) (int, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return 0, err
	}

	var all []*models.Chunk
	rebuilt := 0
	for _, doc := range docs {
		if doc.Status != models.DocumentStatusCompleted || doc.SourceURL == "" {
			continue
		}
		text, err := s.fetcher.Fetch(ctx, doc.SourceURL)
		if err != nil {
			return 0, fmt.Errorf("rebuild aborted, failed to re-fetch document %s: %w", doc.ID, err)
		}
		split := s.splitter.Split(text, doc.ID)
		chunks := make([]*models.Chunk, len(split))
		for i := range split {
			chunks[i] = &split[i]
		}
		s.enrichChunks(chunks, doc)
		all = append(all, chunks...)
		rebuilt++
	}

	if err := s.index.BuildIndex(ctx, all); err != nil {
		return 0, err
	}

	s.logger.Printf("Rebuilt index from %d documents (%d chunks)", rebuilt, len(all))
	return rebuilt, nil
}
