package services

import (
	"fmt"
	"strings"
	"time"

	"askdocs/internal/models"
)

// Splitter cuts raw document text into overlapping bounded-size chunks.
// Chunks are exact substrings of the input: window ends prefer a natural
// boundary (paragraph, then sentence, then word) within a tolerance below the
// configured size, and each window starts chunkOverlap runes before the
// previous one ended, so matches straddling a cut are still retrievable.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// DefaultChunkSize and DefaultChunkOverlap are measured in runes
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 120
)

// NewSplitter creates a splitter. chunkOverlap must be smaller than chunkSize.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, &models.ValidationError{Field: "chunk_size", Message: "chunk size must be positive"}
	}
	if chunkOverlap < 0 {
		return nil, &models.ValidationError{Field: "chunk_overlap", Message: "chunk overlap cannot be negative"}
	}
	if chunkOverlap >= chunkSize {
		return nil, &models.ValidationError{Field: "chunk_overlap", Message: "chunk overlap must be smaller than chunk size"}
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Split cuts text into chunks belonging to documentID. The final chunk may be
// shorter than the chunk size. Splitting is pure: same input, same chunks.
func (s *Splitter) Split(text string, documentID string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	// How far below the target size a boundary is still acceptable
	tolerance := s.chunkSize / 5

	now := time.Now()
	var chunks []models.Chunk

	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = breakPoint(runes, start, end, tolerance)
		}

		chunks = append(chunks, models.Chunk{
			ID:         fmt.Sprintf("%s_chunk_%d", documentID, len(chunks)),
			DocumentID: documentID,
			Text:       string(runes[start:end]),
			ChunkIndex: len(chunks),
			CreatedAt:  now,
		})

		if end == len(runes) {
			break
		}

		next := end - s.chunkOverlap
		if next <= start {
			// Boundary adjustment ate the whole advance; move forward anyway
			next = start + 1
		}
		start = next
	}

	return chunks
}

// ChunkSize returns the configured chunk size in runes
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// ChunkOverlap returns the configured overlap in runes
func (s *Splitter) ChunkOverlap() int {
	return s.chunkOverlap
}

// breakPoint picks the window end for a chunk spanning [start, limit).
// It scans backward at most tolerance runes looking for a paragraph break,
// then a sentence end, then a word boundary, and hard-cuts at limit when the
// window contains none.
func breakPoint(runes []rune, start, limit, tolerance int) int {
	floor := limit - tolerance
	if floor <= start {
		floor = start + 1
	}

	// Paragraph break: cut after the blank line
	for i := limit; i > floor; i-- {
		if i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}

	// Sentence end: cut after the terminator and its trailing space
	for i := limit; i > floor; i-- {
		if isSentenceEnd(runes[i-2]) && isSpace(runes[i-1]) {
			return i
		}
	}

	// Word boundary: cut after the space
	for i := limit; i > floor; i-- {
		if isSpace(runes[i-1]) {
			return i
		}
	}

	return limit
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return strings.ContainsRune(" \t\n\r", r)
}
