package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"askdocs/internal/models"
)

// UnknownAnswerMarker is the fixed phrase the instruction template tells the
// model to use when the retrieved context does not contain the answer. This
// is a prompt-level contract; the model obeying it cannot be enforced here.
const UnknownAnswerMarker = "I don't know based on the provided documents."

// answerTemplate wires the retrieved context and the question into a single
// completion request.
const answerTemplate = `You are a helpful assistant answering questions about a set of documents.

Answer the question using ONLY the context below. Do not use outside knowledge.
If the context does not contain the answer, reply exactly: %s

Context:
%s

Question: %s`

// DefaultAnswerTopK is how many chunks are retrieved per question when the
// caller does not say otherwise.
const DefaultAnswerTopK = 4

// AnswerService composes a question, the retrieved chunks, and the fixed
// instruction template into one completion request and returns the raw reply.
type AnswerService struct {
	index      *IndexService
	completion CompletionService
	logger     *log.Logger
}

// NewAnswerService creates a new answer service
func NewAnswerService(index *IndexService, completion CompletionService, logger *log.Logger) *AnswerService {
	return &AnswerService{
		index:      index,
		completion: completion,
		logger:     logger,
	}
}

// AnswerResult carries the reply plus the chunks that were forwarded as context
type AnswerResult struct {
	Answer string
	Chunks []*models.SearchResult
}

// Answer retrieves the topK most similar chunks, forwards them with the
// question to the completion service, and returns the raw completion text.
// Retrieval failures propagate unchanged; there is no fallback answer and no
// internal retry.
func (s *AnswerService) Answer(ctx context.Context, question string, topK int) (*AnswerResult, error) {
	if question == "" {
		return nil, &models.ValidationError{Field: "question", Message: "question is required"}
	}
	if topK <= 0 {
		topK = DefaultAnswerTopK
	}

	s.logger.Printf("Answering question with top_k=%d: %s", topK, question)

	results, err := s.index.Search(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	// Chunk texts joined in result order; similarity ranking is preserved
	texts := make([]string, len(results))
	for i, result := range results {
		texts[i] = result.Text
	}
	contextBlock := strings.Join(texts, "\n\n")

	prompt := fmt.Sprintf(answerTemplate, UnknownAnswerMarker, contextBlock, question)

	answer, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(answer) == "" {
		return nil, NewCompletionError("completion service returned an empty answer", nil)
	}

	s.logger.Printf("Answered from %d context chunks", len(results))

	return &AnswerResult{
		Answer: answer,
		Chunks: results,
	}, nil
}
