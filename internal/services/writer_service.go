package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"askdocs/internal/models"
)

const writerTemplate = `You are a writing assistant. Fulfil the user's request.

%sRequest: %s`

const writerMaterialHeader = `Earlier material from this conversation, use it where it helps:

%s

`

// WriterService is the content-generation handler behind the write_content
// tool. It harvests the reply half of every prior conversation turn, in
// order, as supporting material; the original questions are deliberately
// dropped to keep the material focused on produced content.
type WriterService struct {
	completion CompletionService
	logger     *log.Logger
}

// NewWriterService creates a new writer service
func NewWriterService(completion CompletionService, logger *log.Logger) *WriterService {
	return &WriterService{
		completion: completion,
		logger:     logger,
	}
}

// Write forwards the request plus harvested history material verbatim to the
// completion service and returns its raw text.
func (s *WriterService) Write(ctx context.Context, request string, history []models.ConversationTurn) (string, error) {
	if request == "" {
		return "", &models.ValidationError{Field: "request", Message: "request is required"}
	}

	replies := make([]string, 0, len(history))
	for _, turn := range history {
		if turn.Reply != "" {
			replies = append(replies, turn.Reply)
		}
	}

	materialBlock := ""
	if len(replies) > 0 {
		materialBlock = fmt.Sprintf(writerMaterialHeader, strings.Join(replies, "\n\n"))
	}

	s.logger.Printf("Writing content with %d prior replies as material", len(replies))

	prompt := fmt.Sprintf(writerTemplate, materialBlock, request)

	reply, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", NewCompletionError("completion service returned an empty reply", nil)
	}

	return reply, nil
}
