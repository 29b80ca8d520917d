package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"askdocs/internal/models"
)

// DispatchResult is the outcome of one dispatched conversation turn.
type DispatchResult struct {
	Reply string
	Tool  ToolDecision
}

// DispatcherService connects the router's tool decision to the handler that
// serves it. The answerer only ever sees the current query; the writer also
// receives the conversation history.
type DispatcherService struct {
	router   *RouterService
	answerer *AnswerService
	writer   *WriterService
	catalog  []Tool
	logger   *log.Logger
}

// NewDispatcherService creates a new dispatcher service
func NewDispatcherService(router *RouterService, answerer *AnswerService, writer *WriterService, catalog []Tool, logger *log.Logger) *DispatcherService {
	return &DispatcherService{
		router:   router,
		answerer: answerer,
		writer:   writer,
		catalog:  catalog,
		logger:   logger,
	}
}

// Handle routes a single user turn. If the router's first answer cannot be
// parsed or names an unlisted tool, the router is asked once more with a
// stricter format reminder before the turn fails.
func (s *DispatcherService) Handle(ctx context.Context, query string, history []models.ConversationTurn) (*DispatchResult, error) {
	if query == "" {
		return nil, &models.ValidationError{Field: "message", Message: "message is required"}
	}

	decision, err := s.router.Decide(ctx, query, s.catalog)
	if err != nil {
		if !isRecoverableRoutingError(err) {
			return nil, err
		}
		s.logger.Printf("Router output rejected, retrying with strict reminder: %v", err)
		decision, err = s.router.DecideStrict(ctx, query, s.catalog)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Printf("Dispatching query to tool: %s", decision)

	switch decision {
	case ToolFindInformation:
		result, err := s.answerer.Answer(ctx, query, DefaultAnswerTopK)
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Reply: result.Answer, Tool: decision}, nil
	case ToolWriteContent:
		reply, err := s.writer.Write(ctx, query, history)
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Reply: reply, Tool: decision}, nil
	default:
		return nil, fmt.Errorf("no handler registered for tool %q", decision)
	}
}

// isRecoverableRoutingError reports whether a routing failure is worth one
// retry with a stricter prompt, as opposed to a transport or completion
// failure that a retry will not fix.
func isRecoverableRoutingError(err error) bool {
	var malformed *MalformedRouterOutputError
	var unknown *UnknownToolError
	return errors.As(err, &malformed) || errors.As(err, &unknown)
}
