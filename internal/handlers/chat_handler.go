package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"askdocs/internal/models"
	"askdocs/internal/services"
)

// routerFailureReply is returned as the assistant's turn when the router
// cannot settle on a tool even after the strict retry.
const routerFailureReply = "Sorry, I could not determine how to help with that request. Try rephrasing it."

// ChatHandler handles HTTP requests for question answering and agentic chat
type ChatHandler struct {
	answerer   *services.AnswerService
	dispatcher *services.DispatcherService
	logger     *log.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(answerer *services.AnswerService, dispatcher *services.DispatcherService, logger *log.Logger) *ChatHandler {
	return &ChatHandler{
		answerer:   answerer,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Ask handles retrieval-augmented question answering
// @Summary Ask a question
// @Description Answer a question using retrieved document context
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.AskRequest true "Ask request"
// @Success 200 {object} models.AskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/ask [post]
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	h.logger.Printf("Ask request from %s", r.RemoteAddr)

	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("Failed to decode request: %v", err)
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.answerer.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		h.logger.Printf("Answer failed: %v", err)
		h.sendError(w, answerStatusCode(err), err.Error())
		return
	}

	contextChunks := make([]models.ChunkDTO, len(result.Chunks))
	for i, chunk := range result.Chunks {
		contextChunks[i] = models.ChunkDTO{
			ID:         chunk.ChunkID,
			DocumentID: chunk.DocumentID,
			Text:       chunk.Text,
			Metadata:   chunk.Metadata,
			ChunkIndex: chunk.ChunkIndex,
		}
	}

	h.sendJSON(w, http.StatusOK, models.AskResponse{
		Answer:  result.Answer,
		Status:  "success",
		Context: contextChunks,
	})
}

// Chat handles agentic chat turns
// @Summary Agentic chat
// @Description Route a chat message to the matching tool and return its reply
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.AgentChatRequest true "Chat request"
// @Success 200 {object} models.AgentChatResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	h.logger.Printf("Chat request from %s", r.RemoteAddr)

	var req models.AgentChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("Failed to decode request: %v", err)
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.dispatcher.Handle(r.Context(), req.Message, req.History)
	if err != nil {
		if isRoutingFailure(err) {
			// The turn still gets a reply; the conversation carries on
			h.logger.Printf("Routing failed for chat turn: %v", err)
			h.sendJSON(w, http.StatusOK, models.AgentChatResponse{
				Message: routerFailureReply,
				Status:  "error",
			})
			return
		}
		h.logger.Printf("Chat turn failed: %v", err)
		h.sendError(w, answerStatusCode(err), err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, models.AgentChatResponse{
		Message: result.Reply,
		Status:  "success",
		Tool:    string(result.Tool),
	})
}

// answerStatusCode maps service errors to HTTP status codes.
func answerStatusCode(err error) int {
	var validationErr *models.ValidationError
	var emptyErr *services.EmptyIndexError
	var completionErr *services.CompletionError
	var embeddingErr *services.EmbeddingServiceError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &emptyErr):
		return http.StatusNotFound
	case errors.As(err, &completionErr), errors.As(err, &embeddingErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isRoutingFailure(err error) bool {
	var malformed *services.MalformedRouterOutputError
	var unknown *services.UnknownToolError
	return errors.As(err, &malformed) || errors.As(err, &unknown)
}

// Helper methods

func (h *ChatHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *ChatHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Status:  status,
	})
}
