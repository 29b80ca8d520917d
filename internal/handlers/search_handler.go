package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"askdocs/internal/models"
	"askdocs/internal/services"
)

// SearchHandler handles HTTP requests for vector search operations
type SearchHandler struct {
	index  *services.IndexService
	logger *log.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(index *services.IndexService, logger *log.Logger) *SearchHandler {
	return &SearchHandler{
		index:  index,
		logger: logger,
	}
}

// Search handles search requests
// @Summary Search indexed chunks
// @Description Perform vector similarity search across the chunk index
// @Tags search
// @Accept json
// @Produce json
// @Param query body models.SearchRequest true "Search request"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/search [post]
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.logger.Printf("Search request from %s", r.RemoteAddr)

	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("Failed to decode request: %v", err)
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respond(w, r, &req)
}

// SearchSimple handles simple search requests via query parameters
// @Summary Simple search
// @Description Perform a search using query parameters
// @Tags search
// @Produce json
// @Param q query string true "Search query"
// @Param top_k query int false "Number of results" default(5)
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/search [get]
func (h *SearchHandler) SearchSimple(w http.ResponseWriter, r *http.Request) {
	h.logger.Printf("Simple search request from %s", r.RemoteAddr)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.sendError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	topK := 5
	if topKStr := r.URL.Query().Get("top_k"); topKStr != "" {
		if parsed, err := strconv.Atoi(topKStr); err == nil {
			topK = parsed
		}
	}

	req := &models.SearchRequest{Query: query, TopK: topK}
	if err := req.Validate(); err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respond(w, r, req)
}

func (h *SearchHandler) respond(w http.ResponseWriter, r *http.Request, req *models.SearchRequest) {
	results, err := h.index.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		var emptyErr *services.EmptyIndexError
		if errors.As(err, &emptyErr) {
			h.sendError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Printf("Search failed: %v", err)
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := models.SearchResponse{
		Results:    make([]models.SearchResult, 0, len(results)),
		Query:      req.Query,
		TotalFound: len(results),
	}
	for _, result := range results {
		if req.MinScore != nil && result.Score < *req.MinScore {
			continue
		}
		resp.Results = append(resp.Results, *result)
	}
	resp.TotalFound = len(resp.Results)

	h.sendJSON(w, http.StatusOK, resp)
}

// Helper methods

func (h *SearchHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *SearchHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Status:  status,
	})
}
