package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"askdocs/internal/models"
	"askdocs/internal/repositories"
	"askdocs/internal/services"
	"askdocs/internal/workers"
)

const defaultJobMaxRetries = 3

// DocumentHandler handles HTTP requests for document lifecycle operations
type DocumentHandler struct {
	ingest    *services.IngestService
	documents repositories.DocumentRepository
	jobs      repositories.JobRepository
	pool      *workers.WorkerPool
	logger    *log.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(ingest *services.IngestService, documents repositories.DocumentRepository, jobs repositories.JobRepository, pool *workers.WorkerPool, logger *log.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingest:    ingest,
		documents: documents,
		jobs:      jobs,
		pool:      pool,
		logger:    logger,
	}
}

// IngestRequestBody is the payload for document ingestion
type IngestRequestBody struct {
	Name       string `json:"name"`
	Collection string `json:"collection,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
	Text       string `json:"text,omitempty"`
	Async      bool   `json:"async,omitempty"`
}

// IngestResponse is returned when a document is accepted for ingestion
type IngestResponse struct {
	Document models.DocumentDTO `json:"document"`
	JobID    string             `json:"job_id,omitempty"`
	Status   string             `json:"status"`
}

// Ingest handles document ingestion requests
// @Summary Ingest a document
// @Description Register a document and index its chunks, inline or via the job queue
// @Tags documents
// @Accept json
// @Produce json
// @Param request body IngestRequestBody true "Ingest request"
// @Success 201 {object} IngestResponse
// @Success 202 {object} IngestResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/documents [post]
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	h.logger.Printf("Ingest request from %s", r.RemoteAddr)

	var req IngestRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("Failed to decode request: %v", err)
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		h.sendError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Text == "" && req.SourceURL == "" {
		h.sendError(w, http.StatusBadRequest, "either text or source_url is required")
		return
	}

	now := time.Now()
	doc := &models.Document{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Collection: req.Collection,
		SourceURL:  req.SourceURL,
		Status:     models.DocumentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.documents.Register(r.Context(), doc); err != nil {
		h.logger.Printf("Failed to register document: %v", err)
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Async {
		job := &models.Job{
			ID:         uuid.New().String(),
			Type:       models.JobTypeDocumentIngest,
			Status:     models.JobStatusPending,
			Payload:    map[string]interface{}{"document_id": doc.ID, "text": req.Text},
			MaxRetries: defaultJobMaxRetries,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := h.jobs.Enqueue(r.Context(), job); err != nil {
			h.logger.Printf("Failed to enqueue ingest job: %v", err)
			h.sendError(w, http.StatusInternalServerError, err.Error())
			return
		}

		h.sendJSON(w, http.StatusAccepted, IngestResponse{
			Document: doc.ToDTO(),
			JobID:    job.ID,
			Status:   "queued",
		})
		return
	}

	if err := h.ingest.IngestDocument(r.Context(), doc, req.Text); err != nil {
		h.logger.Printf("Inline ingest failed for document %s: %v", doc.ID, err)
		h.sendError(w, ingestStatusCode(err), err.Error())
		return
	}

	h.sendJSON(w, http.StatusCreated, IngestResponse{
		Document: doc.ToDTO(),
		Status:   "completed",
	})
}

// List handles document listing requests
// @Summary List documents
// @Description List registered documents, optionally filtered by collection
// @Tags documents
// @Produce json
// @Param collection query string false "Collection name"
// @Success 200 {array} models.DocumentDTO
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/documents [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	var docs []*models.Document
	var err error

	if collection := r.URL.Query().Get("collection"); collection != "" {
		docs, err = h.documents.ListByCollection(r.Context(), collection)
	} else {
		docs, err = h.documents.List(r.Context())
	}
	if err != nil {
		h.logger.Printf("Failed to list documents: %v", err)
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dtos := make([]models.DocumentDTO, len(docs))
	for i, doc := range docs {
		dtos[i] = doc.ToDTO()
	}
	h.sendJSON(w, http.StatusOK, dtos)
}

// Get handles single document retrieval
// @Summary Get a document
// @Description Retrieve one document by ID
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} models.DocumentDTO
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]

	doc, err := h.documents.Get(r.Context(), documentID)
	if err != nil {
		h.sendError(w, repositoryStatusCode(err), err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, doc.ToDTO())
}

// Delete handles document deletion
// @Summary Delete a document
// @Description Remove a document's chunks from the index and mark it deleted
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} models.BasicResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/documents/{id} [delete]
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]
	h.logger.Printf("Delete request for document %s", documentID)

	removed, err := h.ingest.DeleteDocument(r.Context(), documentID)
	if err != nil {
		h.sendError(w, repositoryStatusCode(err), err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, models.BasicResponse{
		Message: fmt.Sprintf("Document deleted, %d chunks removed", removed),
		Status:  "success",
	})
}

// GetJob handles job status retrieval
// @Summary Get a job
// @Description Retrieve the status of a background job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.JobDTO
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/jobs/{id} [get]
func (h *DocumentHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.jobs.Get(r.Context(), jobID)
	if err != nil {
		h.sendError(w, repositoryStatusCode(err), err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, job.ToDTO())
}

// QueueStatusResponse reports queue depth and per-worker statistics
type QueueStatusResponse struct {
	PendingJobs int64                 `json:"pending_jobs"`
	Workers     []workers.WorkerStats `json:"workers"`
}

// QueueStatus handles job queue status requests
// @Summary Job queue status
// @Description Report pending job count and worker statistics
// @Tags jobs
// @Produce json
// @Success 200 {object} QueueStatusResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/jobs [get]
func (h *DocumentHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	pending, err := h.jobs.PendingCount(r.Context())
	if err != nil {
		h.logger.Printf("Failed to read queue depth: %v", err)
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.sendJSON(w, http.StatusOK, QueueStatusResponse{
		PendingJobs: pending,
		Workers:     h.pool.GetAllStats(),
	})
}

// RebuildIndex handles index rebuild requests
// @Summary Rebuild the index
// @Description Queue a job that re-fetches all documents and republishes the index
// @Tags jobs
// @Produce json
// @Success 202 {object} models.JobDTO
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/index/rebuild [post]
func (h *DocumentHandler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	h.logger.Printf("Index rebuild requested from %s", r.RemoteAddr)

	now := time.Now()
	job := &models.Job{
		ID:         uuid.New().String(),
		Type:       models.JobTypeIndexRebuild,
		Status:     models.JobStatusPending,
		Payload:    map[string]interface{}{},
		MaxRetries: defaultJobMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.logger.Printf("Failed to enqueue rebuild job: %v", err)
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.sendJSON(w, http.StatusAccepted, job.ToDTO())
}

func ingestStatusCode(err error) int {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func repositoryStatusCode(err error) int {
	var docErr *repositories.DocumentRepositoryError
	if errors.As(err, &docErr) && docErr.Operation == "get" {
		return http.StatusNotFound
	}
	var jobErr *repositories.JobRepositoryError
	if errors.As(err, &jobErr) && jobErr.Operation == "get" {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Helper methods

func (h *DocumentHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *DocumentHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Status:  status,
	})
}

// ErrorResponse is the shared error payload for all handlers
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}
