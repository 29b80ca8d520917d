package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"askdocs/internal/handlers"
)

// Handlers bundles everything RegisterRoutes wires into the router
type Handlers struct {
	Health http.HandlerFunc
	Home   http.HandlerFunc

	SearchHandler   *handlers.SearchHandler
	ChatHandler     *handlers.ChatHandler
	DocumentHandler *handlers.DocumentHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	// Health endpoints
	router.HandleFunc("/health", h.Health).Methods("GET")

	// Main routes
	router.HandleFunc("/", h.Home).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Search
	api.HandleFunc("/search", h.SearchHandler.Search).Methods("POST")
	api.HandleFunc("/search", h.SearchHandler.SearchSimple).Methods("GET")

	// Question answering and agentic chat
	api.HandleFunc("/ask", h.ChatHandler.Ask).Methods("POST")
	api.HandleFunc("/chat", h.ChatHandler.Chat).Methods("POST")

	// Document lifecycle
	api.HandleFunc("/documents", h.DocumentHandler.Ingest).Methods("POST")
	api.HandleFunc("/documents", h.DocumentHandler.List).Methods("GET")
	api.HandleFunc("/documents/{id}", h.DocumentHandler.Get).Methods("GET")
	api.HandleFunc("/documents/{id}", h.DocumentHandler.Delete).Methods("DELETE")

	// Background jobs
	api.HandleFunc("/jobs", h.DocumentHandler.QueueStatus).Methods("GET")
	api.HandleFunc("/jobs/{id}", h.DocumentHandler.GetJob).Methods("GET")
	api.HandleFunc("/index/rebuild", h.DocumentHandler.RebuildIndex).Methods("POST")
}
