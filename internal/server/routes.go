package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Chat
	mux.HandleFunc("/api/chat", s.app.ChatHandler.ChatHandler)
	mux.HandleFunc("/api/chat/stream", s.app.ChatHandler.StreamHandler)

	// API routes - Document corpus
	mux.HandleFunc("/api/rag/upload", s.app.RAGHandler.UploadHandler)
	mux.HandleFunc("/api/rag/status", s.app.RAGHandler.StatusHandler)
	mux.HandleFunc("/api/rag/clear", s.app.RAGHandler.ClearHandler)

	// API routes - System
	mux.HandleFunc("/api/models", s.app.APIHandler.ModelsHandler)
	mux.HandleFunc("/api/web/status", s.app.APIHandler.WebStatusHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
