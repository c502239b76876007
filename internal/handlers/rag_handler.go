package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
)

// maxUploadBytes bounds document uploads
const maxUploadBytes = 16 << 20 // 16 MB

// allowedExtensions are the plain text/markup formats accepted for upload
var allowedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".log":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
}

// RAGHandler handles document corpus HTTP requests
type RAGHandler struct {
	ragService interfaces.RAGService
	logger     arbor.ILogger
}

// NewRAGHandler creates a new RAG handler
func NewRAGHandler(ragService interfaces.RAGService, logger arbor.ILogger) *RAGHandler {
	return &RAGHandler{
		ragService: ragService,
		logger:     logger,
	}
}

// UploadHandler handles POST /api/rag/upload requests
func (h *RAGHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		WriteError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	extension := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[extension] {
		WriteError(w, http.StatusBadRequest,
			"Unsupported file type. Use txt, md, csv, log, json, yaml, or yml.")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Failed to read uploaded file")
		WriteError(w, http.StatusInternalServerError, "Failed to process file")
		return
	}

	// Invalid byte sequences are dropped rather than failing the upload
	text := strings.ToValidUTF8(string(content), "")
	if strings.TrimSpace(text) == "" {
		WriteError(w, http.StatusBadRequest, "File is empty")
		return
	}

	chunksAdded, err := h.ragService.AddDocument(r.Context(), header.Filename, text)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("RAG upload error")
		WriteError(w, http.StatusInternalServerError, "Failed to process file")
		return
	}

	stats, err := h.ragService.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read corpus stats after upload")
		WriteError(w, http.StatusInternalServerError, "Failed to process file")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"filename":     header.Filename,
		"chunks_added": chunksAdded,
		"total_chunks": stats.ChunkCount,
	})
}

// StatusHandler handles GET /api/rag/status requests
func (h *RAGHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	filenames, err := h.ragService.Filenames(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list corpus filenames")
		WriteError(w, http.StatusInternalServerError, "Failed to read corpus status")
		return
	}

	stats, err := h.ragService.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read corpus stats")
		WriteError(w, http.StatusInternalServerError, "Failed to read corpus status")
		return
	}

	if filenames == nil {
		filenames = []string{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"documents":      filenames,
		"document_count": stats.DocumentCount,
		"chunk_count":    stats.ChunkCount,
	})
}

// ClearHandler handles POST /api/rag/clear requests
func (h *RAGHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.ragService.Clear(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to clear corpus")
		WriteError(w, http.StatusInternalServerError, "Failed to clear knowledge base")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "RAG knowledge base cleared",
	})
}
