package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
)

// APIHandler handles system-level HTTP requests: health, version, model
// listing, and web lookup status.
type APIHandler struct {
	llmService interfaces.LLMService
	webService interfaces.WebSearchService
	config     *common.Config
	logger     arbor.ILogger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(
	llmService interfaces.LLMService,
	webService interfaces.WebSearchService,
	config *common.Config,
	logger arbor.ILogger,
) *APIHandler {
	return &APIHandler{
		llmService: llmService,
		webService: webService,
		config:     config,
		logger:     logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// ModelsHandler handles GET /api/models requests. A downstream listing
// failure degrades to the configured default model only.
func (h *APIHandler) ModelsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	defaultModel := h.config.Ollama.Model

	names, err := h.llmService.ListModels(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to list models, returning default only")
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"models":  []string{defaultModel},
			"default": defaultModel,
		})
		return
	}

	found := false
	for _, name := range names {
		if name == defaultModel {
			found = true
			break
		}
	}
	if !found {
		names = append([]string{defaultModel}, names...)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"models":  names,
		"default": defaultModel,
	})
}

// WebStatusHandler handles GET /api/web/status requests
func (h *APIHandler) WebStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"configured": h.webService.Configured(),
		"provider":   "google-cse",
	})
}

// HealthHandler handles GET /api/health requests, reporting downstream
// model reachability and web lookup configuration state.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ready := h.llmService.IsReady(r.Context())

	status := "healthy"
	ollama := "reachable"
	statusCode := http.StatusOK
	if !ready {
		status = "degraded"
		ollama = "unreachable"
		statusCode = http.StatusServiceUnavailable
	}

	webLookup := "not_configured"
	if h.webService.Configured() {
		webLookup = "configured"
	}

	WriteJSON(w, statusCode, map[string]string{
		"status":     status,
		"service":    "parley",
		"ollama":     ollama,
		"model":      h.config.Ollama.Model,
		"web_lookup": webLookup,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
