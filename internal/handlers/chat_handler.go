package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/services/chat"
	"github.com/ternarybob/parley/internal/services/llm"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService interfaces.ChatService
	logger      arbor.ILogger
	validate    *validator.Validate
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService interfaces.ChatService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
		validate:    validator.New(),
	}
}

// decodeRequest parses and validates the inbound chat request.
// Returns nil after writing a client error response when invalid.
func (h *ChatHandler) decodeRequest(w http.ResponseWriter, r *http.Request) *interfaces.ChatRequest {
	var req interfaces.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode chat request")
		WriteError(w, http.StatusBadRequest, "No message provided")
		return nil
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "No message provided")
		return nil
	}

	return &req
}

// ChatHandler handles POST /api/chat requests (single-shot mode)
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req := h.decodeRequest(w, r)
	if req == nil {
		return
	}

	h.logger.Info().
		Int("message_length", len(req.Message)).
		Bool("rag_enabled", req.RAGEnabled).
		Bool("web_enabled", req.WebEnabled).
		Msg("Processing chat request")

	response, err := h.chatService.Chat(r.Context(), req)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	payload := map[string]interface{}{
		"message":      response.Message,
		"success":      true,
		"model":        response.Model,
		"rag_enabled":  response.RAGEnabled,
		"rag_ingested": response.RAGIngested,
		"web_enabled":  response.WebEnabled,
	}
	if response.RAGIngested {
		payload["rag_total_chunks"] = response.TotalChunks
	}

	WriteJSON(w, http.StatusOK, payload)
}

// writeChatError maps service failures to the response taxonomy: missing
// web configuration is a client error, timeouts invite a caller retry, and
// everything else stays a generic server failure.
func (h *ChatHandler) writeChatError(w http.ResponseWriter, err error) {
	var upstream *llm.UpstreamError

	switch {
	case errors.Is(err, chat.ErrWebNotConfigured):
		WriteError(w, http.StatusBadRequest,
			"Web Mode is enabled but Google lookup is not configured. Set GOOGLE_API_KEY and GOOGLE_CSE_ID.")
	case errors.Is(err, llm.ErrTimeout):
		h.logger.Error().Msg("Ollama request timed out")
		WriteError(w, http.StatusGatewayTimeout,
			"Request timed out. The model might be loading. Please try again.")
	case errors.As(err, &upstream):
		h.logger.Error().
			Int("status", upstream.StatusCode).
			Str("body", upstream.Body).
			Msg("Ollama returned an error status")
		WriteError(w, http.StatusInternalServerError, "An error occurred processing your request")
	default:
		h.logger.Error().Err(err).Msg("Error in chat endpoint")
		WriteError(w, http.StatusInternalServerError, "An error occurred processing your request")
	}
}

// StreamHandler handles POST /api/chat/stream requests, relaying the
// downstream response as newline-delimited JSON events.
func (h *ChatHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req := h.decodeRequest(w, r)
	if req == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error().Msg("Response writer does not support streaming")
		WriteError(w, http.StatusInternalServerError, "Failed to start stream")
		return
	}

	started := false
	encoder := json.NewEncoder(w)
	emit := func(event interfaces.StreamEvent) error {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := encoder.Encode(event); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := h.chatService.ChatStream(r.Context(), req, emit); err != nil {
		// Pre-dispatch failure: no event has been written yet, so a
		// regular JSON error response is still possible.
		if errors.Is(err, chat.ErrWebNotConfigured) {
			WriteError(w, http.StatusBadRequest,
				"Web Mode is enabled but Google lookup is not configured. Set GOOGLE_API_KEY and GOOGLE_CSE_ID.")
			return
		}
		h.logger.Error().Err(err).Msg("Error in stream endpoint")
		WriteError(w, http.StatusInternalServerError, "Failed to start stream")
	}
}
