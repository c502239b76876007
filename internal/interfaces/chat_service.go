package interfaces

import (
	"context"
)

// ChatRequest represents an inbound chat request
type ChatRequest struct {
	// User's message (required)
	Message string `json:"message" validate:"required"`

	// Conversation history (optional); the service treats it as a
	// read-only bounded window and never persists it
	History []Message `json:"history,omitempty"`

	// Enable document-corpus retrieval for this request
	RAGEnabled bool `json:"rag_enabled"`

	// Enable web lookup for this request
	WebEnabled bool `json:"web_enabled"`

	// Model override (optional, defaults to configured model)
	Model string `json:"model,omitempty"`
}

// ChatResponse represents a completed single-shot chat response
type ChatResponse struct {
	Message     string `json:"message"`
	Model       string `json:"model"`
	RAGEnabled  bool   `json:"rag_enabled"`
	RAGIngested bool   `json:"rag_ingested"`
	WebEnabled  bool   `json:"web_enabled"`

	// Total corpus chunk count, populated on auto-ingest acknowledgments
	TotalChunks int `json:"-"`
}

// Stream event types emitted on the NDJSON chat stream
const (
	StreamEventToken = "token"
	StreamEventDone  = "done"
	StreamEventError = "error"
)

// StreamEvent is one newline-delimited record on the chat stream
type StreamEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Model   string `json:"model,omitempty"`

	// Pointers so done events serialize false values while token and
	// error events omit the flags entirely
	RAGEnabled  *bool `json:"rag_enabled,omitempty"`
	RAGIngested *bool `json:"rag_ingested,omitempty"`
	WebEnabled  *bool `json:"web_enabled,omitempty"`

	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// TokenEvent builds an incremental content event
func TokenEvent(content string) StreamEvent {
	return StreamEvent{Type: StreamEventToken, Content: content}
}

// DoneEvent builds the terminal completion event
func DoneEvent(model string, ragEnabled, ragIngested, webEnabled bool) StreamEvent {
	return StreamEvent{
		Type:        StreamEventDone,
		Model:       model,
		RAGEnabled:  &ragEnabled,
		RAGIngested: &ragIngested,
		WebEnabled:  &webEnabled,
	}
}

// ErrorEvent builds a terminal failure event
func ErrorEvent(message, details string) StreamEvent {
	return StreamEvent{Type: StreamEventError, Error: message, Details: details}
}

// ChatService coordinates web lookup, auto-ingest, prompt assembly, and
// downstream dispatch for one request.
type ChatService interface {
	// Chat handles a single-shot request
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// ChatStream handles a streaming request, forwarding events to emit
	// as they are produced. A non-nil return before any event was emitted
	// indicates a pre-dispatch failure the caller should surface as an
	// HTTP error; once events flow, failures are emitted as error events
	// and ChatStream returns nil.
	ChatStream(ctx context.Context, req *ChatRequest, emit func(StreamEvent) error) error
}
