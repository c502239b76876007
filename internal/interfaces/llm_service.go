package interfaces

import (
	"context"
)

// Message is one turn in a model conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMService abstracts the downstream language-model service
type LLMService interface {
	// Chat sends one non-streaming request and returns the trimmed
	// assistant text. Fails on non-success status or empty output.
	Chat(ctx context.Context, model string, messages []Message) (string, error)

	// ChatStream sends one streaming request and forwards each content
	// fragment to emit as it arrives. Returns after the provider's done
	// record, on the first transport failure, or when emit returns an
	// error (caller gone). Malformed fragments are skipped.
	ChatStream(ctx context.Context, model string, messages []Message, emit func(token string) error) error

	// ListModels returns the model names the downstream service reports
	ListModels(ctx context.Context) ([]string, error)

	// IsReady reports downstream service reachability
	IsReady(ctx context.Context) bool
}
