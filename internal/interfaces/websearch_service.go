package interfaces

import (
	"context"

	"github.com/ternarybob/parley/internal/models"
)

// WebSearchService provides external web lookups for time-sensitive context
type WebSearchService interface {
	// Search fetches up to topK results for the query. Returns
	// websearch.ErrNotConfigured without any network call when provider
	// credentials are absent, and websearch.ErrLookupFailed on any
	// provider or transport failure.
	Search(ctx context.Context, query string, topK int) ([]models.WebResult, error)

	// Configured reports whether provider credentials are present
	Configured() bool
}
