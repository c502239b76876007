package interfaces

import (
	"context"

	"github.com/ternarybob/parley/internal/models"
)

// RAGService provides document ingestion and lexical retrieval over the
// chunk corpus.
type RAGService interface {
	// AddDocument chunks content, tokenizes each chunk, and stores the
	// batch under filename. Returns the number of chunks inserted.
	// Re-adding an existing filename appends chunks with a fresh index
	// sequence; (filename, chunk_index) pairs may repeat across calls.
	AddDocument(ctx context.Context, filename, content string) (int, error)

	// Retrieve ranks stored chunks against the query by token overlap and
	// returns at most topK matches, highest overlap first.
	Retrieve(ctx context.Context, query string, topK int) ([]*models.ChunkMatch, error)

	// ShouldAutoIngest reports whether a chat message looks like a pasted
	// document rather than a question.
	ShouldAutoIngest(message string) bool

	// IngestPasted stores a pasted chat message as a generated
	// chat-paste-N.txt document and returns its filename and chunk count.
	IngestPasted(ctx context.Context, message string) (string, int, error)

	// Stats returns corpus document and chunk counts
	Stats(ctx context.Context) (*models.CorpusStats, error)

	// Filenames returns the sorted distinct document names in the corpus
	Filenames(ctx context.Context) ([]string, error)

	// Clear deletes the entire corpus
	Clear(ctx context.Context) error
}
