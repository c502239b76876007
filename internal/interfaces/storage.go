package interfaces

import (
	"context"

	"github.com/ternarybob/parley/internal/models"
)

// ChunkStorage - interface for document chunk persistence
type ChunkStorage interface {
	// InsertChunks stores a batch of chunks in a single transaction (all-or-nothing)
	InsertChunks(ctx context.Context, chunks []*models.Chunk) error

	// AllChunks returns every stored chunk in storage enumeration order
	AllChunks(ctx context.Context) ([]*models.Chunk, error)

	// Counts returns distinct filename count and total chunk count
	Counts(ctx context.Context) (*models.CorpusStats, error)

	// Filenames returns the sorted list of distinct filenames
	Filenames(ctx context.Context) ([]string, error)

	// Clear deletes all chunks unconditionally
	Clear(ctx context.Context) error
}
