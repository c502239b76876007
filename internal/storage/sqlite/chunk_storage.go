package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

// ChunkStorage implements the ChunkStorage interface for SQLite
type ChunkStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex // Prevents SQLITE_BUSY errors on concurrent writes
}

// NewChunkStorage creates a new ChunkStorage instance
func NewChunkStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.ChunkStorage {
	return &ChunkStorage{
		db:     db,
		logger: logger,
	}
}

// InsertChunks stores a batch of chunks in a single transaction.
// Either every chunk in the batch is persisted or none is.
func (s *ChunkStorage) InsertChunks(ctx context.Context, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO rag_chunks (id, filename, chunk_index, content, tokens)
		VALUES (?, ?, ?, ?, ?)
	`

	for _, chunk := range chunks {
		tokens, err := json.Marshal(chunk.Tokens)
		if err != nil {
			return fmt.Errorf("failed to serialize tokens for chunk %s: %w", chunk.ID, err)
		}

		if _, err := tx.ExecContext(ctx, query, chunk.ID, chunk.Filename, chunk.ChunkIndex, chunk.Content, string(tokens)); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk batch: %w", err)
	}

	s.logger.Debug().
		Str("filename", chunks[0].Filename).
		Int("chunks", len(chunks)).
		Msg("Chunk batch stored")

	return nil
}

// AllChunks returns every stored chunk in rowid (insertion) order
func (s *ChunkStorage) AllChunks(ctx context.Context) ([]*models.Chunk, error) {
	query := `SELECT id, filename, chunk_index, content, tokens FROM rag_chunks`

	rows, err := s.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		var tokensJSON string
		if err := rows.Scan(&chunk.ID, &chunk.Filename, &chunk.ChunkIndex, &chunk.Content, &tokensJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if err := json.Unmarshal([]byte(tokensJSON), &chunk.Tokens); err != nil {
			return nil, fmt.Errorf("failed to parse tokens for chunk %s: %w", chunk.ID, err)
		}
		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk rows: %w", err)
	}

	return chunks, nil
}

// Counts returns distinct filename count and total chunk count
func (s *ChunkStorage) Counts(ctx context.Context) (*models.CorpusStats, error) {
	stats := &models.CorpusStats{}

	if err := s.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rag_chunks`).Scan(&stats.ChunkCount); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	if err := s.db.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT filename) FROM rag_chunks`).Scan(&stats.DocumentCount); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	return stats, nil
}

// Filenames returns the sorted list of distinct filenames
func (s *ChunkStorage) Filenames(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT filename FROM rag_chunks ORDER BY filename`

	rows, err := s.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query filenames: %w", err)
	}
	defer rows.Close()

	var filenames []string
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("failed to scan filename: %w", err)
		}
		filenames = append(filenames, filename)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate filenames: %w", err)
	}

	return filenames, nil
}

// Clear deletes all chunks unconditionally
func (s *ChunkStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.db.ExecContext(ctx, `DELETE FROM rag_chunks`); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	s.logger.Info().Msg("Chunk corpus cleared")
	return nil
}
