package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

// Service implements document ingestion and lexical retrieval over the
// chunk corpus.
type Service struct {
	storage interfaces.ChunkStorage
	logger  arbor.ILogger
	config  *common.RAGConfig
}

// NewService creates a new RAG service
func NewService(storage interfaces.ChunkStorage, logger arbor.ILogger, config *common.RAGConfig) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		config:  config,
	}
}

// AddDocument chunks content, tokenizes each chunk, and stores the batch
// under filename in one transaction. The chunk index sequence restarts at
// zero on every call, so re-ingesting a filename produces additional rows
// rather than replacing earlier ones.
func (s *Service) AddDocument(ctx context.Context, filename, content string) (int, error) {
	parts := ChunkText(content, s.config.ChunkSize, s.config.ChunkOverlap)
	if len(parts) == 0 {
		return 0, nil
	}

	chunks := make([]*models.Chunk, 0, len(parts))
	for index, part := range parts {
		chunks = append(chunks, &models.Chunk{
			ID:         common.NewChunkID(),
			Filename:   filename,
			ChunkIndex: index,
			Content:    part,
			Tokens:     Tokenize(part),
		})
	}

	if err := s.storage.InsertChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to store document %s: %w", filename, err)
	}

	s.logger.Info().
		Str("filename", filename).
		Int("chunks", len(chunks)).
		Msg("Document ingested")

	return len(chunks), nil
}

// Retrieve ranks every stored chunk against the query by token overlap and
// returns at most topK matches, highest overlap first. An empty query token
// set returns immediately without scanning. Equal-overlap chunks keep their
// storage enumeration (insertion) order; callers must not rely on a
// particular tie-break beyond that stability.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]*models.ChunkMatch, error) {
	querySet := TokenSet(query)
	if len(querySet) == 0 {
		return nil, nil
	}

	chunks, err := s.storage.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks for retrieval: %w", err)
	}

	var matches []*models.ChunkMatch
	for _, chunk := range chunks {
		overlap := Overlap(querySet, chunk.Tokens)
		if overlap == 0 {
			continue
		}
		matches = append(matches, &models.ChunkMatch{
			Filename:   chunk.Filename,
			ChunkIndex: chunk.ChunkIndex,
			Content:    chunk.Content,
			Score:      overlap,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	s.logger.Debug().
		Int("query_tokens", len(querySet)).
		Int("matches", len(matches)).
		Msg("Retrieval complete")

	return matches, nil
}

// ShouldAutoIngest reports whether a chat message looks like a pasted
// document rather than a question.
func (s *Service) ShouldAutoIngest(message string) bool {
	return looksLikePaste(message, s.config.AutoIngestMinChars)
}

// IngestPasted stores a pasted chat message as a generated document.
// The filename is derived from the current document count, matching the
// chat-paste-N.txt naming users see in the acknowledgment.
func (s *Service) IngestPasted(ctx context.Context, message string) (string, int, error) {
	stats, err := s.storage.Counts(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read corpus stats: %w", err)
	}

	filename := fmt.Sprintf("chat-paste-%d.txt", stats.DocumentCount+1)
	chunksAdded, err := s.AddDocument(ctx, filename, message)
	if err != nil {
		return "", 0, err
	}

	return filename, chunksAdded, nil
}

// Stats returns corpus document and chunk counts
func (s *Service) Stats(ctx context.Context) (*models.CorpusStats, error) {
	return s.storage.Counts(ctx)
}

// Filenames returns the sorted distinct document names in the corpus
func (s *Service) Filenames(ctx context.Context) ([]string, error) {
	return s.storage.Filenames(ctx)
}

// Clear deletes the entire corpus
func (s *Service) Clear(ctx context.Context) error {
	return s.storage.Clear(ctx)
}
