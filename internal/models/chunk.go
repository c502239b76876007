package models

// Chunk represents one stored slice of a source document.
// Chunks are immutable: they are inserted in batches when a document is
// processed and removed only by a full corpus clear.
type Chunk struct {
	ID         string   `json:"id"`          // chunk_{uuid}, assigned at creation
	Filename   string   `json:"filename"`    // Logical source document name (not unique)
	ChunkIndex int      `json:"chunk_index"` // Zero-based ordinal within the source document
	Content    string   `json:"content"`     // Chunk text, non-empty after trimming
	Tokens     []string `json:"tokens"`      // Precomputed token set, stored sorted
}

// ChunkMatch is a retrieval result: a chunk plus its overlap score
// against the query token set.
type ChunkMatch struct {
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"index"`
	Content    string `json:"content"`
	Score      int    `json:"score"` // Shared token count with the query
}

// CorpusStats summarizes the document store
type CorpusStats struct {
	DocumentCount int `json:"document_count"` // Distinct filenames
	ChunkCount    int `json:"chunk_count"`    // Total chunk rows
}
