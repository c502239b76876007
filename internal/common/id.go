package common

import (
	"github.com/google/uuid"
)

// NewChunkID generates a unique chunk ID with the "chunk_" prefix
// Format: chunk_<uuid>
func NewChunkID() string {
	return "chunk_" + uuid.New().String()
}
