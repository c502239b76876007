package rag

import (
	"strings"
)

// ChunkText splits content into overlapping fixed-size character windows.
// Starting at offset 0, each window takes chunkSize characters, is trimmed
// of surrounding whitespace, and kept if non-empty. The start offset then
// advances by chunkSize-overlap (minimum step 1). The final partial window
// is included before stopping. Windows are measured in code points, not
// bytes, so multi-byte text never splits mid-character. Pure
// character-count chunking with no word or sentence boundary awareness;
// retrieval behavior depends on this exact windowing.
func ChunkText(content string, chunkSize, overlap int) []string {
	if content == "" {
		return nil
	}

	step := chunkSize - overlap
	if step < 1 {
		step = 1
	}

	runes := []rune(content)

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		part := strings.TrimSpace(string(runes[start:end]))
		if part != "" {
			chunks = append(chunks, part)
		}

		if start+chunkSize >= len(runes) {
			break
		}
	}

	return chunks
}
