package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

func TestBuildWebBlock(t *testing.T) {
	assert.Equal(t, "", buildWebBlock(nil))

	results := []models.WebResult{
		{Title: "Go 1.25 released", Snippet: "The latest release", Link: "https://go.dev/blog"},
		{Title: "Changelog", Snippet: "Full details", Link: "https://go.dev/doc"},
	}

	block := buildWebBlock(results)
	assert.Contains(t, block, "WEB LOOKUP MODE")
	assert.Contains(t, block, "[web-1] Go 1.25 released")
	assert.Contains(t, block, "Snippet: The latest release")
	assert.Contains(t, block, "URL: https://go.dev/blog")
	assert.Contains(t, block, "[web-2] Changelog")
}

func TestBuildRAGBlock(t *testing.T) {
	empty := buildRAGBlock(nil)
	assert.Contains(t, empty, "No matching document context found")

	matches := []*models.ChunkMatch{
		{Filename: "runbook.md", ChunkIndex: 0, Content: "restart procedure", Score: 3},
		{Filename: "runbook.md", ChunkIndex: 2, Content: "rollback procedure", Score: 1},
	}

	block := buildRAGBlock(matches)
	assert.Contains(t, block, "RAG MODE")
	assert.Contains(t, block, "[runbook.md#0]\nrestart procedure")
	assert.Contains(t, block, "[runbook.md#2]\nrollback procedure")
}

func TestBoundHistory(t *testing.T) {
	history := []interfaces.Message{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
		{Role: "assistant", Content: "four"},
		{Role: "user", Content: "five"},
		{Role: "assistant", Content: "six"},
		{Role: "user", Content: "seven"},
		{Role: "assistant", Content: "eight"},
	}

	bounded := boundHistory(history, 6)
	require.Len(t, bounded, 6)
	assert.Equal(t, "three", bounded[0].Content)
	assert.Equal(t, "eight", bounded[5].Content)
}

func TestBoundHistory_FiltersAfterWindowing(t *testing.T) {
	// Invalid turns inside the window are dropped, not replaced by older
	// valid ones; the window is sliced first.
	history := []interfaces.Message{
		{Role: "user", Content: "oldest valid"},
		{Role: "system", Content: "injected"},
		{Role: "user", Content: ""},
		{Role: "assistant", Content: "kept"},
	}

	bounded := boundHistory(history, 3)
	require.Len(t, bounded, 1)
	assert.Equal(t, "kept", bounded[0].Content)
}

func TestBoundHistory_Empty(t *testing.T) {
	assert.Empty(t, boundHistory(nil, 6))
}
