package chat

import (
	"fmt"
	"strings"

	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/models"
)

// systemPrompt is the base assistant persona for every request
const systemPrompt = `You are a knowledgeable and helpful AI assistant. You can discuss any topic including:
- Technology, programming, and software development
- Science, mathematics, and engineering
- Business, finance, and economics
- Arts, literature, and culture
- History, geography, and current events
- Health, fitness, and wellness
- And much more

Provide clear, accurate, and helpful responses. Use examples when appropriate.
Be conversational and friendly. If you're not sure about something, say so.
Default to concise answers unless the user asks for deep detail.
Keep default answers under 120 words and use short bullet points when possible.`

// buildWebBlock formats web results as a labeled context block.
// Returns "" when there are no results.
func buildWebBlock(results []models.WebResult) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(results))
	for i, result := range results {
		blocks = append(blocks, fmt.Sprintf("[web-%d] %s\nSnippet: %s\nURL: %s",
			i+1, result.Title, result.Snippet, result.Link))
	}

	return "\n\nWEB LOOKUP MODE: Use the following Google search snippets as fresh context. " +
		"Prefer these sources for time-sensitive facts and mention URLs when useful.\n\n" +
		strings.Join(blocks, "\n\n")
}

// buildRAGBlock formats retrieved chunks as a labeled context block, or an
// explicit no-matching-context notice when retrieval found nothing.
func buildRAGBlock(matches []*models.ChunkMatch) string {
	if len(matches) == 0 {
		return "\n\nRAG MODE: No matching document context found for this question."
	}

	blocks := make([]string, 0, len(matches))
	for _, match := range matches {
		blocks = append(blocks, fmt.Sprintf("[%s#%d]\n%s", match.Filename, match.ChunkIndex, match.Content))
	}

	return "\n\nRAG MODE: Use only the following document context when relevant. " +
		"If context is insufficient, clearly say so.\n\n" +
		strings.Join(blocks, "\n\n")
}

// boundHistory keeps the most recent maxTurns entries, dropping turns with
// invalid roles or empty content. The supplied history is never mutated.
func boundHistory(history []interfaces.Message, maxTurns int) []interfaces.Message {
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	bounded := make([]interfaces.Message, 0, len(history))
	for _, turn := range history {
		if turn.Content == "" {
			continue
		}
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		bounded = append(bounded, turn)
	}

	return bounded
}
