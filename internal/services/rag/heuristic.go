package rag

import (
	"strings"
	"unicode/utf8"
)

// autoIngestMinLines is the line count at which a message is considered a
// pasted document regardless of its character length.
const autoIngestMinLines = 12

// maxQuestionMarks is the question-mark count at which a message is
// considered a question rather than a paste.
const maxQuestionMarks = 2

// looksLikePaste reports whether a chat message should be treated as a
// pasted document: long (by characters or lines) and not question-like.
// Purely heuristic; false positives only change whether the message is
// stored instead of being answered.
func looksLikePaste(message string, minChars int) bool {
	text := strings.TrimSpace(message)
	if text == "" {
		return false
	}

	lineCount := strings.Count(text, "\n") + 1
	questionMarks := strings.Count(text, "?")

	looksLong := utf8.RuneCountInString(text) >= minChars || lineCount >= autoIngestMinLines
	looksLikeQuestion := questionMarks >= maxQuestionMarks

	return looksLong && !looksLikeQuestion
}
