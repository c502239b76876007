package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "empty input",
			text:     "",
			expected: nil,
		},
		{
			name:     "case folded and deduplicated",
			text:     "Kubernetes KUBERNETES kubernetes",
			expected: []string{"kubernetes"},
		},
		{
			name:     "short tokens dropped",
			text:     "go is an ok fit for k8s ops",
			expected: []string{"for", "k8s", "ops"},
		},
		{
			name:     "punctuation splits tokens",
			text:     "retry-loop: connect(timeout=5s)",
			expected: []string{"connect", "loop", "retry", "timeout"},
		},
		{
			name:     "underscores kept inside tokens",
			text:     "chunk_index and chunk_index again",
			expected: []string{"again", "and", "chunk_index"},
		},
		{
			name:     "sorted output",
			text:     "zebra apple mango",
			expected: []string{"apple", "mango", "zebra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.text))
		})
	}
}

func TestTokenize_NeverEmitsShortTokens(t *testing.T) {
	tokens := Tokenize("a ab abc ab12 x y z 12 123")
	for _, token := range tokens {
		assert.GreaterOrEqual(t, len(token), 3, "token %q shorter than minimum", token)
	}
}

func TestOverlap(t *testing.T) {
	querySet := TokenSet("deploy the payment service")

	assert.Equal(t, 0, Overlap(querySet, nil))
	assert.Equal(t, 0, Overlap(querySet, []string{"unrelated", "words"}))
	assert.Equal(t, 2, Overlap(querySet, []string{"payment", "service", "elsewhere"}))
}

func TestTokenSet_EmptyQuery(t *testing.T) {
	assert.Empty(t, TokenSet(""))
	assert.Empty(t, TokenSet("a b c"))
	assert.Empty(t, TokenSet("?!,."))
}
