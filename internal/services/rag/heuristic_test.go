package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikePaste(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected bool
	}{
		{
			name:     "empty message",
			message:  "",
			expected: false,
		},
		{
			name:     "short question",
			message:  "What is the deployment process?",
			expected: false,
		},
		{
			name:     "long single line",
			message:  strings.Repeat("release notes for the payment service ", 20),
			expected: true,
		},
		{
			name:     "many lines but short",
			message:  strings.Repeat("step\n", 19) + "done",
			expected: true,
		},
		{
			name:     "few lines with many question marks",
			message:  "Why?\nHow?\nWhen?",
			expected: false,
		},
		{
			name:     "long but question heavy",
			message:  strings.Repeat("is this right? ", 60),
			expected: false,
		},
		{
			name:     "long paste with one question mark",
			message:  strings.Repeat("config line\n", 19) + "unclear?",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, looksLikePaste(tt.message, 600))
		})
	}
}

func TestLooksLikePaste_CountsCharactersNotBytes(t *testing.T) {
	// 300 two-byte characters: 600 bytes but only 300 characters, below
	// the threshold
	short := strings.Repeat("é", 300)
	assert.False(t, looksLikePaste(short, 600))

	long := strings.Repeat("é", 600)
	assert.True(t, looksLikePaste(long, 600))
}
