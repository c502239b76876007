package rag

import (
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9_]{3,}`)

// Tokenize normalizes text into its set of distinct lowercase alphanumeric
// tokens of length >= 3. No stemming, no stopword removal. The result is
// sorted so callers get a deterministic serialization.
func Tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, match := range matches {
		if _, ok := seen[match]; ok {
			continue
		}
		seen[match] = struct{}{}
		tokens = append(tokens, match)
	}

	sort.Strings(tokens)
	return tokens
}

// TokenSet returns the tokens of text as a membership set
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// Overlap counts tokens shared between a query set and a token list
func Overlap(querySet map[string]struct{}, tokens []string) int {
	count := 0
	for _, token := range tokens {
		if _, ok := querySet[token]; ok {
			count++
		}
	}
	return count
}
