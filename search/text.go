package search

import (
	"strings"
	"unicode/utf8"
)

// minTokenLength is the shortest query token that participates in keyword
// scoring and excerpt selection. Shorter tokens ("a", "is", "of") carry no
// ranking signal.
const minTokenLength = 3

// tokenizeQuery lowercases the query, splits it on whitespace, and discards
// tokens shorter than minTokenLength runes.
func tokenizeQuery(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// firstParagraph returns the first non-empty paragraph of a body, used to
// build the implicit query for "find similar".
func firstParagraph(body string) string {
	for _, part := range strings.Split(body, "\n\n") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
