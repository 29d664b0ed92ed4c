package search

import "strings"

// DefaultExcerptLength is the window size, in bytes, scanned for the most
// query-relevant region of a body.
const DefaultExcerptLength = 200

// NoContentExcerpt is returned for documents with an empty body.
const NoContentExcerpt = "No content"

// ExtractExcerpt returns the most query-relevant substring of body.
//
// A window of maxLength bytes is slid across the body; the start offset
// whose window covers the most distinct query tokens wins, first-seen on
// ties. The window is then expanded backward to the previous sentence
// boundary and forward to the next one, and ellipsis markers are attached
// at truncated ends.
func ExtractExcerpt(body, query string, maxLength int) string {
	if body == "" {
		return NoContentExcerpt
	}
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}

	lower := strings.ToLower(body)
	tokens := tokenizeQuery(query)

	bestStart := 0
	if len(tokens) > 0 && len(lower) > maxLength {
		bestCount := -1
		for start := 0; start+maxLength <= len(lower); start++ {
			window := lower[start : start+maxLength]
			count := 0
			for _, tok := range tokens {
				if strings.Contains(window, tok) {
					count++
				}
			}
			if count > bestCount {
				bestCount = count
				bestStart = start
			}
		}
	}

	end := bestStart + maxLength
	if end > len(body) {
		end = len(body)
	}

	// Align to sentence boundaries.
	start := bestStart
	for start > 0 && !isSentenceBoundary(body[start-1]) {
		start--
	}
	for end < len(body) && !isSentenceBoundary(body[end-1]) {
		end++
	}

	excerpt := strings.TrimSpace(body[start:end])
	if excerpt == "" {
		return NoContentExcerpt
	}

	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(body) {
		excerpt = excerpt + "..."
	}
	return excerpt
}

func isSentenceBoundary(b byte) bool {
	return b == '.' || b == '!' || b == '?' || b == '\n'
}
