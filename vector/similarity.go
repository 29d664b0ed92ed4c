// Package vector provides the numeric similarity primitives used by
// semantic search.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of different lengths are
// compared. It indicates cache corruption or an embedding model change, not
// a normal runtime condition, and callers must not swallow it.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// CosineSimilarity calculates the cosine similarity between two vectors.
// The result is in [-1, 1], where 1 means identical direction. If either
// vector has zero magnitude the similarity is defined as 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	// Zero vectors have no direction to compare.
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
