package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Document is a single note in the corpus. Documents are owned by the
// document store; search code only reads them.
type Document struct {
	ID        string
	Title     string
	Body      string
	CreatedAt time.Time // When the document was inserted into the store
	UpdatedAt time.Time // When the document was last modified
}

// ContentText returns the canonical text form of the document used for
// fingerprinting and embedding generation.
func (d *Document) ContentText() string {
	return d.Title + "\n\n" + d.Body
}

// Fingerprint computes a deterministic digest of a document's content using
// BLAKE2b hashing. It detects content changes, not tampering: identical
// content always produces the same fingerprint, and any edit to title or
// body produces a different one.
func Fingerprint(title, body string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(title))
	h.Write([]byte("\n\n"))
	h.Write([]byte(body))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// EmbeddingRecord is a cached embedding vector for a document.
// At most one record exists per document id. The record is stale when
// Fingerprint no longer matches the document's current content.
type EmbeddingRecord struct {
	DocumentID  string
	Vector      []float32
	Fingerprint uint64
	CreatedAt   time.Time
}

// Stale reports whether the record's fingerprint no longer matches the
// document's current content.
func (r *EmbeddingRecord) Stale(doc *Document) bool {
	return r.Fingerprint != Fingerprint(doc.Title, doc.Body)
}

// SearchStrategy identifies which ranking signal produced a search result.
type SearchStrategy string

const (
	// StrategySemantic marks results ranked by vector similarity.
	StrategySemantic SearchStrategy = "semantic"
	// StrategyKeyword marks results ranked by lexical keyword scoring.
	StrategyKeyword SearchStrategy = "keyword"
)

// SearchResult is a ranked document with its relevance score, an excerpt of
// the body evidencing the match, and the strategy that produced it.
type SearchResult struct {
	Document *Document
	Score    float64
	Excerpt  string
	Strategy SearchStrategy
}
