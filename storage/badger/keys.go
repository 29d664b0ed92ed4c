package badger

import "fmt"

// Key prefixes for different record types. Document ids are opaque strings
// supplied by the caller, so keys stay readable: "docrec:<id>".
const (
	documentPrefix  = "docrec"
	embeddingPrefix = "embrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentPrefix, id))
}

// makeEmbeddingKey generates a key for a document's embedding record.
func makeEmbeddingKey(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", embeddingPrefix, documentID))
}

// documentIterPrefix is the prefix for iterating all documents.
func documentIterPrefix() []byte {
	return []byte(documentPrefix + ":")
}

// embeddingIterPrefix is the prefix for iterating all embedding records.
func embeddingIterPrefix() []byte {
	return []byte(embeddingPrefix + ":")
}
