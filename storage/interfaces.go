package storage

import (
	"context"

	"github.com/quillnotes/quill/core"
)

// Repository provides common storage operations shared across all
// repositories. Implementations must be thread-safe and support concurrent
// access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// Documents are validated; CreatedAt and UpdatedAt are populated when
	// unset. Returns the documents with timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs, along with their
	// cached embedding records.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...string) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing ones).
	GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error)

	// GetAllDocuments retrieves the full corpus in stable (id) order.
	GetAllDocuments(ctx context.Context) ([]*core.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// EmbeddingRepository provides operations for the persistent embedding
// cache. At most one record exists per document id; PutEmbedding replaces
// any existing record with no version check (last write wins).
type EmbeddingRepository interface {
	Repository

	// PutEmbedding upserts the embedding record for a document.
	// Sets CreatedAt if not already set.
	PutEmbedding(ctx context.Context, rec *core.EmbeddingRecord) error

	// GetEmbedding retrieves the embedding record for a document.
	// Returns ErrNotFound if no record exists.
	GetEmbedding(ctx context.Context, documentID string) (*core.EmbeddingRecord, error)

	// DeleteEmbedding removes the embedding record for a document.
	// Deleting a missing record is not an error.
	DeleteEmbedding(ctx context.Context, documentID string) error

	// CountEmbeddings returns the number of cached embedding records.
	CountEmbeddings(ctx context.Context) (int, error)
}
