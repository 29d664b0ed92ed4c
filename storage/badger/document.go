package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/quillnotes/quill/core"
	"github.com/quillnotes/quill/storage"
)

// DocumentRepository implements storage.DocumentRepository on BadgerDB.
type DocumentRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a document repository on the given backend.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &DocumentRepository{
		backend: backend,
		logger:  slog.Default().With("component", "document-repository"),
	}, nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Close releases repository resources. The backend itself is closed by its
// owner.
func (r *DocumentRepository) Close() error {
	return nil
}

// AddDocuments adds one or more documents to storage.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, doc := range docs {
			if err := core.ValidateDocument(doc); err != nil {
				return err
			}
			if doc.CreatedAt.IsZero() {
				doc.CreatedAt = now
			}
			if doc.UpdatedAt.IsZero() {
				doc.UpdatedAt = doc.CreatedAt
			}
			if err := tx.Set(makeDocumentKey(doc.ID), storage.MarshalDocument(doc)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// UpdateDocuments updates existing documents. A stale cached embedding is
// not removed here; the fingerprint check at read time forces regeneration.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if err := core.ValidateDocument(doc); err != nil {
				return err
			}
			key := makeDocumentKey(doc.ID)
			old, err := tx.Get(key)
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: document %s", storage.ErrNotFound, doc.ID)
				}
				return err
			}
			if err := old.Value(func(val []byte) error {
				prev, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				doc.CreatedAt = prev.CreatedAt
				return nil
			}); err != nil {
				return err
			}
			doc.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// DeleteDocuments removes documents and their cached embedding records.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: document %s", storage.ErrNotFound, id)
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			// Cascade: the embedding record is keyed by the same id.
			if err := tx.Delete(makeEmbeddingKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: document %s", storage.ErrNotFound, id)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			doc, err = storage.UnmarshalDocument(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocuments retrieves multiple documents by their IDs.
// Missing documents are skipped.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error) {
	docs := make([]*core.Document, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := tx.Get(makeDocumentKey(id))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			if err := item.Value(func(val []byte) error {
				doc, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// GetAllDocuments retrieves the full corpus. BadgerDB iterates keys in
// lexicographic order, so the corpus order is stable across calls.
func (r *DocumentRepository) GetAllDocuments(ctx context.Context) ([]*core.Document, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = documentIterPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := iter.Item().Value(func(val []byte) error {
				doc, err := storage.UnmarshalDocument(val)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// CountDocuments returns the number of stored documents.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = documentIterPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}
