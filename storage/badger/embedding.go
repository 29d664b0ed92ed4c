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

// EmbeddingRepository implements storage.EmbeddingRepository on BadgerDB.
//
// Concurrent writers to the same document id are not mutually excluded:
// the last PutEmbedding wins, with no version check.
type EmbeddingRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates an embedding repository on the given
// backend.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &EmbeddingRepository{
		backend: backend,
		logger:  slog.Default().With("component", "embedding-repository"),
	}, nil
}

// WithTransaction delegates to the backend.
func (r *EmbeddingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Close releases repository resources. The backend itself is closed by its
// owner.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// PutEmbedding upserts the embedding record for a document.
func (r *EmbeddingRepository) PutEmbedding(ctx context.Context, rec *core.EmbeddingRecord) error {
	if rec == nil || rec.DocumentID == "" {
		return errors.New("embedding record requires a document id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEmbeddingKey(rec.DocumentID), storage.MarshalEmbeddingRecord(rec)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEmbedding retrieves the embedding record for a document.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, documentID string) (*core.EmbeddingRecord, error) {
	var rec *core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(documentID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: embedding for document %s", storage.ErrNotFound, documentID)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = storage.UnmarshalEmbeddingRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteEmbedding removes the embedding record for a document.
// Deleting a missing record is not an error.
func (r *EmbeddingRepository) DeleteEmbedding(ctx context.Context, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeEmbeddingKey(documentID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CountEmbeddings returns the number of cached embedding records.
func (r *EmbeddingRepository) CountEmbeddings(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = embeddingIterPrefix()
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
