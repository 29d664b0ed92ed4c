package embedding

import (
	"context"
	"time"

	"github.com/quillnotes/quill/ai"
	"github.com/quillnotes/quill/core"
)

// ProgressFunc receives the number of completed attempts and the batch
// total. It is invoked after every attempt, success or failure, with
// completed increasing by one each time.
type ProgressFunc func(completed, total int)

// BulkGenerate warms the cache for a corpus. Documents are processed
// strictly sequentially, with the configured fixed delay between them, to
// bound outstanding calls to the provider. A failed document is logged and
// left uncached; the batch continues.
//
// The only error returned is context cancellation; the provider already
// being unconfigured is also surfaced so callers don't silently no-op.
func (c *Cache) BulkGenerate(ctx context.Context, docs []*core.Document, onProgress ProgressFunc) error {
	if !c.Available() {
		return ai.ErrNotConfigured
	}

	total := len(docs)
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := c.GetOrCreate(ctx, doc); err != nil {
			c.logger.Warn("embedding generation failed, document left uncached",
				"documentID", doc.ID, "err", err)
		}

		if onProgress != nil {
			onProgress(i+1, total)
		}

		if i < total-1 && c.throttle > 0 {
			timer := time.NewTimer(c.throttle)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return nil
}
