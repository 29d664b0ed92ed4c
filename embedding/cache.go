package embedding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quillnotes/quill/ai"
	"github.com/quillnotes/quill/core"
	"github.com/quillnotes/quill/storage"
)

const (
	// DefaultMaxEmbedChars caps the text sent to the embedding provider,
	// respecting upstream request size limits.
	DefaultMaxEmbedChars = 30000

	// DefaultThrottle is the fixed delay inserted between documents during
	// bulk generation.
	DefaultThrottle = 100 * time.Millisecond
)

// Cache persists one embedding vector per document, invalidated by content
// fingerprint. A nil embedder means the external capability is not
// configured; Available reports false and every generation attempt returns
// ai.ErrNotConfigured.
type Cache struct {
	embeddings storage.EmbeddingRepository
	embedder   ai.Embedder
	maxChars   int
	throttle   time.Duration
	logger     *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithMaxEmbedChars overrides the character cap applied to provider input.
func WithMaxEmbedChars(max int) Option {
	return func(c *Cache) error {
		if max <= 0 {
			return errors.New("max embed chars must be positive")
		}
		c.maxChars = max
		return nil
	}
}

// WithThrottle overrides the fixed inter-document delay used by
// BulkGenerate. Zero disables throttling.
func WithThrottle(d time.Duration) Option {
	return func(c *Cache) error {
		if d < 0 {
			return errors.New("throttle cannot be negative")
		}
		c.throttle = d
		return nil
	}
}

// NewCache creates an embedding cache backed by the given repository.
// embedder may be nil when the capability is not configured.
func NewCache(embeddings storage.EmbeddingRepository, embedder ai.Embedder, opts ...Option) (*Cache, error) {
	if embeddings == nil {
		return nil, ErrRepositoryRequired
	}

	c := &Cache{
		embeddings: embeddings,
		embedder:   embedder,
		maxChars:   DefaultMaxEmbedChars,
		throttle:   DefaultThrottle,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Available reports whether the embedding capability is configured.
// It is a pure predicate; no I/O is performed.
func (c *Cache) Available() bool {
	return c.embedder != nil
}

// GenerateVector generates an embedding for raw text, bypassing the cache.
// The text is truncated to the configured character cap before the call.
// Used for query vectors and "find similar" seeds.
func (c *Cache) GenerateVector(ctx context.Context, text string) ([]float32, error) {
	if !c.Available() {
		return nil, ai.ErrNotConfigured
	}

	vec, err := c.embedder.EmbedText(ctx, truncate(text, c.maxChars))
	if err != nil {
		if ai.IsGenerationError(err) || errors.Is(err, ai.ErrNotConfigured) {
			return nil, err
		}
		return nil, ai.NewGenerationError("embedder call failed", err)
	}
	return vec, nil
}

// GetOrCreate returns the document's embedding vector, serving it from the
// cache when the stored fingerprint matches the document's current content
// and regenerating (and overwriting the stored record) otherwise.
// Generation failures are propagated and never cached.
func (c *Cache) GetOrCreate(ctx context.Context, doc *core.Document) ([]float32, error) {
	if !c.Available() {
		return nil, ai.ErrNotConfigured
	}

	fingerprint := core.Fingerprint(doc.Title, doc.Body)

	rec, err := c.embeddings.GetEmbedding(ctx, doc.ID)
	if err == nil && rec.Fingerprint == fingerprint {
		return rec.Vector, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	vec, err := c.GenerateVector(ctx, doc.ContentText())
	if err != nil {
		return nil, err
	}

	// Last write wins: concurrent regeneration for the same id is not
	// excluded, and no version check is made.
	rec = &core.EmbeddingRecord{
		DocumentID:  doc.ID,
		Vector:      vec,
		Fingerprint: fingerprint,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.embeddings.PutEmbedding(ctx, rec); err != nil {
		return nil, err
	}

	return vec, nil
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
