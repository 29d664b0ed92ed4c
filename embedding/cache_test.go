package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill/ai"
	"github.com/quillnotes/quill/ai/mock"
	"github.com/quillnotes/quill/core"
	"github.com/quillnotes/quill/storage"
	"github.com/quillnotes/quill/storage/badger"
)

func newTestCache(t *testing.T, embedder ai.Embedder, opts ...Option) (*Cache, storage.EmbeddingRepository) {
	t.Helper()
	docRepo, embRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		embRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	opts = append([]Option{WithThrottle(0)}, opts...)
	cache, err := NewCache(embRepo, embedder, opts...)
	require.NoError(t, err)
	return cache, embRepo
}

func TestNewCache_RequiresRepository(t *testing.T) {
	_, err := NewCache(nil, mock.NewEmbedder())
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestCache_Available(t *testing.T) {
	cache, _ := newTestCache(t, mock.NewEmbedder())
	assert.True(t, cache.Available())

	unconfigured, _ := newTestCache(t, nil)
	assert.False(t, unconfigured.Available())
}

func TestCache_Unconfigured(t *testing.T) {
	cache, _ := newTestCache(t, nil)
	ctx := context.Background()

	_, err := cache.GenerateVector(ctx, "anything")
	assert.ErrorIs(t, err, ai.ErrNotConfigured)

	doc := &core.Document{ID: "n1", Title: "t", Body: "b"}
	_, err = cache.GetOrCreate(ctx, doc)
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestCache_HitSkipsGenerator(t *testing.T) {
	embedder := mock.NewEmbedder()
	cache, _ := newTestCache(t, embedder)
	ctx := context.Background()

	doc := &core.Document{ID: "n1", Title: "Trip notes", Body: "Pack the tent."}

	first, err := cache.GetOrCreate(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.CallCount())

	second, err := cache.GetOrCreate(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, embedder.CallCount(), "unchanged content must not call the generator again")
}

func TestCache_InvalidationOnContentChange(t *testing.T) {
	embedder := mock.NewEmbedder()
	cache, embRepo := newTestCache(t, embedder)
	ctx := context.Background()

	doc := &core.Document{ID: "n1", Title: "Trip notes", Body: "Pack the tent."}

	first, err := cache.GetOrCreate(ctx, doc)
	require.NoError(t, err)

	doc.Body = "Pack the tent and the stove."
	second, err := cache.GetOrCreate(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, 2, embedder.CallCount(), "content change must regenerate")
	assert.NotEqual(t, first, second)

	// The stored record was overwritten in place, not duplicated.
	count, err := embRepo.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rec, err := embRepo.GetEmbedding(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, second, rec.Vector)
	assert.Equal(t, core.Fingerprint(doc.Title, doc.Body), rec.Fingerprint)
}

func TestCache_FailureNotCached(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, ai.NewGenerationError("provider call failed", errors.New("boom"))
	}
	cache, embRepo := newTestCache(t, embedder)
	ctx := context.Background()

	doc := &core.Document{ID: "n1", Title: "t", Body: "b"}
	_, err := cache.GetOrCreate(ctx, doc)
	assert.True(t, ai.IsGenerationError(err))

	count, err := embRepo.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "a failed generation must not leave a cache entry")
}

func TestCache_TruncatesProviderInput(t *testing.T) {
	embedder := mock.NewEmbedder()
	cache, _ := newTestCache(t, embedder, WithMaxEmbedChars(64))
	ctx := context.Background()

	doc := &core.Document{
		ID:    "n1",
		Title: "Long note",
		Body:  strings.Repeat("x", 500),
	}
	_, err := cache.GetOrCreate(ctx, doc)
	require.NoError(t, err)

	calls := embedder.Calls()
	require.Len(t, calls, 1)
	assert.LessOrEqual(t, len(calls[0]), 64)
}

func TestTruncate_RuneSafe(t *testing.T) {
	s := "héllo wörld"
	cut := truncate(s, 2) // byte 2 is inside the two-byte é
	assert.Equal(t, "h", cut)
	assert.Equal(t, s, truncate(s, len(s)))
}
