package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill/ai"
	"github.com/quillnotes/quill/ai/mock"
	"github.com/quillnotes/quill/core"
)

func TestBulkGenerate_ProgressAndPartialFailure(t *testing.T) {
	calls := 0
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls++
		if calls == 2 {
			return nil, ai.NewGenerationError("provider call failed", nil)
		}
		return mock.DeterministicVector(text, 8), nil
	}

	cache, embRepo := newTestCache(t, embedder)
	ctx := context.Background()

	docs := []*core.Document{
		{ID: "n1", Title: "one", Body: "."},
		{ID: "n2", Title: "two", Body: "."},
		{ID: "n3", Title: "three", Body: "."},
	}

	var progress [][2]int
	err := cache.BulkGenerate(ctx, docs, func(completed, total int) {
		progress = append(progress, [2]int{completed, total})
	})
	require.NoError(t, err, "one failed document must not fail the batch")

	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)

	count, err := embRepo.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "the failed document stays uncached")

	_, err = embRepo.GetEmbedding(ctx, "n2")
	assert.Error(t, err)
}

func TestBulkGenerate_Unconfigured(t *testing.T) {
	cache, _ := newTestCache(t, nil)

	err := cache.BulkGenerate(context.Background(), []*core.Document{
		{ID: "n1", Title: "one", Body: "."},
	}, nil)
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestBulkGenerate_NilProgressAndEmptyBatch(t *testing.T) {
	cache, _ := newTestCache(t, mock.NewEmbedder())
	ctx := context.Background()

	assert.NoError(t, cache.BulkGenerate(ctx, nil, nil))
	assert.NoError(t, cache.BulkGenerate(ctx, []*core.Document{
		{ID: "n1", Title: "one", Body: "."},
	}, nil))
}

func TestBulkGenerate_Cancellation(t *testing.T) {
	cache, _ := newTestCache(t, mock.NewEmbedder())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cache.BulkGenerate(ctx, []*core.Document{
		{ID: "n1", Title: "one", Body: "."},
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
