package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill/ai"
	"github.com/quillnotes/quill/ai/mock"
	"github.com/quillnotes/quill/core"
	"github.com/quillnotes/quill/embedding"
	"github.com/quillnotes/quill/storage"
	"github.com/quillnotes/quill/storage/badger"
	"github.com/quillnotes/quill/vector"
)

func newTestSearcher(t *testing.T, emb *mock.Embedder, opts ...Option) (*Searcher, storage.DocumentRepository) {
	t.Helper()

	docRepo, embRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	// A typed nil would report the capability as configured.
	var embedder ai.Embedder
	if emb != nil {
		embedder = emb
	}

	cache, err := embedding.NewCache(embRepo, embedder, embedding.WithThrottle(0))
	require.NoError(t, err)

	s, err := NewSearcher(docRepo, cache, opts...)
	require.NoError(t, err)
	return s, docRepo
}

func seedDocs(t *testing.T, docs storage.DocumentRepository, items ...*core.Document) {
	t.Helper()
	_, err := docs.AddDocuments(context.Background(), items...)
	require.NoError(t, err)
}

// axisEmbedder maps text to fixed three-dimensional vectors so similarity
// scores in tests are exact.
func axisEmbedder(vectors map[string][]float32, fallback []float32) *mock.Embedder {
	m := mock.NewEmbedder()
	m.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		for needle, vec := range vectors {
			if strings.Contains(text, needle) {
				return vec, nil
			}
		}
		return fallback, nil
	}
	return m
}

func TestNewSearcher(t *testing.T) {
	docRepo, embRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	cache, err := embedding.NewCache(embRepo, nil)
	require.NoError(t, err)

	t.Run("valid configuration", func(t *testing.T) {
		s, err := NewSearcher(docRepo, cache)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("with custom logger", func(t *testing.T) {
		s, err := NewSearcher(docRepo, cache, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewSearcher(nil, cache)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("nil embedding cache", func(t *testing.T) {
		_, err := NewSearcher(docRepo, nil)
		assert.Equal(t, ErrEmbeddingCacheRequired, err)
	})

	t.Run("invalid similarity floor", func(t *testing.T) {
		_, err := NewSearcher(docRepo, cache, WithSimilarityFloor(1.5))
		assert.Error(t, err)
	})

	t.Run("invalid keyword norm", func(t *testing.T) {
		_, err := NewSearcher(docRepo, cache, WithKeywordNorm(0))
		assert.Error(t, err)
	})
}

func TestBySimilarity(t *testing.T) {
	emb := axisEmbedder(map[string][]float32{
		"quarterly planning": {1, 0, 0}, // the query
		"Roadmap":            {1, 0, 0}, // exact match, score 1
		"Standup":            {0.6, 0.8, 0}, // score 0.6
		"Groceries":          {0, 1, 0}, // score 0, below floor
	}, []float32{0, 0, 1})

	s, docs := newTestSearcher(t, emb)
	seedDocs(t, docs,
		&core.Document{ID: "n1", Title: "Roadmap", Body: "Planning the quarter ahead."},
		&core.Document{ID: "n2", Title: "Standup", Body: "Daily sync notes."},
		&core.Document{ID: "n3", Title: "Groceries", Body: "Milk and eggs."},
	)

	ctx := context.Background()
	results, err := s.BySimilarity(ctx, "quarterly planning", 10, nil)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "n1", results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "n2", results[1].Document.ID)
	assert.InDelta(t, 0.6, results[1].Score, 1e-6)
	for _, r := range results {
		assert.Equal(t, core.StrategySemantic, r.Strategy)
		assert.NotEmpty(t, r.Excerpt)
	}
}

func TestBySimilarity_FloorIsStrict(t *testing.T) {
	// A score exactly at the floor must be excluded. With a floor of zero
	// an orthogonal vector scores exactly 0 and must not appear.
	emb := axisEmbedder(map[string][]float32{
		"query text": {1, 0, 0},
		"Edge":       {0, 1, 0},
		"Above":      {1, 1, 0},
	}, []float32{0, 0, 1})

	s, docs := newTestSearcher(t, emb, WithSimilarityFloor(0))
	seedDocs(t, docs,
		&core.Document{ID: "n1", Title: "Edge", Body: "Sits exactly on the line."},
		&core.Document{ID: "n2", Title: "Above", Body: "Clears the line."},
	)

	results, err := s.BySimilarity(context.Background(), "query text", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "n2", results[0].Document.ID)
}

func TestBySimilarity_NotConfigured(t *testing.T) {
	s, docs := newTestSearcher(t, nil)
	seedDocs(t, docs, &core.Document{ID: "n1", Title: "Note", Body: "Body."})

	_, err := s.BySimilarity(context.Background(), "anything", 5, nil)
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}

func TestBySimilarity_DimensionMismatch(t *testing.T) {
	emb := mock.NewEmbedder()
	emb.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "query") {
			return []float32{1, 0, 0}, nil
		}
		return []float32{1, 0, 0, 0}, nil
	}

	s, docs := newTestSearcher(t, emb)
	seedDocs(t, docs, &core.Document{ID: "n1", Title: "Note", Body: "Body."})

	_, err := s.BySimilarity(context.Background(), "query", 5, nil)
	assert.ErrorIs(t, err, vector.ErrDimensionMismatch)
}

func TestByKeyword(t *testing.T) {
	s, docs := newTestSearcher(t, nil)
	seedDocs(t, docs,
		&core.Document{ID: "1", Title: "JavaScript patterns", Body: "Closures and javascript prototypes."},
		&core.Document{ID: "2", Title: "Cooking", Body: "A javascript aside in a cooking note."},
		&core.Document{ID: "3", Title: "Gardening", Body: "Nothing relevant here."},
	)

	ctx := context.Background()
	results, err := s.ByKeyword(ctx, "JavaScript", 10, nil)
	require.NoError(t, err)

	require.Len(t, results, 2)
	// Title match boosts doc 1 over the body-only match in doc 2.
	assert.Equal(t, "1", results[0].Document.ID)
	assert.InDelta(t, 0.3, results[0].Score, 1e-9) // (2 title + 1 body) / 10
	assert.Equal(t, "2", results[1].Document.ID)
	assert.InDelta(t, 0.1, results[1].Score, 1e-9)
	for _, r := range results {
		assert.Equal(t, core.StrategyKeyword, r.Strategy)
	}
}

func TestByKeyword_BodyOccurrenceCeiling(t *testing.T) {
	s, docs := newTestSearcher(t, nil)
	seedDocs(t, docs, &core.Document{
		ID:    "n1",
		Title: "Spam",
		Body:  strings.Repeat("token ", 12),
	})

	results, err := s.ByKeyword(context.Background(), "token", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.5, results[0].Score, 1e-9) // capped at 5 occurrences
}

func TestByKeyword_OnlyShortTokens(t *testing.T) {
	s, docs := newTestSearcher(t, nil)
	seedDocs(t, docs, &core.Document{ID: "n1", Title: "A to do", Body: "a to of it"})

	results, err := s.ByKeyword(context.Background(), "a to of", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybrid_Deduplicates(t *testing.T) {
	// Doc n1 scores in both strategies; it must appear exactly once,
	// from the semantic list.
	emb := mock.NewEmbedder()
	emb.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		switch {
		case text == "roadmap":
			return []float32{1, 0, 0}, nil
		case strings.Contains(text, "covers next year"):
			return []float32{1, 0, 0}, nil
		default:
			return []float32{0, 1, 0}, nil
		}
	}

	s, docs := newTestSearcher(t, emb)
	seedDocs(t, docs,
		&core.Document{ID: "n1", Title: "Roadmap", Body: "The roadmap covers next year."},
		&core.Document{ID: "n2", Title: "Misc", Body: "A roadmap mention only."},
	)

	results, err := s.Hybrid(context.Background(), "roadmap", 10)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, r := range results {
		seen[r.Document.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "document %s duplicated", id)
	}
	require.NotEmpty(t, results)
	assert.Equal(t, "n1", results[0].Document.ID)
	assert.Equal(t, core.StrategySemantic, results[0].Strategy)
}

func TestHybrid_NotConfiguredDegradesToKeyword(t *testing.T) {
	s, docs := newTestSearcher(t, nil)
	seedDocs(t, docs,
		&core.Document{ID: "n1", Title: "JavaScript", Body: "javascript body."},
		&core.Document{ID: "n2", Title: "Other", Body: "unrelated."},
	)

	ctx := context.Background()
	hybrid, err := s.Hybrid(ctx, "javascript", 10)
	require.NoError(t, err)

	keyword, err := s.ByKeyword(ctx, "javascript", 10, nil)
	require.NoError(t, err)

	require.Len(t, hybrid, len(keyword))
	for i := range hybrid {
		assert.Equal(t, keyword[i].Document.ID, hybrid[i].Document.ID)
		assert.Equal(t, keyword[i].Score, hybrid[i].Score)
	}
}

func TestHybrid_GenerationFailureDegrades(t *testing.T) {
	emb := mock.NewEmbedder()
	emb.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return nil, ai.NewGenerationError("provider down", errors.New("boom"))
	}

	s, docs := newTestSearcher(t, emb)
	seedDocs(t, docs, &core.Document{ID: "n1", Title: "JavaScript", Body: "javascript body."})

	results, err := s.Hybrid(context.Background(), "javascript", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.StrategyKeyword, results[0].Strategy)
}

func TestHybrid_DimensionMismatchPropagates(t *testing.T) {
	emb := mock.NewEmbedder()
	emb.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "javascript") && !strings.Contains(text, "\n\n") {
			return []float32{1, 0}, nil
		}
		return []float32{1, 0, 0}, nil
	}

	s, docs := newTestSearcher(t, emb)
	seedDocs(t, docs, &core.Document{ID: "n1", Title: "Note", Body: "javascript body."})

	_, err := s.Hybrid(context.Background(), "javascript", 10)
	assert.ErrorIs(t, err, vector.ErrDimensionMismatch)
}

func TestHybrid_QueryCache(t *testing.T) {
	emb := axisEmbedder(map[string][]float32{
		"roadmap": {1, 0, 0},
	}, []float32{1, 0, 0})

	s, docs := newTestSearcher(t, emb, WithQueryCache(8, time.Minute))
	seedDocs(t, docs, &core.Document{ID: "n1", Title: "Roadmap", Body: "roadmap body."})

	ctx := context.Background()
	first, err := s.Hybrid(ctx, "roadmap", 5)
	require.NoError(t, err)
	callsAfterFirst := emb.CallCount()

	second, err := s.Hybrid(ctx, "roadmap", 5)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, emb.CallCount(), "cached response must not re-embed")
	require.Len(t, second, len(first))
	for i := range second {
		assert.Equal(t, first[i].Document.ID, second[i].Document.ID)
	}

	// Purging forces a fresh search.
	s.InvalidateQueryCache()
	_, err = s.Hybrid(ctx, "roadmap", 5)
	require.NoError(t, err)
	assert.Greater(t, emb.CallCount(), callsAfterFirst)
}

func TestHybrid_EmptyCorpus(t *testing.T) {
	s, _ := newTestSearcher(t, nil)

	results, err := s.Hybrid(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybridWithMonitor(t *testing.T) {
	s, docs := newTestSearcher(t, nil)
	seedDocs(t, docs, &core.Document{ID: "n1", Title: "JavaScript", Body: "javascript body."})

	mon := &recordingMonitor{}
	results, err := s.HybridWithMonitor(context.Background(), "javascript", 10, mon)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "javascript", mon.startedWith)
	assert.Equal(t, 1, mon.keywordHits)
	assert.True(t, mon.finished)
}

type recordingMonitor struct {
	startedWith string
	keywordHits int
	finished    bool
}

func (r *recordingMonitor) Start(query string)                           { r.startedWith = query }
func (r *recordingMonitor) AfterSemanticSearch(_ []*core.SearchResult)   {}
func (r *recordingMonitor) AfterKeywordSearch(_ []*core.SearchResult)    {}
func (r *recordingMonitor) SemanticHit(_ *core.SearchResult)             {}
func (r *recordingMonitor) KeywordHit(_ *core.SearchResult)              { r.keywordHits++ }
func (r *recordingMonitor) Duplicate(_ string)                           {}
func (r *recordingMonitor) Finish(_ []*core.SearchResult)                { r.finished = true }

func TestFindSimilar(t *testing.T) {
	s, docs := newTestSearcher(t, nil)
	seedDocs(t, docs,
		&core.Document{ID: "n1", Title: "JavaScript patterns", Body: "Closures everywhere.\n\nMore javascript."},
		&core.Document{ID: "n2", Title: "More JavaScript", Body: "javascript javascript."},
		&core.Document{ID: "n3", Title: "Cooking", Body: "Pasta."},
	)

	ctx := context.Background()
	results, err := s.FindSimilar(ctx, "n1", 5)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEqual(t, "n1", r.Document.ID, "source document must be excluded")
	}
}

func TestFindSimilar_UnknownID(t *testing.T) {
	s, _ := newTestSearcher(t, nil)

	results, err := s.FindSimilar(context.Background(), "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
