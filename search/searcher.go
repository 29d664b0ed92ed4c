package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/quillnotes/quill/ai"
	"github.com/quillnotes/quill/core"
	"github.com/quillnotes/quill/embedding"
	"github.com/quillnotes/quill/storage"
	"github.com/quillnotes/quill/vector"
)

const (
	// DefaultSimilarityFloor is the cosine score a document must exceed
	// (strictly) to appear in semantic results.
	DefaultSimilarityFloor = 0.3

	// DefaultKeywordNorm divides raw keyword scores into a roughly 0..1 range.
	DefaultKeywordNorm = 10.0

	titleMatchBoost  = 2
	bodyMatchCeiling = 5
)

// Searcher provides semantic, keyword and hybrid search over the document
// corpus.
type Searcher struct {
	docs            storage.DocumentRepository
	cache           *embedding.Cache
	similarityFloor float64
	keywordNorm     float64
	excerptLength   int
	queryCache      *queryCache
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithSimilarityFloor overrides the minimum cosine score for semantic hits.
func WithSimilarityFloor(floor float64) Option {
	return func(s *Searcher) error {
		if floor < -1 || floor > 1 {
			return errors.New("similarity floor must be within [-1, 1]")
		}
		s.similarityFloor = floor
		return nil
	}
}

// WithKeywordNorm overrides the divisor applied to raw keyword scores.
func WithKeywordNorm(norm float64) Option {
	return func(s *Searcher) error {
		if norm <= 0 {
			return errors.New("keyword norm must be positive")
		}
		s.keywordNorm = norm
		return nil
	}
}

// WithExcerptLength overrides the excerpt window size in bytes.
func WithExcerptLength(n int) Option {
	return func(s *Searcher) error {
		if n <= 0 {
			return errors.New("excerpt length must be positive")
		}
		s.excerptLength = n
		return nil
	}
}

// WithQueryCache enables LRU memoization of hybrid responses.
// Cached entries expire after ttl; zero ttl uses DefaultQueryCacheTTL.
func WithQueryCache(capacity int, ttl time.Duration) Option {
	return func(s *Searcher) error {
		qc, err := newQueryCache(capacity, ttl)
		if err != nil {
			return err
		}
		s.queryCache = qc
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(docs storage.DocumentRepository, cache *embedding.Cache, opts ...Option) (*Searcher, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if cache == nil {
		return nil, ErrEmbeddingCacheRequired
	}

	s := &Searcher{
		docs:            docs,
		cache:           cache,
		similarityFloor: DefaultSimilarityFloor,
		keywordNorm:     DefaultKeywordNorm,
		excerptLength:   DefaultExcerptLength,
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// EmbeddingsAvailable reports whether semantic search can be attempted.
func (s *Searcher) EmbeddingsAvailable() bool {
	return s.cache.Available()
}

// InvalidateQueryCache drops all memoized responses. Call after bulk
// corpus mutations when a query cache is configured.
func (s *Searcher) InvalidateQueryCache() {
	if s.queryCache != nil {
		s.queryCache.purge()
	}
}

// resolveCorpus returns the documents to rank. A nil corpus means the
// whole collection, loaded in stable storage order.
func (s *Searcher) resolveCorpus(ctx context.Context, corpus []*core.Document) ([]*core.Document, error) {
	if corpus != nil {
		return corpus, nil
	}
	return s.docs.GetAllDocuments(ctx)
}

// BySimilarity ranks the corpus by cosine similarity against the query
// embedding. Documents whose cached vector cannot be produced are skipped;
// a vector of mismatched dimensionality aborts the whole search.
// Returns up to maxHits results above the similarity floor, best first.
func (s *Searcher) BySimilarity(ctx context.Context, query string, maxHits int, corpus []*core.Document) ([]*core.SearchResult, error) {
	if !s.cache.Available() {
		return nil, ai.ErrNotConfigured
	}

	queryVec, err := s.cache.GenerateVector(ctx, query)
	if err != nil {
		return nil, err
	}

	docs, err := s.resolveCorpus(ctx, corpus)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(docs))
	for _, doc := range docs {
		vec, err := s.cache.GetOrCreate(ctx, doc)
		if err != nil {
			s.logger.Warn("skipping document without embedding", "id", doc.ID, "err", err)
			continue
		}

		score, err := vector.CosineSimilarity(queryVec, vec)
		if err != nil {
			// A stored vector of the wrong dimensionality means the
			// corpus and provider disagree; surface it, do not skip.
			return nil, err
		}
		if score <= s.similarityFloor {
			continue
		}

		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    score,
			Excerpt:  ExtractExcerpt(doc.Body, query, s.excerptLength),
			Strategy: core.StrategySemantic,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	return results, nil
}

// ByKeyword ranks the corpus by token matching. Title matches earn a flat
// boost per token; body matches count occurrences up to a per-token
// ceiling. Raw scores are divided by the keyword norm.
// Returns up to maxHits results with a positive score, best first.
func (s *Searcher) ByKeyword(ctx context.Context, query string, maxHits int, corpus []*core.Document) ([]*core.SearchResult, error) {
	tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return []*core.SearchResult{}, nil
	}

	docs, err := s.resolveCorpus(ctx, corpus)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(docs))
	for _, doc := range docs {
		title := strings.ToLower(doc.Title)
		body := strings.ToLower(doc.Body)

		raw := 0
		for _, tok := range tokens {
			if strings.Contains(title, tok) {
				raw += titleMatchBoost
			}
			if n := strings.Count(body, tok); n > 0 {
				if n > bodyMatchCeiling {
					n = bodyMatchCeiling
				}
				raw += n
			}
		}
		if raw == 0 {
			continue
		}

		results = append(results, &core.SearchResult{
			Document: doc,
			Score:    float64(raw) / s.keywordNorm,
			Excerpt:  ExtractExcerpt(doc.Body, query, s.excerptLength),
			Strategy: core.StrategyKeyword,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	return results, nil
}

// Hybrid merges semantic and keyword results, semantic first, deduplicated
// by document id. When embeddings are unavailable or generation fails the
// search degrades to keyword-only; a dimension mismatch is never swallowed.
// Returns up to maxHits results.
func (s *Searcher) Hybrid(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.HybridWithMonitor(ctx, query, maxHits, nil)
}

// HybridWithMonitor is Hybrid with observation hooks.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) HybridWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	var key [32]byte
	if s.queryCache != nil {
		key = cacheKey(query, "hybrid", maxHits)
		if cached, ok := s.queryCache.get(key); ok {
			monitor.Finish(cached)
			return cached, nil
		}
	}

	// Load the corpus once; both strategies rank the same snapshot.
	docs, err := s.docs.GetAllDocuments(ctx)
	if err != nil {
		return nil, err
	}

	// Over-fetch both lists so deduplication cannot starve the merge.
	var semantic []*core.SearchResult
	if s.cache.Available() {
		semantic, err = s.BySimilarity(ctx, query, maxHits*2, docs)
		if err != nil {
			if errors.Is(err, vector.ErrDimensionMismatch) {
				return nil, err
			}
			s.logger.Warn("semantic search failed, degrading to keyword only", "err", err)
			semantic = nil
		}
	}
	monitor.AfterSemanticSearch(semantic)

	keyword, err := s.ByKeyword(ctx, query, maxHits*2, docs)
	if err != nil {
		return nil, err
	}
	monitor.AfterKeywordSearch(keyword)

	results := make([]*core.SearchResult, 0, maxHits)
	seen := make(map[string]bool)

	appendHit := func(r *core.SearchResult) {
		if seen[r.Document.ID] {
			monitor.Duplicate(r.Document.ID)
			return
		}
		seen[r.Document.ID] = true
		results = append(results, r)
		if r.Strategy == core.StrategySemantic {
			monitor.SemanticHit(r)
		} else {
			monitor.KeywordHit(r)
		}
	}

	// Interleave, semantic candidate first at each rank.
	for i := 0; len(results) < maxHits && (i < len(semantic) || i < len(keyword)); i++ {
		if i < len(semantic) {
			appendHit(semantic[i])
		}
		if len(results) >= maxHits {
			break
		}
		if i < len(keyword) {
			appendHit(keyword[i])
		}
	}

	if s.queryCache != nil {
		s.queryCache.put(key, results)
	}
	monitor.Finish(results)

	return results, nil
}

// FindSimilar finds documents related to an existing document, using its
// title and opening paragraph as the query. The source document itself is
// excluded from the results. An unknown id yields an empty list, not an
// error.
func (s *Searcher) FindSimilar(ctx context.Context, documentID string, maxHits int) ([]*core.SearchResult, error) {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []*core.SearchResult{}, nil
		}
		return nil, err
	}

	query := doc.Title
	if para := firstParagraph(doc.Body); para != "" {
		query = query + "\n\n" + para
	}

	// One extra hit absorbs the source document before filtering.
	hits, err := s.Hybrid(ctx, query, maxHits+1)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Document.ID == documentID {
			continue
		}
		results = append(results, hit)
	}
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	return results, nil
}
