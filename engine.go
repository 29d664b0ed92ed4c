// Copyright 2026 Quillnotes
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package quill

import (
	"context"
	"log/slog"

	"github.com/quillnotes/quill/ai"
	"github.com/quillnotes/quill/ai/openai"
	"github.com/quillnotes/quill/core"
	"github.com/quillnotes/quill/embedding"
	"github.com/quillnotes/quill/ingestion"
	"github.com/quillnotes/quill/search"
	"github.com/quillnotes/quill/storage"
	"github.com/quillnotes/quill/storage/badger"
)

// Engine ties storage, the embedding cache and the searcher together
// behind one handle. It is the primary entry point for embedding code.
type Engine struct {
	backend  *badger.Backend
	docRepo  storage.DocumentRepository
	embRepo  storage.EmbeddingRepository
	cache    *embedding.Cache
	searcher *search.Searcher
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig   *ai.Config
	inMemory   bool
	embedder   ai.Embedder
	logger     *slog.Logger
	cacheOpts  []embedding.Option
	searchOpts []search.Option
}

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithInMemory opens the storage backend without a backing file.
// All data is lost on Close.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithEmbedder injects an embedder directly, bypassing provider
// construction. Intended for tests.
func WithEmbedder(e ai.Embedder) EngineOption {
	return func(o *engineOptions) {
		o.embedder = e
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithCacheOptions forwards options to the embedding cache.
func WithCacheOptions(opts ...embedding.Option) EngineOption {
	return func(o *engineOptions) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// WithSearchOptions forwards options to the searcher.
func WithSearchOptions(opts ...search.Option) EngineOption {
	return func(o *engineOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// NewEngine opens (or creates) an engine at filePath.
// When the embedding provider is not configured the engine still works:
// semantic operations return ai.ErrNotConfigured and hybrid search
// degrades to keyword matching.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embRepo, err := badger.NewEmbeddingRepository(backend)
	if err != nil {
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	// Resolve the embedder. An unconfigured provider is not an error;
	// the engine runs in keyword-only mode.
	embedder := options.embedder
	if embedder == nil && options.aiConfig.Available() {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			embRepo.Close()
			docRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	cacheOpts := append([]embedding.Option{embedding.WithLogger(options.logger)}, options.cacheOpts...)
	cache, err := embedding.NewCache(embRepo, embedder, cacheOpts...)
	if err != nil {
		embRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	searchOpts := append([]search.Option{search.WithLogger(options.logger)}, options.searchOpts...)
	searcher, err := search.NewSearcher(docRepo, cache, searchOpts...)
	if err != nil {
		embRepo.Close()
		docRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		docRepo:  docRepo,
		embRepo:  embRepo,
		cache:    cache,
		searcher: searcher,
		logger:   options.logger,
	}, nil
}

func (e *Engine) Close() error {
	// Close repositories
	if err := e.embRepo.Close(); err != nil {
		e.logger.Error("error closing embedding repository", "err", err)
		return err
	}
	if err := e.docRepo.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.docRepo
}

func (e *Engine) EmbeddingRepository() storage.EmbeddingRepository {
	return e.embRepo
}

func (e *Engine) EmbeddingCache() *embedding.Cache {
	return e.cache
}

func (e *Engine) NewImportPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.docRepo, opts...)
}

// EmbeddingsAvailable reports whether semantic operations can be attempted.
func (e *Engine) EmbeddingsAvailable() bool {
	return e.cache.Available()
}

// GenerateVector embeds raw text, bypassing the per-document cache.
func (e *Engine) GenerateVector(ctx context.Context, text string) ([]float32, error) {
	return e.cache.GenerateVector(ctx, text)
}

// GetOrCreateVector returns the cached embedding for a document,
// regenerating it when the stored fingerprint no longer matches.
func (e *Engine) GetOrCreateVector(ctx context.Context, doc *core.Document) ([]float32, error) {
	return e.cache.GetOrCreate(ctx, doc)
}

// BulkGenerateVectors warms the embedding cache for the whole corpus.
func (e *Engine) BulkGenerateVectors(ctx context.Context, onProgress embedding.ProgressFunc) error {
	docs, err := e.docRepo.GetAllDocuments(ctx)
	if err != nil {
		return err
	}
	if err := e.cache.BulkGenerate(ctx, docs, onProgress); err != nil {
		return err
	}
	e.searcher.InvalidateQueryCache()
	return nil
}

// SearchBySimilarity ranks the corpus by cosine similarity to the query.
func (e *Engine) SearchBySimilarity(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return e.searcher.BySimilarity(ctx, query, maxHits, nil)
}

// SearchByKeyword ranks the corpus by token matching.
func (e *Engine) SearchByKeyword(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return e.searcher.ByKeyword(ctx, query, maxHits, nil)
}

// HybridSearch merges semantic and keyword results, semantic first.
func (e *Engine) HybridSearch(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return e.searcher.Hybrid(ctx, query, maxHits)
}

// FindSimilar finds documents related to an existing document.
func (e *Engine) FindSimilar(ctx context.Context, documentID string, maxHits int) ([]*core.SearchResult, error) {
	return e.searcher.FindSimilar(ctx, documentID, maxHits)
}
