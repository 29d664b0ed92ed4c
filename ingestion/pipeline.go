package ingestion

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/quillnotes/quill/core"
	"github.com/quillnotes/quill/storage"
)

// Pipeline imports note files into the document store.
// Files are parsed concurrently and persisted as one batch.
type Pipeline struct {
	docs   storage.DocumentRepository
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent parsing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new import pipeline.
func NewPipeline(docs storage.DocumentRepository, opts ...Option) (*Pipeline, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		docs:   docs,
		pool:   pool,
		logger: slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported int      // documents persisted
	Failed   []string // paths that could not be parsed
}

// ImportDirectory walks root, parses every recognized note file and stores
// the resulting documents. Per-file failures are logged and collected; the
// walk itself failing aborts the import.
func (p *Pipeline) ImportDirectory(ctx context.Context, root string) (*ImportResult, error) {
	if root == "" {
		return nil, ErrRootRequired
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if importExtensions[filepath.Ext(path)] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return p.importPaths(ctx, root, paths)
}

// ImportFiles parses and stores the named files. The document id of each
// file is its path relative to root.
func (p *Pipeline) ImportFiles(ctx context.Context, root string, paths ...string) (*ImportResult, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	return p.importPaths(ctx, root, paths)
}

func (p *Pipeline) importPaths(ctx context.Context, root string, paths []string) (*ImportResult, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		parsed []*core.Document
		failed []string
	)

	for _, path := range paths {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			doc, err := parseFile(root, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Warn("failed to parse note file", "path", path, "err", err)
				failed = append(failed, path)
				return
			}
			parsed = append(parsed, doc)
		})
		if submitErr != nil {
			wg.Done()
			return nil, submitErr
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Workers finish in arbitrary order; keep the batch deterministic.
	sort.Slice(parsed, func(i, j int) bool {
		return parsed[i].ID < parsed[j].ID
	})

	if len(parsed) > 0 {
		if _, err := p.docs.AddDocuments(ctx, parsed...); err != nil {
			return nil, err
		}
	}

	return &ImportResult{
		Imported: len(parsed),
		Failed:   failed,
	}, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
