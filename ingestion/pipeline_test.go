package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/quill/storage"
	"github.com/quillnotes/quill/storage/badger"
)

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, storage.DocumentRepository) {
	t.Helper()

	docRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	p, err := NewPipeline(docRepo, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return p, docRepo
}

func writeNote(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewPipeline(t *testing.T) {
	t.Run("nil repository", func(t *testing.T) {
		_, err := NewPipeline(nil)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("pool size below one is clamped", func(t *testing.T) {
		p, _ := newTestPipeline(t, WithPoolSize(0))
		assert.NotNil(t, p)
	})
}

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "roadmap.md", "# Roadmap\n\nNext year's plan.")
	writeNote(t, dir, "sub/standup.md", "Daily sync notes without a heading.")
	writeNote(t, dir, "plain.txt", "# Plain\n\nText notes count too.")
	writeNote(t, dir, "image.png", "not a note")

	p, docs := newTestPipeline(t)
	ctx := context.Background()

	result, err := p.ImportDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Empty(t, result.Failed)

	count, err := docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Run("heading becomes the title", func(t *testing.T) {
		doc, err := docs.GetDocument(ctx, "roadmap.md")
		require.NoError(t, err)
		assert.Equal(t, "Roadmap", doc.Title)
		assert.Equal(t, "Next year's plan.", doc.Body)
	})

	t.Run("filename titles a headingless note", func(t *testing.T) {
		doc, err := docs.GetDocument(ctx, "sub/standup.md")
		require.NoError(t, err)
		assert.Equal(t, "standup", doc.Title)
		assert.Equal(t, "Daily sync notes without a heading.", doc.Body)
	})
}

func TestImportDirectory_ReimportOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "note.md", "# Before\n\nOld body.")

	p, docs := newTestPipeline(t)
	ctx := context.Background()

	_, err := p.ImportDirectory(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("# After\n\nNew body."), 0o644))
	_, err = p.ImportDirectory(ctx, dir)
	require.NoError(t, err)

	count, err := docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	doc, err := docs.GetDocument(ctx, "note.md")
	require.NoError(t, err)
	assert.Equal(t, "After", doc.Title)
}

func TestImportDirectory_EmptyRoot(t *testing.T) {
	p, _ := newTestPipeline(t)
	_, err := p.ImportDirectory(context.Background(), "")
	assert.Equal(t, ErrRootRequired, err)
}

func TestImportFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeNote(t, dir, "single.md", "# Single\n\nJust one.")

	p, docs := newTestPipeline(t)
	ctx := context.Background()

	result, err := p.ImportFiles(ctx, dir, path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	_, err = docs.GetDocument(ctx, "single.md")
	assert.NoError(t, err)
}

func TestImportFiles_MissingFile(t *testing.T) {
	dir := t.TempDir()
	good := writeNote(t, dir, "good.md", "# Good\n\nReadable.")

	p, docs := newTestPipeline(t)
	ctx := context.Background()

	result, err := p.ImportFiles(ctx, dir, good, filepath.Join(dir, "missing.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Len(t, result.Failed, 1)

	count, err := docs.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSplitTitle(t *testing.T) {
	t.Run("heading and body", func(t *testing.T) {
		title, body := splitTitle("# Title\n\nBody text.")
		assert.Equal(t, "Title", title)
		assert.Equal(t, "Body text.", body)
	})

	t.Run("deeper heading levels work", func(t *testing.T) {
		title, _ := splitTitle("## Nested\ncontent")
		assert.Equal(t, "Nested", title)
	})

	t.Run("no heading", func(t *testing.T) {
		title, body := splitTitle("Just text.")
		assert.Equal(t, "", title)
		assert.Equal(t, "Just text.", body)
	})

	t.Run("leading blank lines before heading", func(t *testing.T) {
		title, _ := splitTitle("\n\n# Late Heading\nbody")
		assert.Equal(t, "Late Heading", title)
	})
}
