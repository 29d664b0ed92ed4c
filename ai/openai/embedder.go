package openai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/quillnotes/quill/ai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates a new embedder using the provided configuration.
// Returns ai.ErrNotConfigured when no credential is set.
func NewEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a
// batch. The response shape is validated before it is returned: one
// non-empty vector per input, all of the same dimension.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, ai.NewGenerationError("provider call failed", err)
	}

	if err := validateResponse(texts, vectors); err != nil {
		e.logger.Error("embedding response failed validation", "err", err)
		return nil, err
	}

	return vectors, nil
}

// validateResponse rejects malformed provider responses instead of letting
// them flow into the cache. Returns a *ai.GenerationError on any shape
// mismatch.
func validateResponse(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return ai.NewGenerationError("provider returned wrong number of embeddings", nil)
	}
	for _, v := range vectors {
		if len(v) == 0 {
			return ai.NewGenerationError("provider returned an empty embedding", nil)
		}
		if len(v) != len(vectors[0]) {
			return ai.NewGenerationError("provider returned embeddings of mixed dimensions", nil)
		}
	}
	return nil
}
