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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/quillnotes/quill"
	"github.com/quillnotes/quill/ai"
	"github.com/quillnotes/quill/core"
	"github.com/quillnotes/quill/embedding"
	"github.com/quillnotes/quill/ingestion"
)

func main() {
	app := &cli.App{
		Name:  "quill",
		Usage: "Hybrid search over a personal notes corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "Import note files from a directory into the corpus",
				Action: importCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:     "notes",
						Aliases:  []string{"n"},
						Usage:    "Path to the directory of note files",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent parse workers",
					},
				),
			},
			{
				Name:   "embed",
				Usage:  "Generate embeddings for every document in the corpus",
				Action: embedCommand,
				Flags: append(dbFlags(),
					embeddingFlags(
						&cli.IntFlag{
							Name:  "report-interval",
							Usage: "Report progress every N documents",
							Value: 10,
						},
					)...,
				),
			},
			{
				Name:      "search",
				Usage:     "Search the corpus",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(dbFlags(),
					embeddingFlags(
						&cli.StringFlag{
							Name:  "mode",
							Usage: "Search mode (hybrid, semantic, keyword)",
							Value: "hybrid",
						},
						&cli.IntFlag{
							Name:    "limit",
							Aliases: []string{"k"},
							Usage:   "Maximum number of results",
							Value:   10,
						},
					)...,
				),
			},
			{
				Name:      "similar",
				Usage:     "Find documents similar to an existing document",
				ArgsUsage: "<document-id>",
				Action:    similarCommand,
				Flags: append(dbFlags(),
					embeddingFlags(
						&cli.IntFlag{
							Name:    "limit",
							Aliases: []string{"k"},
							Usage:   "Maximum number of results",
							Value:   10,
						},
					)...,
				),
			},
			{
				Name:   "stats",
				Usage:  "Show corpus and embedding cache counts",
				Action: statsCommand,
				Flags:  dbFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the database directory",
			Required: true,
		},
	}
}

func embeddingFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "https://api.openai.com/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "text-embedding-3-small",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding service credential",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
	}
	return append(flags, extra...)
}

func openEngine(c *cli.Context) (*quill.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
	)

	engine, err := quill.NewEngine(c.String("db"), quill.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var pipelineOpts []ingestion.Option
	if workers := c.Int("workers"); workers > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(workers))
	}

	pipeline, err := engine.NewImportPipeline(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create import pipeline: %w", err)
	}
	defer pipeline.Release()

	result, err := pipeline.ImportDirectory(ctx, c.String("notes"))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Imported %d documents\n", result.Imported)
	for _, path := range result.Failed {
		fmt.Fprintf(os.Stderr, "Failed: %s\n", path)
	}
	return nil
}

func embedCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if !engine.EmbeddingsAvailable() {
		return fmt.Errorf("embedding provider is not configured: set --api-key or OPENAI_API_KEY")
	}

	tracker := embedding.NewProgressTracker(os.Stderr, c.Int("report-interval"))
	if err := engine.BulkGenerateVectors(ctx, tracker.Update); err != nil {
		return fmt.Errorf("embedding generation failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\nDone in %s\n", tracker.Elapsed().Round(time.Second))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	limit := c.Int("limit")
	var results []*core.SearchResult
	switch c.String("mode") {
	case "hybrid":
		results, err = engine.HybridSearch(ctx, query, limit)
	case "semantic":
		results, err = engine.SearchBySimilarity(ctx, query, limit)
	case "keyword":
		results, err = engine.SearchByKeyword(ctx, query, limit)
	default:
		return fmt.Errorf("invalid mode %q: must be one of hybrid, semantic, keyword", c.String("mode"))
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(results)
	return nil
}

func similarCommand(c *cli.Context) error {
	ctx := context.Background()

	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("document id is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.FindSimilar(ctx, id, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("similarity lookup failed: %w", err)
	}

	printResults(results)
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := engine.DocumentRepository().CountDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	embeddings, err := engine.EmbeddingRepository().CountEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("failed to count embeddings: %w", err)
	}

	fmt.Printf("Documents:  %d\n", docs)
	fmt.Printf("Embeddings: %d\n", embeddings)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func printResults(results []*core.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. [%.3f] %s (%s, %s)\n", i+1, r.Score, r.Document.Title, r.Document.ID, r.Strategy)
		fmt.Printf("   %s\n", r.Excerpt)
	}
}
