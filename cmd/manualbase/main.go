// Copyright 2025 Nexfix Labs
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
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	manualbase "github.com/nexfix/manualbase"
	"github.com/nexfix/manualbase/ai"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/reindex"
	"github.com/nexfix/manualbase/retrieval"
)

func main() {
	app := &cli.App{
		Name:   "manualbase",
		Usage:  "Document intelligence for PDF service manuals",
		Flags:  globalFlags(),
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "process",
				Usage:     "Ingest a PDF service manual through all pipeline stages",
				ArgsUsage: "<manual.pdf>",
				Flags:     append(dbFlags(), processFlags()...),
				Action:    processCommand,
			},
			{
				Name:      "reprocess",
				Usage:     "Re-run the failed stages of an already ingested manual",
				ArgsUsage: "<manual.pdf>",
				Flags:     append(dbFlags(), processFlags()...),
				Action:    reprocessCommand,
			},
			{
				Name:      "status",
				Usage:     "Show stage status for every ingested document",
				Flags:     dbFlags(),
				Action:    statusCommand,
			},
			{
				Name:      "search",
				Usage:     "Semantic search over extracted manual text",
				ArgsUsage: "<query>",
				Flags: append(dbFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Minimum similarity score in [0,1]",
						Value: 0.3,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
				),
				Action: searchCommand,
			},
			{
				Name:      "lookup",
				Usage:     "Look up an error code or part number across all manuals",
				ArgsUsage: "<code-or-part>",
				Flags: append(dbFlags(),
					&cli.BoolFlag{
						Name:  "part",
						Usage: "Treat the argument as a part number",
					},
				),
				Action: lookupCommand,
			},
			{
				Name:  "reindex",
				Usage: "Re-embed every chunk after an embedding model change",
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "New embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
				Action: reindexCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
		},
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func processFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "manufacturer",
			Aliases:  []string{"m"},
			Usage:    "Manufacturer identifier (hp, canon, ...)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible host for all AI services",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "vision-model",
			Usage: "Vision model name",
			Value: "llava:13b",
		},
		&cli.BoolFlag{
			Name:  "no-vision",
			Usage: "Skip vision analysis, recording deterministic fallbacks",
		},
		&cli.IntFlag{
			Name:  "max-vision-images",
			Usage: "Cap on images per document sent to the vision model (0 = no cap)",
		},
		&cli.IntFlag{
			Name:  "max-pages",
			Usage: "Cap on pages extracted per document (0 = all)",
		},
		&cli.StringFlag{
			Name:  "translate-to",
			Usage: "ISO 639-1 language for solution translation (empty disables)",
		},
		&cli.StringFlag{
			Name:  "translation-model",
			Usage: "Translation model name",
			Value: "qwen2.5:3b",
		},
	}
}

func openDatabase(c *cli.Context) (*manualbase.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithVisionModel(c.String("vision-model")),
		ai.WithTranslationModel(c.String("translation-model")),
		ai.WithTargetLanguage(c.String("translate-to")),
	)

	return manualbase.NewDatabase(c.String("db"),
		manualbase.WithAIConfig(aiConfig),
		manualbase.WithVisionDisabled(c.Bool("no-vision")),
		manualbase.WithMaxVisionImages(c.Int("max-vision-images")),
		manualbase.WithMaxTextPages(c.Int("max-pages")),
	)
}

// signalContext cancels on SIGINT/SIGTERM so an interrupted run fails its
// active stage cleanly instead of leaving it in_progress.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func processCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one PDF path argument")
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	doc, err := db.Pipeline().Process(ctx, c.Args().First(), c.String("manufacturer"))
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	printDocument(doc)
	return nil
}

func reprocessCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one PDF path argument")
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	doc, err := db.Pipeline().Reprocess(ctx, c.Args().First(), c.String("manufacturer"))
	if err != nil {
		return fmt.Errorf("reprocessing failed: %w", err)
	}
	printDocument(doc)
	return nil
}

func statusCommand(c *cli.Context) error {
	db, err := openDatabaseReadOnly(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	docs, err := db.Repositories().Documents.ListDocuments(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("No documents ingested")
		return nil
	}
	for _, doc := range docs {
		printDocument(doc)
		fmt.Println()
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	db, err := openDatabaseReadOnly(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	results, err := db.Retriever().SearchChunks(context.Background(), c.Args().First(), retrieval.SearchOptions{
		TopK:          c.Int("top-k"),
		MinSimilarity: float32(c.Float64("min-similarity")),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches")
		return nil
	}
	for i, r := range results {
		source := "unknown document"
		if r.Document != nil {
			source = r.Document.Filename
		}
		fmt.Printf("%d. [%.3f] %s (page %d)\n", i+1, r.Score, source, r.Chunk.PageNumber)
		fmt.Printf("   %s\n", firstLine(r.Chunk.Text))
	}
	return nil
}

func lookupCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one code or part-number argument")
	}

	db, err := openDatabaseReadOnly(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	arg := c.Args().First()

	if c.Bool("part") {
		results, err := db.Retriever().LookupPart(ctx, arg)
		if err != nil {
			return fmt.Errorf("part lookup failed: %w", err)
		}
		if len(results) == 0 {
			fmt.Println("No matches")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%s — %s (document %s, confidence %.2f)\n",
				r.Part.PartNumber, r.Part.Description, documentName(r.Document), r.Part.Confidence)
		}
		return nil
	}

	results, err := db.Retriever().LookupErrorCode(ctx, arg)
	if err != nil {
		return fmt.Errorf("error-code lookup failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s (document %s, confidence %.2f)\n", r.Code.Code, documentName(r.Document), r.Code.Confidence)
		if r.Code.Description != "" {
			fmt.Printf("  %s\n", r.Code.Description)
		}
		if r.Code.Solution != "" {
			fmt.Printf("  Solution: %s\n", r.Code.Solution)
		}
		if r.Code.SolutionTranslated != "" {
			fmt.Printf("  Translated: %s\n", r.Code.SolutionTranslated)
		}
		if r.Chunk != nil {
			fmt.Printf("  Context: %s\n", firstLine(r.Chunk.Text))
		}
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	db, err := manualbase.NewDatabase(c.String("db"),
		manualbase.WithAIConfig(ai.NewConfig(
			ai.WithHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)),
	)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cfg := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	ctx, cancel := signalContext()
	defer cancel()

	reindexer := db.NewReindexer(c.String("embedding-model"), cfg, os.Stderr)
	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n\n", c.String("embedding-model"))
	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

// openDatabaseReadOnly opens the database for query commands, which don't
// need AI hosts beyond embeddings for search.
func openDatabaseReadOnly(c *cli.Context) (*manualbase.Database, error) {
	opts := []manualbase.DatabaseOption{manualbase.WithVisionDisabled(true)}
	if c.IsSet("embedding-host") || c.IsSet("embedding-model") {
		opts = append(opts, manualbase.WithAIConfig(ai.NewConfig(
			ai.WithHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)))
	}
	return manualbase.NewDatabase(c.String("db"), opts...)
}

func printDocument(doc *core.Document) {
	fmt.Printf("%s (%s, %d pages) — %s\n", doc.Filename, doc.Manufacturer, doc.PageCount, doc.OverallState())
	for _, stage := range core.Stages {
		line := fmt.Sprintf("  %-16s %s", stage, doc.StageStatus[stage])
		if reason := doc.StageReasons[stage]; reason != "" {
			line += " (" + reason + ")"
		}
		fmt.Println(line)
	}
}

func documentName(doc *core.Document) string {
	if doc == nil {
		return "unknown"
	}
	return doc.Filename
}

func firstLine(text string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if len(line) > 160 {
		line = line[:160] + "…"
	}
	return strings.TrimSpace(line)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
