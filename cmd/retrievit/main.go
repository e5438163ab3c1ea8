// Copyright 2025 Poiesic Systems
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
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/ai/openai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/ingestion"
	"github.com/poiesic/retrievit/reindex"
	"github.com/poiesic/retrievit/search"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
	"github.com/urfave/cli/v2"
)

// aiFlags is the shared flag block for commands that talk to an AI
// service. The mock provider needs no service at all.
func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "mock",
			Usage: "Use the deterministic built-in provider instead of an AI service",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat model name for extraction and synthesis",
			Value: "qwen2.5:3b",
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

func main() {
	app := &cli.App{
		Name:  "retrievit",
		Usage: "Knowledge-grounded retrieval and question answering over document corpora",
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
				Name:   "extract",
				Usage:  "Extract raw mentions and triples from a documents file",
				Action: extractCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "in",
						Aliases:  []string{"i"},
						Usage:    "Path to documents JSON file",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Path for the extraction JSON output (default: stdout)",
					},
					&cli.Float64Flag{
						Name:  "min-confidence",
						Usage: "Drop extracted triples below this confidence",
						Value: 0.5,
					},
				}, aiFlags()...),
			},
			{
				Name:   "build",
				Usage:  "Run the full offline build from corpus files",
				Action: buildCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "extracted",
						Usage: "Path to extraction JSON (mentions and triples)",
					},
					&cli.StringFlag{
						Name:  "docs",
						Usage: "Path to documents JSON file",
					},
					&cli.StringFlag{
						Name:  "faqs",
						Usage: "Path to FAQ JSON file",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to embed in each batch",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Embedding worker pool size (default: half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: ingestion.DefaultMaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: ingestion.DefaultRetryBaseDelay,
					},
				}, aiFlags()...),
			},
			{
				Name:      "ask",
				Usage:     "Ask a one-shot question against a built database",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.BoolFlag{
						Name:  "synthesize",
						Usage: "Pipe the assembled context through the synthesis model",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Per-query evidence collection deadline",
						Value: search.DefaultTimeout,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of document chunks to retrieve",
						Value: search.DefaultChunkTopK,
					},
				}, aiFlags()...),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all chunks and FAQ entries with new embeddings",
				Action: reindexCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, aiFlags()...),
			},
			{
				Name:   "stats",
				Usage:  "Show corpus counts and the last build report",
				Action: statsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// buildProvider assembles the AI provider from the shared flag block.
func buildProvider(c *cli.Context) (ai.AIProvider, error) {
	if c.Bool("mock") {
		return mock.NewMockProvider(), nil
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := openai.NewProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	return provider, nil
}

func extractCommand(c *cli.Context) error {
	ctx := context.Background()

	docs, err := loadDocuments(c.String("in"))
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	var extractor ai.TripleExtractor
	if c.Bool("mock") {
		provider := mock.NewMockProvider()
		defer provider.Close()
		extractor = provider.TripleExtractor()
	} else {
		aiConfig := ai.NewConfig(
			ai.WithChatHost(c.String("host")),
			ai.WithChatModel(c.String("chat-model")),
			ai.WithMinConfidence(c.Float64("min-confidence")),
		)
		if err := aiConfig.Validate(); err != nil {
			return fmt.Errorf("invalid AI configuration: %w", err)
		}
		extractor, err = openai.NewTripleExtractor(aiConfig)
		if err != nil {
			return fmt.Errorf("failed to create triple extractor: %w", err)
		}
	}

	extraction := &extractionFile{}
	seenMentions := make(map[string]struct{})
	for i, doc := range docs {
		triples, err := extractor.ExtractTriples(ctx, doc.Text)
		if err != nil {
			return fmt.Errorf("extraction failed for chunk %d of %q: %w", i, doc.Document, err)
		}
		appendExtraction(extraction, doc.Document, triples, seenMentions)
	}

	if err := writeExtraction(c.String("out"), extraction); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Extracted %d triples and %d mentions from %d chunks\n",
		len(extraction.Triples), len(extraction.Mentions), len(docs))
	return nil
}

func buildCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.String("extracted") == "" && c.String("docs") == "" && c.String("faqs") == "" {
		return fmt.Errorf("at least one of --extracted, --docs or --faqs is required")
	}

	input, err := loadBuildInput(c.String("extracted"), c.String("docs"), c.String("faqs"))
	if err != nil {
		return err
	}

	provider, err := buildProvider(c)
	if err != nil {
		return err
	}

	// The engine owns the provider from here and closes it
	engine, err := retrievit.NewEngine(c.String("db"), retrievit.WithProvider(provider))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	buildOpts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		ingestion.WithProgress(func(stage string, done, total int) {
			fmt.Fprintf(os.Stderr, "\rEmbedding %s: %d/%d", stage, done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}),
	}
	if size := c.Int("pool-size"); size > 0 {
		buildOpts = append(buildOpts, ingestion.WithPoolSize(size))
	}

	report, err := engine.Rebuild(ctx, input, buildOpts...)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printReport(os.Stdout, report)
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("question argument is required")
	}

	provider, err := buildProvider(c)
	if err != nil {
		return err
	}

	engine, err := retrievit.NewEngine(c.String("db"), retrievit.WithProvider(provider))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	if err := engine.LoadSnapshot(ctx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("database %q holds no corpus yet, run 'retrievit build' first", c.String("db"))
		}
		return err
	}

	searcher, err := engine.NewSearcher(
		search.WithTimeout(c.Duration("timeout")),
		search.WithChunkTopK(c.Int("top-k")),
	)
	if err != nil {
		return err
	}

	result, err := searcher.Answer(ctx, question)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	switch result.Outcome {
	case core.OutcomeDirectAnswer:
		fmt.Println(result.Answer)

	case core.OutcomeNoEvidence:
		fmt.Println("No evidence found.")

	case core.OutcomeEvidence:
		if c.Bool("synthesize") {
			answer, err := provider.Synthesizer().Synthesize(ctx, result.Context)
			if err != nil {
				return fmt.Errorf("synthesis failed: %w", err)
			}
			fmt.Println(answer)
			break
		}

		fmt.Printf("Found %d pieces of evidence in %v\n", len(result.Evidence), result.Elapsed.Round(time.Millisecond))
		for i, item := range result.Evidence {
			fmt.Printf("%d: [%s] '%s' [%0.3f]\n", i, item.Kind, evidenceText(item), item.FusionScore)
		}
		fmt.Println()
		fmt.Println(result.Context)
	}

	if result.Partial {
		fmt.Fprintln(os.Stderr, "note: evidence collection hit the deadline, results may be partial")
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	repos, err := badger.NewRepositories(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repos.Close()

	var embedder ai.Embedder
	if c.Bool("mock") {
		embedder = mock.NewMockEmbedder()
	} else {
		aiConfig := ai.NewConfig(
			ai.WithEmbeddingHost(c.String("host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)
		if err := aiConfig.Validate(); err != nil {
			return fmt.Errorf("invalid AI configuration: %w", err)
		}
		embedder, err = openai.NewEmbedder(aiConfig)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
	}

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer, err := reindex.NewReindexer(repos.Chunks, repos.FAQs, embedder, reindexConfig, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	if !c.Bool("mock") {
		fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("host"))
		fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	}
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}

	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	repos, err := badger.NewRepositories(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repos.Close()

	entities, edges, err := repos.Graph.LoadGraph(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("Database holds no corpus yet.")
			return nil
		}
		return fmt.Errorf("failed to load graph: %w", err)
	}

	chunks, err := repos.Chunks.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	faqs, err := repos.FAQs.ListFAQs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load faqs: %w", err)
	}

	fmt.Printf("Entities:    %d\n", len(entities))
	fmt.Printf("Edges:       %d\n", len(edges))
	fmt.Printf("Chunks:      %d\n", len(chunks))
	fmt.Printf("FAQ entries: %d\n", len(faqs))

	report, err := repos.Reports.LoadReport(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load report: %w", err)
	}

	fmt.Println()
	fmt.Println("Last build:")
	printReport(os.Stdout, report)
	return nil
}

func printReport(w io.Writer, report *core.NormalizationReport) {
	fmt.Fprintf(w, "Build %s completed in %v\n", report.RunID, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  entities:        %d\n", report.Entities)
	fmt.Fprintf(w, "  edges:           %d\n", report.Edges)
	fmt.Fprintf(w, "  merged mentions: %d (%d fuzzy)\n", report.MergedMentions, report.FuzzyMerges)
	fmt.Fprintf(w, "  dropped:         %d edges, %d self loops\n", report.DroppedEdges, report.DroppedSelfLoops)
	fmt.Fprintf(w, "  malformed:       %d mentions, %d triples, %d chunks, %d faqs\n",
		report.MalformedMentions, report.MalformedTriples, report.MalformedChunks, report.MalformedFAQs)
	for _, conflict := range report.Conflicts {
		fmt.Fprintf(w, "  conflict: %q (%s) vs %q (%s) at %.2f\n",
			conflict.LeftAlias, conflict.LeftType, conflict.RightAlias, conflict.RightType, conflict.Similarity)
	}
}

// evidenceText picks a one-line preview for an evidence item.
func evidenceText(item *core.Evidence) string {
	switch item.Kind {
	case core.EvidenceDocumentSnippet:
		return item.Chunk.Text
	case core.EvidenceFaqHit:
		return item.FAQ.Question
	default:
		return item.Provenance
	}
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
