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


package retrievit

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/graph"
	"github.com/poiesic/retrievit/ingestion"
	"github.com/poiesic/retrievit/reindex"
	"github.com/poiesic/retrievit/search"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
	"github.com/poiesic/retrievit/vector"
)

// Engine ties storage, ingestion and search together over one Badger
// database. It owns the serving snapshot: Rebuild and LoadSnapshot
// install a fresh one with a single atomic swap, so searchers created
// from the engine always observe a complete, consistent corpus.
type Engine struct {
	repos    *badger.Repositories
	provider ai.AIProvider
	holder   *search.Holder
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	inMemory bool
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithInMemory keeps the whole database in memory. Nothing touches disk
// and the path argument is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithProvider sets the AI provider used for embeddings, extraction and
// synthesis. Default is the deterministic mock provider, which makes an
// engine usable without any AI service running.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the database at filePath and assembles an engine over
// it. No snapshot is installed yet; call Rebuild or LoadSnapshot first.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.provider == nil {
		options.provider = mock.NewMockProvider()
	}

	repos, err := badger.NewRepositories(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	return &Engine{
		repos:    repos,
		provider: options.provider,
		holder:   search.NewHolder(),
		logger:   options.logger,
	}, nil
}

// Rebuild runs the full offline build over input and installs the
// resulting snapshot. The corpus is persisted as a whole replacement,
// so a successful rebuild leaves storage and the serving snapshot in
// agreement. Returns the normalization report of the run.
func (e *Engine) Rebuild(ctx context.Context, input ingestion.Input, opts ...ingestion.Option) (*core.NormalizationReport, error) {
	pipeline, err := e.NewPipeline(opts...)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	result, err := pipeline.Build(ctx, input)
	if err != nil {
		return nil, err
	}

	snapshot, err := search.NewSnapshot(result.Graph, result.ChunkIndex, result.FAQIndex, result.Chunks, result.FAQs)
	if err != nil {
		return nil, err
	}

	e.holder.Swap(snapshot)
	return result.Report, nil
}

// LoadSnapshot reloads the persisted corpus, rebuilds both vector
// indexes and installs the result as the serving snapshot. Records
// without vectors stay in the snapshot but are left out of the indexes.
// When no corpus has ever been persisted the error wraps
// storage.ErrNotFound.
func (e *Engine) LoadSnapshot(ctx context.Context) error {
	entities, edges, err := e.repos.Graph.LoadGraph(ctx)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}

	chunks, err := e.repos.Chunks.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	faqs, err := e.repos.FAQs.ListFAQs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load faqs: %w", err)
	}

	g, err := graph.NewSnapshot(entities, edges)
	if err != nil {
		return fmt.Errorf("failed to assemble graph snapshot: %w", err)
	}

	chunkIndex, err := vector.NewIndex(indexVectors(chunks, func(c *core.DocumentChunk) (core.ID, []float32) {
		return c.Id, c.Vector
	}))
	if err != nil {
		return fmt.Errorf("failed to build chunk index: %w", err)
	}

	faqIndex, err := vector.NewIndex(indexVectors(faqs, func(f *core.FAQEntry) (core.ID, []float32) {
		return f.Id, f.Vector
	}))
	if err != nil {
		return fmt.Errorf("failed to build faq index: %w", err)
	}

	snapshot, err := search.NewSnapshot(g, chunkIndex, faqIndex, chunks, faqs)
	if err != nil {
		return err
	}

	e.holder.Swap(snapshot)
	e.logger.Info("snapshot loaded",
		"entities", g.EntityCount(),
		"edges", g.EdgeCount(),
		"chunks", len(chunks),
		"faqs", len(faqs))
	return nil
}

// Snapshot returns the currently serving snapshot, or nil when none has
// been installed yet.
func (e *Engine) Snapshot() *search.Snapshot {
	return e.holder.Current()
}

// NewSearcher creates a searcher served from the engine's snapshot
// holder. Searchers survive rebuilds; each query resolves the snapshot
// current at that moment.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(e.logger)}, opts...)
	return search.NewSearcher(e.holder.Source(), e.provider.Embedder(), opts...)
}

// NewPipeline creates an ingestion pipeline over the engine's
// repositories and provider.
func (e *Engine) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(e.logger)}, opts...)
	return ingestion.NewPipeline(e.repos.Graph, e.repos.Chunks, e.repos.FAQs, e.repos.Reports, e.provider, opts...)
}

// NewReindexer creates a reindexer that re-embeds the persisted corpus
// with the engine's provider. Call LoadSnapshot after a reindex run so
// queries see the new vectors.
func (e *Engine) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(e.repos.Chunks, e.repos.FAQs, e.provider.Embedder(), config, progress)
}

func (e *Engine) GraphRepository() storage.GraphRepository {
	return e.repos.Graph
}

func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.repos.Chunks
}

func (e *Engine) FAQRepository() storage.FAQRepository {
	return e.repos.FAQs
}

func (e *Engine) ReportRepository() storage.ReportRepository {
	return e.repos.Reports
}

func (e *Engine) Close() error {
	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.repos.Close(); err != nil {
		e.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// indexVectors collects the vectors behind records into the map form
// vector.NewIndex consumes, skipping records that carry no vector.
func indexVectors[T any](records []T, fields func(T) (core.ID, []float32)) map[core.ID][]float32 {
	vectors := make(map[core.ID][]float32, len(records))
	for _, record := range records {
		id, vec := fields(record)
		if len(vec) == 0 {
			continue
		}
		vectors[id] = vec
	}
	return vectors
}
