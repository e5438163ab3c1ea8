package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/graph"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/vector"
)

const (
	// DefaultBatchSize is the number of texts sent to the embedder per request.
	DefaultBatchSize = 64

	// DefaultMaxAttempts is how many times a failed embedding batch is tried.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the backoff base between embedding attempts.
	DefaultRetryBaseDelay = time.Second
)

// Progress stages reported during the embedding phase.
const (
	StageChunks = "chunks"
	StageFAQs   = "faqs"
)

// Input is the raw material for one offline build: extraction output plus
// the curated document and FAQ corpus.
type Input struct {
	Mentions []core.RawMention
	Triples  []core.RawTriple
	Chunks   []*core.DocumentChunk
	FAQs     []*core.FAQEntry
}

// Result is the product of a completed build. The snapshot and indexes
// are ready to serve, and the same records have been persisted through
// the repositories.
type Result struct {
	Graph      *graph.Snapshot
	ChunkIndex *vector.Index
	FAQIndex   *vector.Index
	Chunks     []*core.DocumentChunk
	FAQs       []*core.FAQEntry
	Report     *core.NormalizationReport
}

// ProgressFunc receives progress updates during the embedding phase.
// stage is StageChunks or StageFAQs; done and total count records of that
// stage. Calls are serialized.
type ProgressFunc func(stage string, done, total int)

// Pipeline runs the offline build: validate input, normalize the
// knowledge graph, embed the corpus in parallel batches, build the vector
// indexes and persist everything as a whole replacement.
type Pipeline struct {
	graphRepository  storage.GraphRepository
	chunkRepository  storage.ChunkRepository
	faqRepository    storage.FAQRepository
	reportRepository storage.ReportRepository
	provider         ai.AIProvider
	pool             *ants.Pool
	batchSize        int
	maxAttempts      int
	retryBaseDelay   time.Duration
	normalizerOpts   []graph.Option
	progress         ProgressFunc
	logger           *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for the embedding phase.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
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

// WithBatchSize sets how many texts are sent to the embedder per request.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets the per-batch retry policy for embedding calls.
// Defaults are DefaultMaxAttempts attempts starting at DefaultRetryBaseDelay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ai.ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryBaseDelay = baseDelay
		return nil
	}
}

// WithNormalizerOptions forwards options to the graph normalizer used by
// the build.
func WithNormalizerOptions(opts ...graph.Option) Option {
	return func(p *Pipeline) error {
		p.normalizerOpts = append(p.normalizerOpts, opts...)
		return nil
	}
}

// WithProgress sets a callback invoked as embedding batches complete.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) error {
		p.progress = fn
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

// NewPipeline creates a new build pipeline over the four repositories and
// the AI provider.
func NewPipeline(
	graphRepository storage.GraphRepository,
	chunkRepository storage.ChunkRepository,
	faqRepository storage.FAQRepository,
	reportRepository storage.ReportRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if graphRepository == nil {
		return nil, ErrGraphRepositoryRequired
	}
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if faqRepository == nil {
		return nil, ErrFAQRepositoryRequired
	}
	if reportRepository == nil {
		return nil, ErrReportRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		graphRepository:  graphRepository,
		chunkRepository:  chunkRepository,
		faqRepository:    faqRepository,
		reportRepository: reportRepository,
		provider:         provider,
		pool:             pool,
		batchSize:        DefaultBatchSize,
		maxAttempts:      DefaultMaxAttempts,
		retryBaseDelay:   DefaultRetryBaseDelay,
		logger:           slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	return p, nil
}

// Build runs the full offline pass over the input. Malformed records are
// skipped and counted in the report, never aborting the run; embedding or
// persistence failures do abort it. Chunks and FAQ entries are always
// re-embedded, and records without an id get their content-derived one
// assigned.
func (p *Pipeline) Build(ctx context.Context, input Input) (*Result, error) {
	started := time.Now()

	normalizerOpts := append([]graph.Option{graph.WithLogger(p.logger)}, p.normalizerOpts...)
	normalizer, err := graph.NewNormalizer(normalizerOpts...)
	if err != nil {
		return nil, err
	}

	snapshot, report, err := normalizer.Normalize(ctx, input.Mentions, input.Triples)
	if err != nil {
		return nil, err
	}

	chunks, malformedChunks := p.prepareChunks(input.Chunks)
	faqs, malformedFAQs := p.prepareFAQs(input.FAQs)
	report.MalformedChunks = malformedChunks
	report.MalformedFAQs = malformedFAQs

	if err := p.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}
	if err := p.embedFAQs(ctx, faqs); err != nil {
		return nil, err
	}

	chunkIndex, err := buildIndex(chunks, func(c *core.DocumentChunk) (core.ID, []float32) { return c.Id, c.Vector })
	if err != nil {
		return nil, err
	}
	faqIndex, err := buildIndex(faqs, func(f *core.FAQEntry) (core.ID, []float32) { return f.Id, f.Vector })
	if err != nil {
		return nil, err
	}
	if chunkIndex.Len() > 0 && faqIndex.Len() > 0 && chunkIndex.Dimension() != faqIndex.Dimension() {
		return nil, fmt.Errorf("%w: chunk index has dimension %d, faq index %d",
			core.ErrDimensionMismatch, chunkIndex.Dimension(), faqIndex.Dimension())
	}

	result := &Result{
		Graph:      snapshot,
		ChunkIndex: chunkIndex,
		FAQIndex:   faqIndex,
		Chunks:     chunks,
		FAQs:       faqs,
		Report:     report,
	}

	if err := p.persist(ctx, result); err != nil {
		return nil, err
	}

	p.logger.Info("build complete",
		"run_id", report.RunID,
		"entities", report.Entities,
		"edges", report.Edges,
		"chunks", len(chunks),
		"faqs", len(faqs),
		"malformed_chunks", malformedChunks,
		"malformed_faqs", malformedFAQs,
		"duration", time.Since(started))

	return result, nil
}

// Release frees the worker pool. The pipeline must not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// prepareChunks validates chunks, assigns content-derived ids where
// missing and collapses duplicates. The kept set is ordered by id.
func (p *Pipeline) prepareChunks(input []*core.DocumentChunk) ([]*core.DocumentChunk, int) {
	kept := make([]*core.DocumentChunk, 0, len(input))
	seen := make(map[core.ID]struct{}, len(input))
	malformed := 0

	for _, chunk := range input {
		if err := core.ValidateChunk(chunk); err != nil {
			malformed++
			p.logger.Warn("skipping malformed chunk", "err", err)
			continue
		}
		if chunk.Id == 0 {
			chunk.Id = core.ChunkID(chunk.Document, chunk.Text)
		}
		if _, dup := seen[chunk.Id]; dup {
			p.logger.Debug("dropping duplicate chunk", "id", fmt.Sprintf("%016x", uint64(chunk.Id)))
			continue
		}
		seen[chunk.Id] = struct{}{}
		kept = append(kept, chunk)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Id < kept[j].Id })
	return kept, malformed
}

// prepareFAQs validates FAQ entries, assigns question-derived ids where
// missing and collapses duplicates. The kept set is ordered by id.
func (p *Pipeline) prepareFAQs(input []*core.FAQEntry) ([]*core.FAQEntry, int) {
	kept := make([]*core.FAQEntry, 0, len(input))
	seen := make(map[core.ID]struct{}, len(input))
	malformed := 0

	for _, faq := range input {
		if err := core.ValidateFAQ(faq); err != nil {
			malformed++
			p.logger.Warn("skipping malformed faq", "err", err)
			continue
		}
		if faq.Id == 0 {
			faq.Id = core.FAQID(faq.Question)
		}
		if _, dup := seen[faq.Id]; dup {
			p.logger.Debug("dropping duplicate faq", "id", fmt.Sprintf("%016x", uint64(faq.Id)))
			continue
		}
		seen[faq.Id] = struct{}{}
		kept = append(kept, faq)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Id < kept[j].Id })
	return kept, malformed
}

func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.DocumentChunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := p.embedStage(ctx, StageChunks, texts)
	if err != nil {
		return err
	}
	for i, chunk := range chunks {
		chunk.Vector = vectors[i]
	}
	return nil
}

// embedFAQs embeds the question text of each entry. Questions carry the
// retrieval signal; answers are payload.
func (p *Pipeline) embedFAQs(ctx context.Context, faqs []*core.FAQEntry) error {
	texts := make([]string, len(faqs))
	for i, faq := range faqs {
		texts[i] = faq.Question
	}
	vectors, err := p.embedStage(ctx, StageFAQs, texts)
	if err != nil {
		return err
	}
	for i, faq := range faqs {
		faq.Vector = vectors[i]
	}
	return nil
}

func (p *Pipeline) embedStage(ctx context.Context, stage string, texts []string) ([][]float32, error) {
	be := &batchEmbedder{
		embedder:    p.provider.Embedder(),
		pool:        p.pool,
		batchSize:   p.batchSize,
		maxAttempts: p.maxAttempts,
		baseDelay:   p.retryBaseDelay,
		logger:      p.logger,
	}

	var report func(done int)
	if p.progress != nil {
		total := len(texts)
		report = func(done int) { p.progress(stage, done, total) }
	}

	vectors, err := be.embedAll(ctx, texts, report)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", stage, err)
	}
	p.logger.Debug("corpus embedded", "stage", stage, "records", len(texts))
	return vectors, nil
}

// buildIndex assembles a vector index from records carrying (id, vector)
// pairs.
func buildIndex[T any](records []T, fields func(T) (core.ID, []float32)) (*vector.Index, error) {
	items := make(map[core.ID][]float32, len(records))
	for _, record := range records {
		id, vec := fields(record)
		items[id] = vec
	}
	return vector.NewIndex(items)
}

// persist replaces the stored graph, corpus and report with the build's
// output.
func (p *Pipeline) persist(ctx context.Context, result *Result) error {
	if err := p.graphRepository.ReplaceGraph(ctx, result.Graph.Entities(), result.Graph.Edges()); err != nil {
		return fmt.Errorf("failed to persist graph: %w", err)
	}
	if err := p.chunkRepository.ReplaceChunks(ctx, result.Chunks); err != nil {
		return fmt.Errorf("failed to persist chunks: %w", err)
	}
	if err := p.faqRepository.ReplaceFAQs(ctx, result.FAQs); err != nil {
		return fmt.Errorf("failed to persist faqs: %w", err)
	}
	if err := p.reportRepository.SaveReport(ctx, result.Report); err != nil {
		return fmt.Errorf("failed to persist report: %w", err)
	}
	return nil
}
