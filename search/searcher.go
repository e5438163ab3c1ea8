package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/graph"
)

const (
	// DefaultChunkTopK is the number of document chunks requested per query.
	DefaultChunkTopK = 6

	// DefaultTimeout bounds evidence collection for one query.
	DefaultTimeout = 5 * time.Second
)

// Searcher answers queries over a retrieval snapshot by fanning out to the
// graph, chunk and FAQ sources and fusing what comes back.
type Searcher struct {
	source   SnapshotSource
	embedder ai.Embedder

	matcher    *Matcher
	traverser  *graph.Traverser
	faqMatcher *FAQMatcher
	fuser      *Fuser
	builder    *ContextBuilder

	chunkTopK int
	timeout   time.Duration
	logger    *slog.Logger
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

// WithTimeout bounds evidence collection per query. On expiry the query is
// answered from whatever evidence was collected, marked partial.
// Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Searcher) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}
		s.timeout = timeout
		return nil
	}
}

// WithChunkTopK sets how many document chunks are requested per query.
// Default is DefaultChunkTopK.
func WithChunkTopK(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return ErrInvalidLimit
		}
		s.chunkTopK = k
		return nil
	}
}

// WithMatcher replaces the default entity matcher.
func WithMatcher(matcher *Matcher) Option {
	return func(s *Searcher) error {
		if matcher == nil {
			return ErrMatcherRequired
		}
		s.matcher = matcher
		return nil
	}
}

// WithTraverser replaces the default graph traverser.
func WithTraverser(traverser *graph.Traverser) Option {
	return func(s *Searcher) error {
		if traverser == nil {
			return ErrTraverserRequired
		}
		s.traverser = traverser
		return nil
	}
}

// WithFAQMatcher replaces the default FAQ matcher.
func WithFAQMatcher(faqMatcher *FAQMatcher) Option {
	return func(s *Searcher) error {
		if faqMatcher == nil {
			return ErrFAQMatcherRequired
		}
		s.faqMatcher = faqMatcher
		return nil
	}
}

// WithFuser replaces the default evidence fuser.
func WithFuser(fuser *Fuser) Option {
	return func(s *Searcher) error {
		if fuser == nil {
			return ErrFuserRequired
		}
		s.fuser = fuser
		return nil
	}
}

// WithContextBuilder replaces the default context builder.
func WithContextBuilder(builder *ContextBuilder) Option {
	return func(s *Searcher) error {
		if builder == nil {
			return ErrContextBuilderRequired
		}
		s.builder = builder
		return nil
	}
}

// NewSearcher creates a searcher bound to a snapshot source.
func NewSearcher(source SnapshotSource, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if source == nil {
		return nil, ErrSnapshotSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	matcher, err := NewMatcher()
	if err != nil {
		return nil, err
	}
	traverser, err := graph.NewTraverser()
	if err != nil {
		return nil, err
	}
	faqMatcher, err := NewFAQMatcher()
	if err != nil {
		return nil, err
	}
	fuser, err := NewFuser()
	if err != nil {
		return nil, err
	}
	builder, err := NewContextBuilder()
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		source:     source,
		embedder:   embedder,
		matcher:    matcher,
		traverser:  traverser,
		faqMatcher: faqMatcher,
		fuser:      fuser,
		builder:    builder,
		chunkTopK:  DefaultChunkTopK,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Answer serves one query against the current snapshot.
// Returns core.ErrIndexUnavailable when no snapshot has been installed.
func (s *Searcher) Answer(ctx context.Context, question string) (*core.QueryResult, error) {
	return s.AnswerWithMonitor(ctx, question, nil, nil)
}

// AnswerWithHistory serves one query with prior conversation turns carried
// into the context payload.
func (s *Searcher) AnswerWithHistory(ctx context.Context, question string, history []core.Turn) (*core.QueryResult, error) {
	return s.AnswerWithMonitor(ctx, question, history, nil)
}

// AnswerWithMonitor serves one query with monitoring. The monitor receives
// callbacks at each stage; a nil monitor is replaced by a no-op one.
func (s *Searcher) AnswerWithMonitor(ctx context.Context, question string, history []core.Turn, monitor QueryMonitor) (*core.QueryResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	started := time.Now()
	result := &core.QueryResult{
		Query:   question,
		TraceID: uuid.NewString(),
	}

	monitor.Start(question)

	// Resolve the snapshot once so the whole query sees one consistent view.
	snapshot := s.source()
	if snapshot == nil {
		return nil, core.ErrIndexUnavailable
	}

	if strings.TrimSpace(question) == "" {
		result.Outcome = core.OutcomeNoEvidence
		result.Elapsed = time.Since(started)
		monitor.Finish(result)
		return result, nil
	}

	collectCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// One embedding serves both the chunk and the FAQ branch. A failure
	// here degrades the query to graph-only retrieval instead of failing it.
	embedding, err := s.embedder.EmbedText(collectCtx, question)
	if err != nil {
		s.logger.Warn("query embedding failed, degrading to graph-only retrieval",
			"traceID", result.TraceID, "err", err)
		embedding = nil
	}

	var (
		matches   []Match
		paths     []*core.FactPath
		chunkHits []*core.Evidence
		faqResult *FAQResult
	)

	group, groupCtx := errgroup.WithContext(collectCtx)

	group.Go(func() error {
		matches = s.matcher.Match(snapshot.Graph, question)
		monitor.AfterEntityMatch(matches)
		if len(matches) == 0 {
			return nil
		}
		seeds := make([]core.ID, len(matches))
		for i, match := range matches {
			seeds[i] = match.EntityID
		}
		paths = s.traverser.Traverse(snapshot.Graph, seeds)
		monitor.AfterGraphTraversal(paths)
		return groupCtx.Err()
	})

	if embedding != nil {
		group.Go(func() error {
			hits, err := snapshot.ChunkIndex.Search(embedding, s.chunkTopK)
			if err != nil {
				return err
			}
			for _, hit := range hits {
				chunk, ok := snapshot.Chunk(hit.Id)
				if !ok {
					continue
				}
				chunkHits = append(chunkHits, core.NewDocumentSnippet(chunk, hit.Score))
			}
			monitor.AfterVectorSearch(chunkHits)
			return groupCtx.Err()
		})

		group.Go(func() error {
			matched, err := s.faqMatcher.Match(snapshot, embedding)
			if err != nil {
				return err
			}
			faqResult = matched
			monitor.AfterFAQMatch(matched)
			return groupCtx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		// The collection deadline expiring is not a failure: the query is
		// answered from whatever was gathered and flagged partial. A
		// canceled parent context and source errors still fail the query.
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, err
		}
		result.Partial = true
		s.logger.Warn("evidence collection timed out, answering from partial results",
			"traceID", result.TraceID, "timeout", s.timeout)
	}

	if len(matches) > 0 {
		result.EntityIDs = make([]core.ID, len(matches))
		for i, match := range matches {
			result.EntityIDs[i] = match.EntityID
		}
	}

	// A high-confidence FAQ hit answers the query outright with the stored
	// answer, bypassing fusion and synthesis.
	if faqResult != nil && faqResult.Direct != nil {
		direct := faqResult.Direct
		monitor.DirectAnswer(direct.FAQ, direct.RawScore)
		result.Outcome = core.OutcomeDirectAnswer
		result.Answer = direct.FAQ.Answer
		result.AnswerProvenance = direct.FAQ.Id
		result.Evidence = []*core.Evidence{direct}
		result.Elapsed = time.Since(started)
		monitor.Finish(result)
		return result, nil
	}

	combined := make([]*core.Evidence, 0, len(paths)+len(chunkHits)+DefaultFAQTopK)
	for _, path := range paths {
		combined = append(combined, core.NewGraphFact(path))
	}
	combined = append(combined, chunkHits...)
	if faqResult != nil {
		combined = append(combined, faqResult.Hits...)
	}

	fused := s.fuser.Fuse(combined)
	monitor.AfterFusion(fused)

	if len(fused) == 0 {
		result.Outcome = core.OutcomeNoEvidence
		result.Elapsed = time.Since(started)
		monitor.Finish(result)
		return result, nil
	}

	result.Outcome = core.OutcomeEvidence
	result.Evidence = fused
	result.Context = s.builder.Build(question, fused, snapshot, history)
	result.Elapsed = time.Since(started)
	monitor.Finish(result)
	return result, nil
}
