package storage

import (
	"context"

	"github.com/poiesic/retrievit/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// GraphRepository persists the normalized knowledge graph.
//
// The graph is always replaced as a whole: the offline build produces a
// complete entity and edge set, and a partially persisted graph must never
// be observable. Implementations write a completeness marker after all
// records, so a replace interrupted midway leaves the store reporting no
// graph rather than serving a truncated one.
type GraphRepository interface {
	Repository

	// ReplaceGraph replaces the persisted graph with the given entities and
	// edges. Any previously persisted graph is removed first.
	ReplaceGraph(ctx context.Context, entities []*core.Entity, edges []*core.Edge) error

	// LoadGraph loads the complete persisted graph, entities ordered by ID
	// and edges by key. Returns ErrNotFound when no complete graph has been
	// persisted.
	LoadGraph(ctx context.Context) ([]*core.Entity, []*core.Edge, error)

	// GetEntity retrieves a single entity by ID.
	// Returns ErrNotFound if the entity doesn't exist.
	GetEntity(ctx context.Context, id core.ID) (*core.Entity, error)

	// ResolveAlias resolves an alias to the owning entity ID. The alias must
	// already be in canonical form (the graph normalizer produces it).
	// Returns ErrNotFound if no entity owns the alias.
	ResolveAlias(ctx context.Context, alias string) (core.ID, error)
}

// ChunkRepository provides operations for managing document chunks.
type ChunkRepository interface {
	Repository

	// PutChunks inserts or overwrites chunks keyed by their IDs.
	// For chunks with Id=0, derives the content-based ID from document and text.
	// Returns the chunks with IDs populated.
	PutChunks(ctx context.Context, chunks ...*core.DocumentChunk) ([]*core.DocumentChunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.DocumentChunk, error)

	// ListChunks retrieves all persisted chunks, ordered by ID.
	ListChunks(ctx context.Context) ([]*core.DocumentChunk, error)

	// ReplaceChunks replaces the persisted chunk set with the given one.
	ReplaceChunks(ctx context.Context, chunks []*core.DocumentChunk) error
}

// FAQRepository provides operations for managing FAQ entries.
type FAQRepository interface {
	Repository

	// PutFAQs inserts or overwrites FAQ entries keyed by their IDs.
	// For entries with Id=0, derives the content-based ID from the question.
	// Returns the entries with IDs populated.
	PutFAQs(ctx context.Context, faqs ...*core.FAQEntry) ([]*core.FAQEntry, error)

	// GetFAQ retrieves a single FAQ entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetFAQ(ctx context.Context, id core.ID) (*core.FAQEntry, error)

	// ListFAQs retrieves all persisted FAQ entries, ordered by ID.
	ListFAQs(ctx context.Context) ([]*core.FAQEntry, error)

	// ReplaceFAQs replaces the persisted FAQ set with the given one.
	ReplaceFAQs(ctx context.Context, faqs []*core.FAQEntry) error
}

// ReportRepository persists normalization run reports.
type ReportRepository interface {
	Repository

	// SaveReport persists the report of a completed normalization run,
	// replacing the previous one.
	SaveReport(ctx context.Context, report *core.NormalizationReport) error

	// LoadReport retrieves the most recent normalization report.
	// Returns ErrNotFound when no run has been persisted.
	LoadReport(ctx context.Context) (*core.NormalizationReport, error)
}
