package search

import (
	"fmt"
	"sync/atomic"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/graph"
	"github.com/poiesic/retrievit/vector"
)

// Snapshot bundles the immutable read views one query is served from: the
// knowledge graph, the two vector indexes, and the records behind the index
// entries. Rebuilds produce a fresh snapshot; an installed one is never
// mutated, so it is safe for any number of concurrent readers.
type Snapshot struct {
	Graph      *graph.Snapshot
	ChunkIndex *vector.Index
	FAQIndex   *vector.Index

	chunks map[core.ID]*core.DocumentChunk
	faqs   map[core.ID]*core.FAQEntry
}

// NewSnapshot assembles a serving snapshot. Nil parts are replaced by empty
// ones. When both vector indexes are non-empty they must agree on dimension.
func NewSnapshot(g *graph.Snapshot, chunkIndex, faqIndex *vector.Index, chunks []*core.DocumentChunk, faqs []*core.FAQEntry) (*Snapshot, error) {
	var err error
	if g == nil {
		g, err = graph.NewSnapshot(nil, nil)
		if err != nil {
			return nil, err
		}
	}
	if chunkIndex == nil {
		chunkIndex, err = vector.NewIndex(nil)
		if err != nil {
			return nil, err
		}
	}
	if faqIndex == nil {
		faqIndex, err = vector.NewIndex(nil)
		if err != nil {
			return nil, err
		}
	}

	if chunkIndex.Len() > 0 && faqIndex.Len() > 0 && chunkIndex.Dimension() != faqIndex.Dimension() {
		return nil, fmt.Errorf("%w: chunk index has dimension %d, faq index %d",
			core.ErrDimensionMismatch, chunkIndex.Dimension(), faqIndex.Dimension())
	}

	snapshot := &Snapshot{
		Graph:      g,
		ChunkIndex: chunkIndex,
		FAQIndex:   faqIndex,
		chunks:     make(map[core.ID]*core.DocumentChunk, len(chunks)),
		faqs:       make(map[core.ID]*core.FAQEntry, len(faqs)),
	}
	for _, chunk := range chunks {
		snapshot.chunks[chunk.Id] = chunk
	}
	for _, faq := range faqs {
		snapshot.faqs[faq.Id] = faq
	}
	return snapshot, nil
}

// Chunk returns the document chunk behind an index entry.
func (s *Snapshot) Chunk(id core.ID) (*core.DocumentChunk, bool) {
	chunk, ok := s.chunks[id]
	return chunk, ok
}

// FAQ returns the FAQ entry behind an index entry.
func (s *Snapshot) FAQ(id core.ID) (*core.FAQEntry, bool) {
	faq, ok := s.faqs[id]
	return faq, ok
}

// SnapshotSource supplies the snapshot a query is served from. It returns
// nil when no snapshot has been installed yet.
type SnapshotSource func() *Snapshot

// Holder publishes the current serving snapshot. A swap is a single atomic
// pointer store: queries in flight keep the snapshot they resolved while
// new queries observe the replacement.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates a holder with no snapshot installed.
func NewHolder() *Holder {
	return &Holder{}
}

// Swap installs snapshot as the current one.
func (h *Holder) Swap(snapshot *Snapshot) {
	h.current.Store(snapshot)
}

// Current returns the installed snapshot, or nil when none is installed.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Source returns a SnapshotSource backed by the holder.
func (h *Holder) Source() SnapshotSource {
	return h.Current
}
