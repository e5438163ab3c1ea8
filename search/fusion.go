package search

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/poiesic/retrievit/core"
)

// Default fusion weights. They must sum to 1 so fused scores stay in [0, 1].
const (
	DefaultGraphWeight  = 0.40
	DefaultVectorWeight = 0.35
	DefaultFAQWeight    = 0.25
)

const (
	// DefaultMaxEvidence caps the fused evidence list.
	DefaultMaxEvidence = 10

	// weightTolerance absorbs floating-point drift in the sum-to-1 check.
	weightTolerance = 1e-9
)

// Fuser merges evidence from every retrieval source into a single ranked
// list. Each raw score is first normalized into [0, 1] by a fixed monotone
// map for its source, then scaled by the source weight. Monotone maps never
// reorder evidence within a source, so fusion only arbitrates between
// sources.
type Fuser struct {
	weights     map[core.EvidenceKind]float64
	normalizers map[core.EvidenceKind]func(float64) float64
	priority    map[core.EvidenceKind]int
	maxEvidence int
}

// FuserOption configures a Fuser.
type FuserOption func(*Fuser) error

// WithWeights replaces the per-source fusion weights. The three weights
// must be non-negative and sum to 1.
func WithWeights(graphWeight, vectorWeight, faqWeight float64) FuserOption {
	return func(f *Fuser) error {
		if graphWeight < 0 || vectorWeight < 0 || faqWeight < 0 {
			return ErrInvalidWeights
		}
		if math.Abs(graphWeight+vectorWeight+faqWeight-1) > weightTolerance {
			return ErrInvalidWeights
		}
		f.weights = map[core.EvidenceKind]float64{
			core.EvidenceGraphFact:       graphWeight,
			core.EvidenceDocumentSnippet: vectorWeight,
			core.EvidenceFaqHit:          faqWeight,
		}
		return nil
	}
}

// WithPriority replaces the tie-break order between sources. Kinds listed
// first win ties; each evidence kind must appear exactly once.
func WithPriority(kinds ...core.EvidenceKind) FuserOption {
	return func(f *Fuser) error {
		if len(kinds) != len(f.priority) {
			return ErrInvalidPriority
		}
		priority := make(map[core.EvidenceKind]int, len(kinds))
		for rank, kind := range kinds {
			if _, ok := f.priority[kind]; !ok {
				return ErrInvalidPriority
			}
			if _, dup := priority[kind]; dup {
				return ErrInvalidPriority
			}
			priority[kind] = rank
		}
		f.priority = priority
		return nil
	}
}

// WithMaxEvidence caps the fused evidence list.
// Default is DefaultMaxEvidence.
func WithMaxEvidence(limit int) FuserOption {
	return func(f *Fuser) error {
		if limit < 1 {
			return ErrInvalidLimit
		}
		f.maxEvidence = limit
		return nil
	}
}

// NewFuser creates a fuser with the default weights, priority and cap.
func NewFuser(opts ...FuserOption) (*Fuser, error) {
	f := &Fuser{
		weights: map[core.EvidenceKind]float64{
			core.EvidenceGraphFact:       DefaultGraphWeight,
			core.EvidenceDocumentSnippet: DefaultVectorWeight,
			core.EvidenceFaqHit:          DefaultFAQWeight,
		},
		normalizers: map[core.EvidenceKind]func(float64) float64{
			// Path scores are already products of confidences in [0, 1].
			core.EvidenceGraphFact: func(score float64) float64 { return score },
			// Cosine similarity ranges over [-1, 1]; negative similarity
			// carries no supporting signal.
			core.EvidenceDocumentSnippet: clampNonNegative,
			core.EvidenceFaqHit:          clampNonNegative,
		},
		priority: map[core.EvidenceKind]int{
			core.EvidenceGraphFact:       0,
			core.EvidenceFaqHit:          1,
			core.EvidenceDocumentSnippet: 2,
		},
		maxEvidence: DefaultMaxEvidence,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func clampNonNegative(score float64) float64 {
	if score < 0 {
		return 0
	}
	return score
}

// Fuse normalizes, weighs, deduplicates, ranks and truncates the combined
// evidence list. An empty input yields an empty output, never an error.
func (f *Fuser) Fuse(evidence []*core.Evidence) []*core.Evidence {
	deduped := make(map[string]*core.Evidence, len(evidence))
	order := make([]string, 0, len(evidence))

	for _, item := range evidence {
		if item == nil {
			continue
		}
		item.FusionScore = f.weights[item.Kind] * f.normalizers[item.Kind](item.RawScore)

		key := identityKey(item)
		held, ok := deduped[key]
		if !ok {
			deduped[key] = item
			order = append(order, key)
			continue
		}
		if item.FusionScore > held.FusionScore {
			deduped[key] = item
		}
	}

	fused := make([]*core.Evidence, 0, len(order))
	for _, key := range order {
		fused = append(fused, deduped[key])
	}

	slices.SortStableFunc(fused, func(a, b *core.Evidence) int {
		if a.FusionScore != b.FusionScore {
			if a.FusionScore > b.FusionScore {
				return -1
			}
			return 1
		}
		if d := f.priority[a.Kind] - f.priority[b.Kind]; d != 0 {
			return d
		}
		return strings.Compare(a.Provenance, b.Provenance)
	})

	if len(fused) > f.maxEvidence {
		fused = fused[:f.maxEvidence]
	}
	return fused
}

// identityKey is the deduplication identity of a piece of evidence. Graph
// facts between the same two endpoints collapse regardless of direction,
// document snippets collapse per source document, FAQ hits per entry.
func identityKey(evidence *core.Evidence) string {
	switch evidence.Kind {
	case core.EvidenceGraphFact:
		start, end := evidence.Path.Start(), evidence.Path.End()
		if end < start {
			start, end = end, start
		}
		return fmt.Sprintf("g:%016x|%016x", uint64(start), uint64(end))
	case core.EvidenceDocumentSnippet:
		return "v:" + evidence.Chunk.Document
	case core.EvidenceFaqHit:
		return "f:" + evidence.Provenance
	default:
		return evidence.Provenance
	}
}
