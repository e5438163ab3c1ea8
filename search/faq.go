package search

import (
	"github.com/poiesic/retrievit/core"
)

const (
	// DefaultDirectAnswerThreshold is the similarity above which the top
	// FAQ hit answers the query outright.
	DefaultDirectAnswerThreshold = 0.92

	// DefaultIncludeThreshold is the minimum similarity for an FAQ hit to
	// be kept as evidence.
	DefaultIncludeThreshold = 0.60

	// DefaultFAQTopK is the number of FAQ entries requested per query.
	DefaultFAQTopK = 3
)

// FAQMatcher scores the query embedding against the FAQ index.
type FAQMatcher struct {
	directThreshold  float64
	includeThreshold float64
	topK             int
}

// FAQOption configures an FAQMatcher.
type FAQOption func(*FAQMatcher) error

// WithDirectAnswerThreshold sets the short-circuit similarity threshold.
// Default is DefaultDirectAnswerThreshold.
func WithDirectAnswerThreshold(threshold float64) FAQOption {
	return func(f *FAQMatcher) error {
		if threshold <= 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		f.directThreshold = threshold
		return nil
	}
}

// WithIncludeThreshold sets the minimum similarity for an FAQ hit to be
// kept as evidence. Default is DefaultIncludeThreshold.
func WithIncludeThreshold(threshold float64) FAQOption {
	return func(f *FAQMatcher) error {
		if threshold <= 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		f.includeThreshold = threshold
		return nil
	}
}

// WithFAQTopK sets how many FAQ entries are scored per query.
// Default is DefaultFAQTopK.
func WithFAQTopK(k int) FAQOption {
	return func(f *FAQMatcher) error {
		if k < 1 {
			return ErrInvalidLimit
		}
		f.topK = k
		return nil
	}
}

// NewFAQMatcher creates an FAQ matcher with the default thresholds.
// The include threshold must not exceed the direct-answer threshold.
func NewFAQMatcher(opts ...FAQOption) (*FAQMatcher, error) {
	f := &FAQMatcher{
		directThreshold:  DefaultDirectAnswerThreshold,
		includeThreshold: DefaultIncludeThreshold,
		topK:             DefaultFAQTopK,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	if f.includeThreshold > f.directThreshold {
		return nil, ErrInvalidThreshold
	}

	return f, nil
}

// FAQResult carries the scored FAQ hits for one query.
type FAQResult struct {
	// Direct is the short-circuit candidate, set when the best hit clears
	// the direct-answer threshold. It also appears in Hits.
	Direct *core.Evidence

	// Hits are the entries at or above the include threshold, best first.
	Hits []*core.Evidence
}

// Match scores the query embedding against every FAQ entry in the snapshot.
// An empty FAQ index yields an empty result, not an error.
func (f *FAQMatcher) Match(snapshot *Snapshot, embedding []float32) (*FAQResult, error) {
	hits, err := snapshot.FAQIndex.Search(embedding, f.topK)
	if err != nil {
		return nil, err
	}

	result := &FAQResult{}
	for i, hit := range hits {
		if hit.Score < f.includeThreshold {
			break // hits are ordered, the rest score lower
		}
		faq, ok := snapshot.FAQ(hit.Id)
		if !ok {
			continue
		}
		evidence := core.NewFaqHit(faq, hit.Score)
		result.Hits = append(result.Hits, evidence)
		if i == 0 && hit.Score >= f.directThreshold {
			result.Direct = evidence
		}
	}
	return result, nil
}
