package search

import (
	"slices"
	"strings"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/graph"
)

const (
	// DefaultMatchThreshold is the minimum similarity for a fuzzy alias match.
	DefaultMatchThreshold = 0.75

	// DefaultMaxSpanTokens bounds the length of a candidate span in tokens.
	DefaultMaxSpanTokens = 4

	// DefaultMaxMatches bounds how many entities one query can seed.
	DefaultMaxMatches = 3
)

// Matcher finds the graph entities a query mentions. Candidate spans of up
// to a few tokens are checked against the alias table, exact first, then
// fuzzy. Overlapping candidates are resolved in favor of exact and stronger
// matches.
type Matcher struct {
	threshold  float64
	maxSpan    int
	maxMatches int
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher) error

// WithMatchThreshold sets the minimum similarity for fuzzy alias matches.
// Default is DefaultMatchThreshold.
func WithMatchThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) error {
		if threshold <= 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		m.threshold = threshold
		return nil
	}
}

// WithMaxSpanTokens sets the longest candidate span, in tokens.
// Default is DefaultMaxSpanTokens.
func WithMaxSpanTokens(tokens int) MatcherOption {
	return func(m *Matcher) error {
		if tokens < 1 {
			return ErrInvalidLimit
		}
		m.maxSpan = tokens
		return nil
	}
}

// WithMaxMatches caps the number of matched entities per query.
// Default is DefaultMaxMatches.
func WithMaxMatches(limit int) MatcherOption {
	return func(m *Matcher) error {
		if limit < 1 {
			return ErrInvalidLimit
		}
		m.maxMatches = limit
		return nil
	}
}

// NewMatcher creates a matcher with the default thresholds.
func NewMatcher(opts ...MatcherOption) (*Matcher, error) {
	m := &Matcher{
		threshold:  DefaultMatchThreshold,
		maxSpan:    DefaultMaxSpanTokens,
		maxMatches: DefaultMaxMatches,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Match is one query span resolved to a graph entity.
type Match struct {
	EntityID   core.ID
	Alias      string // The alias that matched
	Span       string // The query text that matched it
	Exact      bool
	Similarity float64

	// Token range in the query, [start, end)
	start int
	end   int
}

// Match resolves query spans against the snapshot's alias table. Exact
// alias hits beat fuzzy ones, stronger similarities beat weaker, and longer
// spans beat shorter; no two returned matches overlap in the query or name
// the same entity.
func (m *Matcher) Match(snapshot *graph.Snapshot, query string) []Match {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	aliases := snapshot.Aliases()
	var candidates []Match

	for start := range tokens {
		longest := min(m.maxSpan, len(tokens)-start)
		for length := 1; length <= longest; length++ {
			end := start + length
			span := tokens[start:end]
			if allStopWords(span) {
				continue
			}
			text := strings.Join(span, " ")

			if id, ok := snapshot.ResolveAlias(text); ok {
				candidates = append(candidates, Match{
					EntityID:   id,
					Alias:      text,
					Span:       text,
					Exact:      true,
					Similarity: 1,
					start:      start,
					end:        end,
				})
				continue
			}

			if match, ok := m.fuzzyMatch(snapshot, aliases, text); ok {
				match.start, match.end = start, end
				candidates = append(candidates, match)
			}
		}
	}

	return m.selectMatches(tokens, candidates)
}

// fuzzyMatch finds the best-scoring alias within the similarity threshold.
// Ties go to the lexicographically smaller alias so results are stable.
func (m *Matcher) fuzzyMatch(snapshot *graph.Snapshot, aliases []string, span string) (Match, bool) {
	var (
		bestAlias string
		bestSim   float64
	)
	for _, alias := range aliases {
		if !graph.WithinWindow(span, alias, m.threshold) {
			continue
		}
		sim := graph.Similarity(span, alias)
		if sim < m.threshold {
			continue
		}
		if sim > bestSim || (sim == bestSim && alias < bestAlias) {
			bestAlias, bestSim = alias, sim
		}
	}
	if bestAlias == "" {
		return Match{}, false
	}

	id, ok := snapshot.ResolveAlias(bestAlias)
	if !ok {
		return Match{}, false
	}
	return Match{
		EntityID:   id,
		Alias:      bestAlias,
		Span:       span,
		Similarity: bestSim,
	}, true
}

// selectMatches ranks candidates and greedily picks a non-overlapping
// subset naming distinct entities.
func (m *Matcher) selectMatches(tokens []string, candidates []Match) []Match {
	if len(candidates) == 0 {
		return nil
	}

	slices.SortFunc(candidates, func(a, b Match) int {
		if a.Exact != b.Exact {
			if a.Exact {
				return -1
			}
			return 1
		}
		if a.Similarity != b.Similarity {
			if a.Similarity > b.Similarity {
				return -1
			}
			return 1
		}
		if d := (b.end - b.start) - (a.end - a.start); d != 0 {
			return d
		}
		if d := a.start - b.start; d != 0 {
			return d
		}
		return strings.Compare(a.Alias, b.Alias)
	})

	used := make([]bool, len(tokens))
	seen := make(map[core.ID]struct{}, m.maxMatches)
	selected := make([]Match, 0, m.maxMatches)

	for _, candidate := range candidates {
		if len(selected) == m.maxMatches {
			break
		}
		if _, dup := seen[candidate.EntityID]; dup {
			continue
		}
		if overlaps(used, candidate.start, candidate.end) {
			continue
		}
		for i := candidate.start; i < candidate.end; i++ {
			used[i] = true
		}
		seen[candidate.EntityID] = struct{}{}
		selected = append(selected, candidate)
	}

	return selected
}

func overlaps(used []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if used[i] {
			return true
		}
	}
	return false
}
