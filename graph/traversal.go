package graph

import (
	"math"
	"slices"
	"sort"

	"github.com/poiesic/retrievit/core"
)

const (
	// DefaultMaxDepth is the default traversal depth bound in hops.
	DefaultMaxDepth = 2

	// DefaultMaxFanOut is the default per-node expansion cap.
	DefaultMaxFanOut = 8

	// DefaultDecay is the default per-hop score decay factor.
	DefaultDecay = 0.75

	// DefaultMaxPaths is the default cap on returned paths.
	DefaultMaxPaths = 8
)

// Traverser explores a snapshot outward from seed entities, collecting
// scored fact paths. Edges are followed in both directions.
//
// A path is scored as the product of its edge confidences multiplied by
// decay^(hops-1), so longer chains rank below the short facts they extend
// unless their confidence carries them.
type Traverser struct {
	maxDepth  int
	maxFanOut int
	decay     float64
	maxPaths  int
}

// TraversalOption configures a Traverser.
type TraversalOption func(*Traverser) error

// WithMaxDepth sets the depth bound in hops.
// Default is DefaultMaxDepth.
func WithMaxDepth(depth int) TraversalOption {
	return func(t *Traverser) error {
		if depth < 1 {
			return ErrInvalidLimit
		}
		t.maxDepth = depth
		return nil
	}
}

// WithMaxFanOut sets the per-node expansion cap. Only the highest
// confidence edges of a node are followed.
// Default is DefaultMaxFanOut.
func WithMaxFanOut(fanOut int) TraversalOption {
	return func(t *Traverser) error {
		if fanOut < 1 {
			return ErrInvalidLimit
		}
		t.maxFanOut = fanOut
		return nil
	}
}

// WithDecay sets the per-hop score decay factor.
// Default is DefaultDecay.
func WithDecay(decay float64) TraversalOption {
	return func(t *Traverser) error {
		if decay <= 0 || decay > 1 {
			return ErrInvalidDecay
		}
		t.decay = decay
		return nil
	}
}

// WithMaxPaths sets the cap on returned paths.
// Default is DefaultMaxPaths.
func WithMaxPaths(limit int) TraversalOption {
	return func(t *Traverser) error {
		if limit < 1 {
			return ErrInvalidLimit
		}
		t.maxPaths = limit
		return nil
	}
}

// NewTraverser creates a new traverser.
func NewTraverser(opts ...TraversalOption) (*Traverser, error) {
	t := &Traverser{
		maxDepth:  DefaultMaxDepth,
		maxFanOut: DefaultMaxFanOut,
		decay:     DefaultDecay,
		maxPaths:  DefaultMaxPaths,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// step is one candidate expansion from a node.
type step struct {
	edge     *core.Edge
	neighbor core.ID
}

// Traverse runs a breadth-first exploration from every seed and returns
// the merged paths, deduplicated by path identity (best score wins),
// ordered by score descending with ties broken by key, and truncated to
// the configured cap.
//
// Every explored path is a result, not only the maximal ones: the one-hop
// prefix of a two-hop path is usually the stronger fact.
func (t *Traverser) Traverse(snapshot *Snapshot, seeds []core.ID) []*core.FactPath {
	byKey := make(map[string]*core.FactPath)
	for _, seed := range seeds {
		for _, path := range t.traverseSeed(snapshot, seed) {
			key := path.Key()
			existing, ok := byKey[key]
			if !ok || path.Score > existing.Score {
				byKey[key] = path
			}
		}
	}

	paths := make([]*core.FactPath, 0, len(byKey))
	for _, path := range byKey {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Score != paths[j].Score {
			return paths[i].Score > paths[j].Score
		}
		return paths[i].Key() < paths[j].Key()
	})
	if len(paths) > t.maxPaths {
		paths = paths[:t.maxPaths]
	}
	return paths
}

// traverseSeed explores outward from a single seed. Each node is visited
// at most once per seed, claimed by the first path that reaches it.
func (t *Traverser) traverseSeed(snapshot *Snapshot, seed core.ID) []*core.FactPath {
	if _, ok := snapshot.Entity(seed); !ok {
		return nil
	}

	type state struct {
		entities []core.ID
		edges    []*core.Edge
		product  float64
	}

	visited := map[core.ID]struct{}{seed: {}}
	frontier := []state{{entities: []core.ID{seed}, product: 1}}
	var paths []*core.FactPath

	for depth := 1; depth <= t.maxDepth && len(frontier) > 0; depth++ {
		var next []state
		for _, current := range frontier {
			tail := current.entities[len(current.entities)-1]
			for _, expansion := range t.expansions(snapshot, tail) {
				if _, seen := visited[expansion.neighbor]; seen {
					continue
				}
				visited[expansion.neighbor] = struct{}{}

				extended := state{
					entities: append(slices.Clone(current.entities), expansion.neighbor),
					edges:    append(slices.Clone(current.edges), expansion.edge),
					product:  current.product * expansion.edge.Confidence,
				}
				next = append(next, extended)

				hops := len(extended.edges)
				paths = append(paths, &core.FactPath{
					Seed:     seed,
					Entities: extended.entities,
					Edges:    extended.edges,
					Score:    extended.product * math.Pow(t.decay, float64(hops-1)),
				})
			}
		}
		frontier = next
	}

	return paths
}

// expansions returns the capped, ordered candidate steps from a node.
// Forward and reverse edges compete for the same fan-out budget, ranked
// by confidence descending with ties broken by edge key.
func (t *Traverser) expansions(snapshot *Snapshot, id core.ID) []step {
	outgoing := snapshot.Outgoing(id)
	incoming := snapshot.Incoming(id)

	steps := make([]step, 0, len(outgoing)+len(incoming))
	for _, edge := range outgoing {
		steps = append(steps, step{edge: edge, neighbor: edge.Object})
	}
	for _, edge := range incoming {
		steps = append(steps, step{edge: edge, neighbor: edge.Subject})
	}

	sort.Slice(steps, func(i, j int) bool {
		if steps[i].edge.Confidence != steps[j].edge.Confidence {
			return steps[i].edge.Confidence > steps[j].edge.Confidence
		}
		return steps[i].edge.Key() < steps[j].edge.Key()
	})
	if len(steps) > t.maxFanOut {
		steps = steps[:t.maxFanOut]
	}
	return steps
}
