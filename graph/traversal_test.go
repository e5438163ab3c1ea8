package graph

import (
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTraverser(t *testing.T, opts ...TraversalOption) *Traverser {
	traverser, err := NewTraverser(opts...)
	require.NoError(t, err)
	return traverser
}

func mustSnapshot(t *testing.T, entities []*core.Entity, edges []*core.Edge) *Snapshot {
	snapshot, err := NewSnapshot(entities, edges)
	require.NoError(t, err)
	return snapshot
}

func TestNewTraverser_OptionValidation(t *testing.T) {
	t.Run("invalid depth", func(t *testing.T) {
		_, err := NewTraverser(WithMaxDepth(0))
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("invalid fan-out", func(t *testing.T) {
		_, err := NewTraverser(WithMaxFanOut(-1))
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("invalid decay", func(t *testing.T) {
		_, err := NewTraverser(WithDecay(0))
		assert.ErrorIs(t, err, ErrInvalidDecay)

		_, err = NewTraverser(WithDecay(1.2))
		assert.ErrorIs(t, err, ErrInvalidDecay)
	})

	t.Run("invalid path cap", func(t *testing.T) {
		_, err := NewTraverser(WithMaxPaths(0))
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestTraverser_Traverse_EveryExploredPathEmitted(t *testing.T) {
	insat := testEntity("INSAT-3D", "satellite")
	isro := testEntity("ISRO", "agency")
	india := testEntity("India", "location")

	snapshot := mustSnapshot(t,
		[]*core.Entity{insat, isro, india},
		[]*core.Edge{
			testEdge(insat, isro, "operatedBy", 0.9),
			testEdge(isro, india, "basedIn", 0.8),
		})

	traverser := newTestTraverser(t)
	paths := traverser.Traverse(snapshot, []core.ID{insat.Id})

	// One-hop and two-hop paths are both results.
	require.Len(t, paths, 2)
	assert.Len(t, paths[0].Edges, 1)
	assert.Len(t, paths[1].Edges, 2)
	assert.Equal(t, insat.Id, paths[0].Seed)
}

func TestTraverser_Traverse_ScoreFormula(t *testing.T) {
	a := testEntity("A", "concept")
	b := testEntity("B", "concept")
	c := testEntity("C", "concept")

	snapshot := mustSnapshot(t,
		[]*core.Entity{a, b, c},
		[]*core.Edge{
			testEdge(a, b, "rel", 0.8),
			testEdge(b, c, "rel", 0.5),
		})

	traverser := newTestTraverser(t, WithDecay(0.75))
	paths := traverser.Traverse(snapshot, []core.ID{a.Id})

	require.Len(t, paths, 2)
	// 1 hop: product only, no decay
	assert.InDelta(t, 0.8, paths[0].Score, 1e-9)
	// 2 hops: 0.8 * 0.5 * 0.75
	assert.InDelta(t, 0.3, paths[1].Score, 1e-9)
}

func TestTraverser_Traverse_DepthBound(t *testing.T) {
	a := testEntity("A", "concept")
	b := testEntity("B", "concept")
	c := testEntity("C", "concept")
	d := testEntity("D", "concept")

	snapshot := mustSnapshot(t,
		[]*core.Entity{a, b, c, d},
		[]*core.Edge{
			testEdge(a, b, "rel", 0.9),
			testEdge(b, c, "rel", 0.9),
			testEdge(c, d, "rel", 0.9),
		})

	traverser := newTestTraverser(t, WithMaxDepth(2))
	paths := traverser.Traverse(snapshot, []core.ID{a.Id})

	require.NotEmpty(t, paths)
	for _, path := range paths {
		assert.LessOrEqual(t, len(path.Edges), 2)
	}
	// D is three hops out and must not appear.
	for _, path := range paths {
		assert.NotEqual(t, d.Id, path.End())
	}
}

func TestTraverser_Traverse_ReverseEdgesFollowed(t *testing.T) {
	insat := testEntity("INSAT-3D", "satellite")
	orbit := testEntity("Geostationary Orbit", "orbit")

	snapshot := mustSnapshot(t,
		[]*core.Entity{insat, orbit},
		[]*core.Edge{testEdge(insat, orbit, "hasOrbit", 0.95)})

	traverser := newTestTraverser(t)
	paths := traverser.Traverse(snapshot, []core.ID{orbit.Id})

	require.Len(t, paths, 1)
	assert.Equal(t, orbit.Id, paths[0].Seed)
	assert.Equal(t, insat.Id, paths[0].End(), "edge followed object to subject")
}

func TestTraverser_Traverse_FanOutCapPrefersConfidence(t *testing.T) {
	hub := testEntity("Hub", "concept")
	strong := testEntity("Strong", "concept")
	medium := testEntity("Medium", "concept")
	weak := testEntity("Weak", "concept")

	snapshot := mustSnapshot(t,
		[]*core.Entity{hub, strong, medium, weak},
		[]*core.Edge{
			testEdge(hub, weak, "rel", 0.2),
			testEdge(hub, strong, "rel", 0.9),
			testEdge(hub, medium, "rel", 0.5),
		})

	traverser := newTestTraverser(t, WithMaxFanOut(2), WithMaxDepth(1))
	paths := traverser.Traverse(snapshot, []core.ID{hub.Id})

	require.Len(t, paths, 2)
	ends := []core.ID{paths[0].End(), paths[1].End()}
	assert.Contains(t, ends, strong.Id)
	assert.Contains(t, ends, medium.Id)
	assert.NotContains(t, ends, weak.Id)
}

func TestTraverser_Traverse_NodeVisitedOncePerSeed(t *testing.T) {
	// Diamond: A -> B -> D and A -> C -> D. D is claimed by the first
	// path that reaches it, so only one two-hop path survives.
	a := testEntity("A", "concept")
	b := testEntity("B", "concept")
	c := testEntity("C", "concept")
	d := testEntity("D", "concept")

	snapshot := mustSnapshot(t,
		[]*core.Entity{a, b, c, d},
		[]*core.Edge{
			testEdge(a, b, "rel", 0.9),
			testEdge(a, c, "rel", 0.8),
			testEdge(b, d, "rel", 0.9),
			testEdge(c, d, "rel", 0.9),
		})

	traverser := newTestTraverser(t)
	paths := traverser.Traverse(snapshot, []core.ID{a.Id})

	reachedD := 0
	for _, path := range paths {
		if path.End() == d.Id {
			reachedD++
			// The stronger A->B branch expands first.
			assert.Equal(t, []core.ID{a.Id, b.Id, d.Id}, path.Entities)
		}
	}
	assert.Equal(t, 1, reachedD)
}

func TestTraverser_Traverse_CrossSeedDeduplication(t *testing.T) {
	insat := testEntity("INSAT-3D", "satellite")
	isro := testEntity("ISRO", "agency")

	snapshot := mustSnapshot(t,
		[]*core.Entity{insat, isro},
		[]*core.Edge{testEdge(insat, isro, "operatedBy", 0.9)})

	traverser := newTestTraverser(t)
	paths := traverser.Traverse(snapshot, []core.ID{insat.Id, isro.Id})

	// Both seeds discover the same edge; it is one path in the result.
	require.Len(t, paths, 1)
	assert.Len(t, paths[0].Edges, 1)
}

func TestTraverser_Traverse_RankingAndTruncation(t *testing.T) {
	hub := testEntity("Hub", "concept")
	first := testEntity("First", "concept")
	second := testEntity("Second", "concept")
	third := testEntity("Third", "concept")

	snapshot := mustSnapshot(t,
		[]*core.Entity{hub, first, second, third},
		[]*core.Edge{
			testEdge(hub, first, "rel", 0.9),
			testEdge(hub, second, "rel", 0.7),
			testEdge(hub, third, "rel", 0.5),
		})

	t.Run("ranked by score descending", func(t *testing.T) {
		traverser := newTestTraverser(t, WithMaxDepth(1))
		paths := traverser.Traverse(snapshot, []core.ID{hub.Id})

		require.Len(t, paths, 3)
		for i := 1; i < len(paths); i++ {
			assert.GreaterOrEqual(t, paths[i-1].Score, paths[i].Score)
		}
	})

	t.Run("truncated to cap", func(t *testing.T) {
		traverser := newTestTraverser(t, WithMaxDepth(1), WithMaxPaths(2))
		paths := traverser.Traverse(snapshot, []core.ID{hub.Id})

		require.Len(t, paths, 2)
		assert.Equal(t, first.Id, paths[0].End())
		assert.Equal(t, second.Id, paths[1].End())
	})
}

func TestTraverser_Traverse_UnknownSeedIgnored(t *testing.T) {
	insat := testEntity("INSAT-3D", "satellite")
	snapshot := mustSnapshot(t, []*core.Entity{insat}, nil)

	traverser := newTestTraverser(t)
	paths := traverser.Traverse(snapshot, []core.ID{core.ID(99999)})
	assert.Empty(t, paths)
}

func TestTraverser_Traverse_NoSeeds(t *testing.T) {
	insat := testEntity("INSAT-3D", "satellite")
	snapshot := mustSnapshot(t, []*core.Entity{insat}, nil)

	traverser := newTestTraverser(t)
	assert.Empty(t, traverser.Traverse(snapshot, nil))
}
