package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/graph"
)

func matcherSnapshot(t *testing.T) *graph.Snapshot {
	t.Helper()

	entities := []*core.Entity{
		{
			Id:      core.IDFromContent("(satellite,INSAT-3D)"),
			Name:    "INSAT-3D",
			Type:    "satellite",
			Aliases: []string{"insat 3d", "insat-3d"},
		},
		{
			Id:      core.IDFromContent("(satellite,Oceansat-2)"),
			Name:    "Oceansat-2",
			Type:    "satellite",
			Aliases: []string{"ocean satellite", "oceansat-2"},
		},
		{
			Id:      core.IDFromContent("(domain,Ocean)"),
			Name:    "Ocean",
			Type:    "domain",
			Aliases: []string{"ocean"},
		},
		{
			Id:      core.IDFromContent("(orbit,Geostationary Orbit)"),
			Name:    "Geostationary Orbit",
			Type:    "orbit",
			Aliases: []string{"geostationary", "geostationary orbit"},
		},
	}

	snapshot, err := graph.NewSnapshot(entities, nil)
	require.NoError(t, err)
	return snapshot
}

func TestNewMatcher(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		matcher, err := NewMatcher()
		require.NoError(t, err)
		assert.NotNil(t, matcher)
	})

	t.Run("zero threshold", func(t *testing.T) {
		_, err := NewMatcher(WithMatchThreshold(0))
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})

	t.Run("threshold above one", func(t *testing.T) {
		_, err := NewMatcher(WithMatchThreshold(1.5))
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})

	t.Run("zero span", func(t *testing.T) {
		_, err := NewMatcher(WithMaxSpanTokens(0))
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("zero matches", func(t *testing.T) {
		_, err := NewMatcher(WithMaxMatches(0))
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestMatcherExactMatch(t *testing.T) {
	snapshot := matcherSnapshot(t)
	matcher, err := NewMatcher()
	require.NoError(t, err)

	matches := matcher.Match(snapshot, "What orbit does INSAT-3D use?")
	require.Len(t, matches, 1)

	insatID, ok := snapshot.ResolveAlias("insat-3d")
	require.True(t, ok)
	assert.Equal(t, insatID, matches[0].EntityID)
	assert.True(t, matches[0].Exact)
	assert.Equal(t, "insat-3d", matches[0].Alias)
	assert.Equal(t, 1.0, matches[0].Similarity)
}

func TestMatcherFuzzyMatch(t *testing.T) {
	snapshot := matcherSnapshot(t)
	matcher, err := NewMatcher()
	require.NoError(t, err)

	// One letter off from "geostationary orbit".
	matches := matcher.Match(snapshot, "tell me about the geostationery orbit")
	require.Len(t, matches, 1)

	orbitID, ok := snapshot.ResolveAlias("geostationary orbit")
	require.True(t, ok)
	assert.Equal(t, orbitID, matches[0].EntityID)
	assert.False(t, matches[0].Exact)
	assert.Equal(t, "geostationary orbit", matches[0].Alias)
	assert.Equal(t, "geostationery orbit", matches[0].Span)
	assert.InDelta(t, 1.0-1.0/19.0, matches[0].Similarity, 1e-9)
}

func TestMatcherPrefersLongestSpan(t *testing.T) {
	snapshot := matcherSnapshot(t)
	matcher, err := NewMatcher()
	require.NoError(t, err)

	// "ocean satellite" and "ocean" both match exactly; the longer span
	// wins and the overlapped shorter one is dropped.
	matches := matcher.Match(snapshot, "status of the ocean satellite program")
	require.Len(t, matches, 1)

	oceansatID, ok := snapshot.ResolveAlias("ocean satellite")
	require.True(t, ok)
	assert.Equal(t, oceansatID, matches[0].EntityID)
	assert.Equal(t, "ocean satellite", matches[0].Span)
	assert.True(t, matches[0].Exact)
}

func TestMatcherDeduplicatesEntities(t *testing.T) {
	snapshot := matcherSnapshot(t)
	matcher, err := NewMatcher()
	require.NoError(t, err)

	// Both spans resolve to the same entity through different aliases.
	matches := matcher.Match(snapshot, "insat-3d insat 3d")
	require.Len(t, matches, 1)

	insatID, ok := snapshot.ResolveAlias("insat-3d")
	require.True(t, ok)
	assert.Equal(t, insatID, matches[0].EntityID)
}

func TestMatcherMaxMatches(t *testing.T) {
	snapshot := matcherSnapshot(t)
	matcher, err := NewMatcher(WithMaxMatches(1))
	require.NoError(t, err)

	matches := matcher.Match(snapshot, "insat-3d and the ocean")
	require.Len(t, matches, 1)

	insatID, ok := snapshot.ResolveAlias("insat-3d")
	require.True(t, ok)
	assert.Equal(t, insatID, matches[0].EntityID)
}

func TestMatcherNoMatch(t *testing.T) {
	snapshot := matcherSnapshot(t)
	matcher, err := NewMatcher()
	require.NoError(t, err)

	t.Run("unrelated query", func(t *testing.T) {
		assert.Empty(t, matcher.Match(snapshot, "completely unrelated subject"))
	})

	t.Run("stop words only", func(t *testing.T) {
		assert.Empty(t, matcher.Match(snapshot, "the of and in"))
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Empty(t, matcher.Match(snapshot, ""))
	})
}
