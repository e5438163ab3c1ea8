package graph

import (
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntity(name, entityType string) *core.Entity {
	entity := &core.Entity{
		Name:     name,
		Type:     entityType,
		Aliases:  []string{CanonicalAlias(name)},
		Mentions: 1,
	}
	entity.Id = core.IDFromContent(entity.Tuple())
	return entity
}

func testEdge(subject, object *core.Entity, predicate string, confidence float64) *core.Edge {
	return &core.Edge{
		Subject:    subject.Id,
		Predicate:  predicate,
		Object:     object.Id,
		Confidence: confidence,
	}
}

func TestNewSnapshot_Validation(t *testing.T) {
	insat := testEntity("INSAT-3D", "satellite")
	orbit := testEntity("Geostationary Orbit", "orbit")

	t.Run("duplicate entity id", func(t *testing.T) {
		_, err := NewSnapshot([]*core.Entity{insat, insat}, nil)
		assert.ErrorIs(t, err, ErrDuplicateEntity)
	})

	t.Run("alias collision", func(t *testing.T) {
		other := testEntity("INSAT-3DR", "satellite")
		other.Aliases = []string{"insat-3d"}
		_, err := NewSnapshot([]*core.Entity{insat, other}, nil)
		assert.ErrorIs(t, err, ErrAliasCollision)
	})

	t.Run("dangling edge subject", func(t *testing.T) {
		ghost := testEntity("Ghost", "concept")
		_, err := NewSnapshot([]*core.Entity{insat}, []*core.Edge{testEdge(ghost, insat, "haunts", 0.5)})
		assert.ErrorIs(t, err, ErrDanglingEdge)
	})

	t.Run("dangling edge object", func(t *testing.T) {
		ghost := testEntity("Ghost", "concept")
		_, err := NewSnapshot([]*core.Entity{insat}, []*core.Edge{testEdge(insat, ghost, "sees", 0.5)})
		assert.ErrorIs(t, err, ErrDanglingEdge)
	})

	t.Run("valid", func(t *testing.T) {
		snapshot, err := NewSnapshot([]*core.Entity{insat, orbit}, []*core.Edge{testEdge(insat, orbit, "hasOrbit", 0.95)})
		require.NoError(t, err)
		assert.Equal(t, 2, snapshot.EntityCount())
		assert.Equal(t, 1, snapshot.EdgeCount())
	})
}

func TestSnapshot_AdjacencyOrdering(t *testing.T) {
	insat := testEntity("INSAT-3D", "satellite")
	imager := testEntity("Imager", "instrument")
	sounder := testEntity("Sounder", "instrument")
	orbit := testEntity("Geostationary Orbit", "orbit")

	edges := []*core.Edge{
		testEdge(insat, imager, "carries", 0.7),
		testEdge(insat, orbit, "hasOrbit", 0.95),
		testEdge(insat, sounder, "carries", 0.7),
	}

	snapshot, err := NewSnapshot([]*core.Entity{insat, imager, sounder, orbit}, edges)
	require.NoError(t, err)

	outgoing := snapshot.Outgoing(insat.Id)
	require.Len(t, outgoing, 3)

	// Highest confidence first, equal confidence ordered by edge key.
	assert.Equal(t, "hasOrbit", outgoing[0].Predicate)
	assert.Equal(t, 0.7, outgoing[1].Confidence)
	assert.Equal(t, 0.7, outgoing[2].Confidence)
	assert.Less(t, outgoing[1].Key(), outgoing[2].Key())
}

func TestSnapshot_Accessors(t *testing.T) {
	insat := testEntity("INSAT-3D", "satellite")
	oceansat := testEntity("Oceansat-2", "satellite")
	isro := testEntity("ISRO", "agency")

	edges := []*core.Edge{
		testEdge(insat, isro, "operatedBy", 0.9),
		testEdge(oceansat, isro, "operatedBy", 0.85),
	}

	snapshot, err := NewSnapshot([]*core.Entity{insat, oceansat, isro}, edges)
	require.NoError(t, err)

	t.Run("entity lookup", func(t *testing.T) {
		entity, ok := snapshot.Entity(insat.Id)
		require.True(t, ok)
		assert.Equal(t, "INSAT-3D", entity.Name)

		_, ok = snapshot.Entity(core.ID(12345))
		assert.False(t, ok)
	})

	t.Run("alias resolution", func(t *testing.T) {
		id, ok := snapshot.ResolveAlias("isro")
		require.True(t, ok)
		assert.Equal(t, isro.Id, id)

		_, ok = snapshot.ResolveAlias("unknown")
		assert.False(t, ok)
	})

	t.Run("incoming edges", func(t *testing.T) {
		incoming := snapshot.Incoming(isro.Id)
		require.Len(t, incoming, 2)
		assert.Equal(t, insat.Id, incoming[0].Subject, "higher confidence first")
	})

	t.Run("entities by type", func(t *testing.T) {
		satellites := snapshot.EntitiesByType("satellite")
		require.Len(t, satellites, 2)
		assert.Less(t, satellites[0], satellites[1], "ascending id order")

		assert.Len(t, snapshot.EntitiesByType("agency"), 1)
		assert.Empty(t, snapshot.EntitiesByType("instrument"))
	})

	t.Run("sorted alias list", func(t *testing.T) {
		aliases := snapshot.Aliases()
		require.Len(t, aliases, 3)
		assert.Equal(t, []string{"insat-3d", "isro", "oceansat-2"}, aliases)
	})

	t.Run("enumeration", func(t *testing.T) {
		entities := snapshot.Entities()
		require.Len(t, entities, 3)
		for i := 1; i < len(entities); i++ {
			assert.Less(t, entities[i-1].Id, entities[i].Id)
		}

		allEdges := snapshot.Edges()
		require.Len(t, allEdges, 2)
		assert.Less(t, allEdges[0].Key(), allEdges[1].Key())
	})

	t.Run("stats", func(t *testing.T) {
		stats := snapshot.Stats()
		assert.Equal(t, 3, stats.Entities)
		assert.Equal(t, 2, stats.Edges)
		assert.Equal(t, 3, stats.Aliases)
	})
}
