package badger

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

func testEntity(name, entityType string, aliases ...string) *core.Entity {
	entity := &core.Entity{
		Name:     name,
		Type:     entityType,
		Aliases:  aliases,
		Sources:  []string{"missions/test.md"},
		Mentions: 1,
	}
	entity.Id = core.IDFromContent(entity.Tuple())
	return entity
}

func TestGraphReplaceAndLoad(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	insat := testEntity("INSAT-3D", "satellite", "insat-3d")
	orbit := testEntity("Geostationary", "orbit", "geostationary")
	entities := []*core.Entity{insat, orbit}
	edges := []*core.Edge{
		{
			Subject:    insat.Id,
			Predicate:  "hasOrbit",
			Object:     orbit.Id,
			Confidence: 0.95,
			Sources:    []string{"missions/test.md"},
		},
	}

	if err := repos.Graph.ReplaceGraph(ctx, entities, edges); err != nil {
		t.Fatalf("Failed to replace graph: %v", err)
	}

	// Load the whole graph back
	gotEntities, gotEdges, err := repos.Graph.LoadGraph(ctx)
	if err != nil {
		t.Fatalf("Failed to load graph: %v", err)
	}
	if len(gotEntities) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(gotEntities))
	}
	if len(gotEdges) != 1 {
		t.Fatalf("Expected 1 edge, got %d", len(gotEdges))
	}

	// Entities come back in ascending ID order
	if !slices.IsSortedFunc(gotEntities, func(a, b *core.Entity) int {
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		}
		return 0
	}) {
		t.Fatal("Expected entities ordered by ID")
	}

	if gotEdges[0].Key() != edges[0].Key() {
		t.Fatalf("Expected edge key %q, got %q", edges[0].Key(), gotEdges[0].Key())
	}
	if gotEdges[0].Confidence != 0.95 {
		t.Fatalf("Expected confidence 0.95, got %f", gotEdges[0].Confidence)
	}

	// Point lookups
	got, err := repos.Graph.GetEntity(ctx, insat.Id)
	if err != nil {
		t.Fatalf("Failed to get entity: %v", err)
	}
	if got.Name != "INSAT-3D" {
		t.Fatalf("Expected 'INSAT-3D', got %q", got.Name)
	}

	id, err := repos.Graph.ResolveAlias(ctx, "geostationary")
	if err != nil {
		t.Fatalf("Failed to resolve alias: %v", err)
	}
	if id != orbit.Id {
		t.Fatalf("Expected alias to resolve to %d, got %d", orbit.Id, id)
	}
}

func TestLoadGraphEmpty(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	_, _, err = repos.Graph.LoadGraph(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestReplaceGraphRemovesPreviousGraph(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	old := testEntity("Oceansat-2", "satellite", "oceansat-2")
	if err := repos.Graph.ReplaceGraph(ctx, []*core.Entity{old}, nil); err != nil {
		t.Fatalf("Failed to replace graph: %v", err)
	}

	replacement := testEntity("Megha-Tropiques", "satellite", "megha-tropiques")
	if err := repos.Graph.ReplaceGraph(ctx, []*core.Entity{replacement}, nil); err != nil {
		t.Fatalf("Failed to replace graph: %v", err)
	}

	entities, edges, err := repos.Graph.LoadGraph(ctx)
	if err != nil {
		t.Fatalf("Failed to load graph: %v", err)
	}
	if len(entities) != 1 || len(edges) != 0 {
		t.Fatalf("Expected 1 entity and 0 edges, got %d and %d", len(entities), len(edges))
	}
	if entities[0].Name != "Megha-Tropiques" {
		t.Fatalf("Expected replacement entity, got %q", entities[0].Name)
	}

	// The previous graph's records and aliases are gone
	if _, err := repos.Graph.GetEntity(ctx, old.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for replaced entity, got %v", err)
	}
	if _, err := repos.Graph.ResolveAlias(ctx, "oceansat-2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for replaced alias, got %v", err)
	}
}

func TestGetEntityMissing(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	_, err = repos.Graph.GetEntity(context.Background(), core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
