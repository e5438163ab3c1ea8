package graph

import (
	"fmt"
	"sort"

	"github.com/poiesic/retrievit/core"
)

// Snapshot is an immutable view of a normalized knowledge graph. It is
// built once by the normalizer (or reloaded from storage) and then only
// read; query serving never mutates it. Accessors return internal slices
// for speed, callers must not modify them.
type Snapshot struct {
	entities  map[core.ID]*core.Entity
	forward   map[core.ID][]*core.Edge
	reverse   map[core.ID][]*core.Edge
	aliases   map[string]core.ID
	types     map[string][]core.ID
	aliasList []string
	edgeCount int
}

// SnapshotStats summarizes the size of a snapshot.
type SnapshotStats struct {
	Entities int
	Edges    int
	Aliases  int
}

// NewSnapshot builds a snapshot from normalized entities and edges.
// It verifies that entity ids are unique, that every alias resolves to
// exactly one entity, and that no edge references an unknown entity.
func NewSnapshot(entities []*core.Entity, edges []*core.Edge) (*Snapshot, error) {
	s := &Snapshot{
		entities: make(map[core.ID]*core.Entity, len(entities)),
		forward:  make(map[core.ID][]*core.Edge),
		reverse:  make(map[core.ID][]*core.Edge),
		aliases:  make(map[string]core.ID),
		types:    make(map[string][]core.ID),
	}

	for _, entity := range entities {
		if _, exists := s.entities[entity.Id]; exists {
			return nil, fmt.Errorf("%w: %016x (%s)", ErrDuplicateEntity, uint64(entity.Id), entity.Name)
		}
		s.entities[entity.Id] = entity

		for _, alias := range entity.Aliases {
			if owner, exists := s.aliases[alias]; exists && owner != entity.Id {
				return nil, fmt.Errorf("%w: %q", ErrAliasCollision, alias)
			}
			s.aliases[alias] = entity.Id
		}

		s.types[entity.Type] = append(s.types[entity.Type], entity.Id)
	}

	for _, edge := range edges {
		if _, ok := s.entities[edge.Subject]; !ok {
			return nil, fmt.Errorf("%w: subject %016x in %s", ErrDanglingEdge, uint64(edge.Subject), edge.Key())
		}
		if _, ok := s.entities[edge.Object]; !ok {
			return nil, fmt.Errorf("%w: object %016x in %s", ErrDanglingEdge, uint64(edge.Object), edge.Key())
		}
		s.forward[edge.Subject] = append(s.forward[edge.Subject], edge)
		s.reverse[edge.Object] = append(s.reverse[edge.Object], edge)
	}
	s.edgeCount = len(edges)

	// Adjacency lists are ordered once here so traversal fan-out capping
	// is a prefix take.
	for _, list := range s.forward {
		sortEdges(list)
	}
	for _, list := range s.reverse {
		sortEdges(list)
	}
	for _, ids := range s.types {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	s.aliasList = make([]string, 0, len(s.aliases))
	for alias := range s.aliases {
		s.aliasList = append(s.aliasList, alias)
	}
	sort.Strings(s.aliasList)

	return s, nil
}

// sortEdges orders edges by confidence descending, ties by edge key
// ascending.
func sortEdges(edges []*core.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Confidence != edges[j].Confidence {
			return edges[i].Confidence > edges[j].Confidence
		}
		return edges[i].Key() < edges[j].Key()
	})
}

// Entity returns the entity with the given id.
func (s *Snapshot) Entity(id core.ID) (*core.Entity, bool) {
	entity, ok := s.entities[id]
	return entity, ok
}

// ResolveAlias returns the entity id a canonical alias resolves to.
func (s *Snapshot) ResolveAlias(alias string) (core.ID, bool) {
	id, ok := s.aliases[alias]
	return id, ok
}

// Outgoing returns the edges whose subject is the given entity, ordered
// by confidence descending.
func (s *Snapshot) Outgoing(id core.ID) []*core.Edge {
	return s.forward[id]
}

// Incoming returns the edges whose object is the given entity, ordered
// by confidence descending.
func (s *Snapshot) Incoming(id core.ID) []*core.Edge {
	return s.reverse[id]
}

// EntitiesByType returns the ids of all entities carrying the given type
// tag, in ascending id order.
func (s *Snapshot) EntitiesByType(entityType string) []core.ID {
	return s.types[entityType]
}

// Aliases returns every canonical alias in the snapshot in sorted order.
// Fuzzy matchers scan this list.
func (s *Snapshot) Aliases() []string {
	return s.aliasList
}

// EntityCount returns the number of entities in the snapshot.
func (s *Snapshot) EntityCount() int {
	return len(s.entities)
}

// EdgeCount returns the number of edges in the snapshot.
func (s *Snapshot) EdgeCount() int {
	return s.edgeCount
}

// Entities returns all entities in ascending id order.
func (s *Snapshot) Entities() []*core.Entity {
	out := make([]*core.Entity, 0, len(s.entities))
	for _, entity := range s.entities {
		out = append(out, entity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// Edges returns all edges in ascending key order.
func (s *Snapshot) Edges() []*core.Edge {
	out := make([]*core.Edge, 0, s.edgeCount)
	for _, list := range s.forward {
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Stats returns entity, edge and alias counts.
func (s *Snapshot) Stats() SnapshotStats {
	return SnapshotStats{
		Entities: len(s.entities),
		Edges:    s.edgeCount,
		Aliases:  len(s.aliases),
	}
}
