package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// replaceBatchSize bounds the number of records written per transaction so
// large replaces stay under Badger's transaction size limits.
const replaceBatchSize = 1000

// GraphRepository implements storage.GraphRepository for BadgerDB.
type GraphRepository struct {
	backend *Backend
}

var _ storage.GraphRepository = (*GraphRepository)(nil)

// NewGraphRepository creates a new GraphRepository.
func NewGraphRepository(backend *Backend) (*GraphRepository, error) {
	return &GraphRepository{
		backend: backend,
	}, nil
}

// Close releases resources. GraphRepository has no resources to release.
func (r *GraphRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *GraphRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceGraph replaces the persisted graph with the given entities and edges.
//
// The completeness marker is deleted first and rewritten only after every
// record batch has committed. A replace interrupted midway therefore leaves
// no marker, and LoadGraph reports the store as holding no graph.
func (r *GraphRepository) ReplaceGraph(ctx context.Context, entities []*core.Entity, edges []*core.Edge) error {
	// Invalidate the previous graph before touching its records.
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeGraphMetaKey()); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	err = r.backend.DropPrefixes(
		recordPrefix(entityRecordPrefix),
		recordPrefix(entityAliasPrefix),
		recordPrefix(edgeRecordPrefix),
	)
	if err != nil {
		return err
	}

	for start := 0; start < len(entities); start += replaceBatchSize {
		batch := entities[start:min(start+replaceBatchSize, len(entities))]
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, entity := range batch {
				if err := tx.Set(makeEntityKey(entity.Id), storage.MarshalEntity(entity)); err != nil {
					return err
				}
				for _, alias := range entity.Aliases {
					if err := tx.Set(makeAliasKey(alias), storage.MarshalID(entity.Id)); err != nil {
						return err
					}
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	for start := 0; start < len(edges); start += replaceBatchSize {
		batch := edges[start:min(start+replaceBatchSize, len(edges))]
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, edge := range batch {
				if err := tx.Set(makeEdgeKey(edge), storage.MarshalEdge(edge)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	meta := &storage.GraphMeta{Entities: len(entities), Edges: len(edges)}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeGraphMetaKey(), storage.MarshalGraphMeta(meta)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadGraph loads the complete persisted graph.
func (r *GraphRepository) LoadGraph(ctx context.Context) ([]*core.Entity, []*core.Edge, error) {
	var (
		entities []*core.Entity
		edges    []*core.Edge
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		meta, err := readGraphMeta(tx)
		if err != nil {
			return err
		}

		entities, err = readAllEntities(tx)
		if err != nil {
			return err
		}
		edges, err = readAllEdges(tx)
		if err != nil {
			return err
		}

		if len(entities) != meta.Entities || len(edges) != meta.Edges {
			return fmt.Errorf("%w: graph tables do not match marker (%d/%d entities, %d/%d edges)",
				storage.ErrTruncatedData, len(entities), meta.Entities, len(edges), meta.Edges)
		}
		return nil
	}, false)
	if err != nil {
		return nil, nil, err
	}
	return entities, edges, nil
}

// GetEntity retrieves a single entity by ID.
func (r *GraphRepository) GetEntity(ctx context.Context, id core.ID) (*core.Entity, error) {
	var result *core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntity(tx, makeEntityKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ResolveAlias resolves a canonicalized alias to the owning entity ID.
func (r *GraphRepository) ResolveAlias(ctx context.Context, alias string) (core.ID, error) {
	var result core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeAliasKey(alias))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var idErr error
			result, idErr = storage.UnmarshalID(val)
			return idErr
		})
	}, false)
	return result, err
}

// Helper methods

// readGraphMeta reads the completeness marker from the transaction.
// Returns storage.ErrNotFound when no complete graph has been persisted.
func readGraphMeta(tx *badger.Txn) (*storage.GraphMeta, error) {
	item, err := tx.Get(makeGraphMetaKey())
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var meta *storage.GraphMeta
	err = item.Value(func(val []byte) error {
		var metaErr error
		meta, metaErr = storage.UnmarshalGraphMeta(val)
		return metaErr
	})
	return meta, err
}

// readEntity reads an entity from the transaction.
func readEntity(tx *badger.Txn, key []byte) (*core.Entity, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entity *core.Entity
	err = item.Value(func(val []byte) error {
		var err error
		entity, err = storage.UnmarshalEntity(val)
		return err
	})
	return entity, err
}

// readAllEntities scans the entity table in ascending ID order.
func readAllEntities(tx *badger.Txn) ([]*core.Entity, error) {
	var results []*core.Entity

	opts := badger.DefaultIteratorOptions
	opts.Prefix = recordPrefix(entityRecordPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var entity *core.Entity
		err := iter.Item().Value(func(val []byte) error {
			var err error
			entity, err = storage.UnmarshalEntity(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, nil
}

// readAllEdges scans the edge table in key order.
func readAllEdges(tx *badger.Txn) ([]*core.Edge, error) {
	var results []*core.Edge

	opts := badger.DefaultIteratorOptions
	opts.Prefix = recordPrefix(edgeRecordPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var edge *core.Edge
		err := iter.Item().Value(func(val []byte) error {
			var err error
			edge, err = storage.UnmarshalEdge(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		results = append(results, edge)
	}
	return results, nil
}
