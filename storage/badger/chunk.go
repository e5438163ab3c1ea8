package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutChunks inserts or overwrites chunks keyed by their IDs.
func (r *ChunkRepository) PutChunks(ctx context.Context, chunks ...*core.DocumentChunk) ([]*core.DocumentChunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			// Use content-based ID if not set
			if chunk.Id == 0 {
				chunk.Id = core.ChunkID(chunk.Document, chunk.Text)
			}
			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return chunks, err
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.DocumentChunk, error) {
	var result *core.DocumentChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var chunkErr error
			result, chunkErr = storage.UnmarshalChunk(val)
			return chunkErr
		})
	}, false)
	return result, err
}

// ListChunks scans the chunk table in ascending ID order.
func (r *ChunkRepository) ListChunks(ctx context.Context) ([]*core.DocumentChunk, error) {
	var results []*core.DocumentChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.DocumentChunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, chunk)
		}
		return nil
	}, false)
	return results, err
}

// ReplaceChunks replaces the persisted chunk set with the given one.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, chunks []*core.DocumentChunk) error {
	if err := r.backend.DropPrefixes(recordPrefix(chunkRecordPrefix)); err != nil {
		return err
	}

	for start := 0; start < len(chunks); start += replaceBatchSize {
		batch := chunks[start:min(start+replaceBatchSize, len(chunks))]
		if _, err := r.PutChunks(ctx, batch...); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
