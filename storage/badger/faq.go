package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// FAQRepository implements storage.FAQRepository for BadgerDB.
type FAQRepository struct {
	backend *Backend
}

var _ storage.FAQRepository = (*FAQRepository)(nil)

// NewFAQRepository creates a new FAQRepository.
func NewFAQRepository(backend *Backend) (*FAQRepository, error) {
	return &FAQRepository{
		backend: backend,
	}, nil
}

// Close releases resources. FAQRepository has no resources to release.
func (r *FAQRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *FAQRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutFAQs inserts or overwrites FAQ entries keyed by their IDs.
func (r *FAQRepository) PutFAQs(ctx context.Context, faqs ...*core.FAQEntry) ([]*core.FAQEntry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, faq := range faqs {
			// Use content-based ID if not set
			if faq.Id == 0 {
				faq.Id = core.FAQID(faq.Question)
			}
			if err := tx.Set(makeFAQKey(faq.Id), storage.MarshalFAQ(faq)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return faqs, err
}

// GetFAQ retrieves a single FAQ entry by ID.
func (r *FAQRepository) GetFAQ(ctx context.Context, id core.ID) (*core.FAQEntry, error) {
	var result *core.FAQEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFAQKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var faqErr error
			result, faqErr = storage.UnmarshalFAQ(val)
			return faqErr
		})
	}, false)
	return result, err
}

// ListFAQs scans the FAQ table in ascending ID order.
func (r *FAQRepository) ListFAQs(ctx context.Context) ([]*core.FAQEntry, error) {
	var results []*core.FAQEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix(faqRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var faq *core.FAQEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				faq, err = storage.UnmarshalFAQ(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, faq)
		}
		return nil
	}, false)
	return results, err
}

// ReplaceFAQs replaces the persisted FAQ set with the given one.
func (r *FAQRepository) ReplaceFAQs(ctx context.Context, faqs []*core.FAQEntry) error {
	if err := r.backend.DropPrefixes(recordPrefix(faqRecordPrefix)); err != nil {
		return err
	}

	for start := 0; start < len(faqs); start += replaceBatchSize {
		batch := faqs[start:min(start+replaceBatchSize, len(faqs))]
		if _, err := r.PutFAQs(ctx, batch...); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
