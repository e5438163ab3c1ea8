// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// ReportRepository implements storage.ReportRepository for BadgerDB.
type ReportRepository struct {
	backend *Backend
}

var _ storage.ReportRepository = (*ReportRepository)(nil)

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(backend *Backend) *ReportRepository {
	return &ReportRepository{
		backend: backend,
	}
}

// Close releases resources. ReportRepository has no resources to release.
func (r *ReportRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ReportRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveReport persists the report of a completed normalization run.
func (r *ReportRepository) SaveReport(ctx context.Context, report *core.NormalizationReport) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeReportKey(), storage.MarshalReport(report)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadReport retrieves the most recent normalization report.
func (r *ReportRepository) LoadReport(ctx context.Context) (*core.NormalizationReport, error) {
	var report *core.NormalizationReport
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeReportKey())
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			report, unmarshalErr = storage.UnmarshalReport(val)
			return unmarshalErr
		})
	}, false)

	return report, err
}
