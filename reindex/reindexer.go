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


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// BatchSize is the number of records to embed in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer re-embeds every persisted chunk and FAQ entry with a new
// embedding model. It rewrites only the stored vectors; graph data and
// record text are left untouched. Callers reload the search indexes
// afterwards so queries see the new vectors.
type Reindexer struct {
	chunks    storage.ChunkRepository
	faqs      storage.FAQRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(chunks storage.ChunkRepository, faqs storage.FAQRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reindexer, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if faqs == nil {
		return nil, ErrFAQRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize < 1 {
		return nil, ErrInvalidBatchSize
	}

	processor := NewBatchProcessor(chunks, faqs, embedder, config.MaxRetries, config.RetryDelay)

	return &Reindexer{
		chunks:    chunks,
		faqs:      faqs,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
	}, nil
}

// Run executes the reindexing operation.
// Every chunk and FAQ entry in the database is re-embedded with the
// configured embedder. Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context) error {
	chunks, err := r.chunks.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	faqs, err := r.faqs.ListFAQs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load faqs: %w", err)
	}

	totalRecords := len(chunks) + len(faqs)
	if totalRecords == 0 {
		fmt.Fprintf(r.progress, "No records found in database (0 records)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d records (batch size: %d)\n",
		totalRecords, r.config.BatchSize)

	// Initialize progress tracker
	tracker := NewProgressTracker(r.progress, totalRecords, r.config.ReportInterval)
	tracker.Start()

	processed := 0

	// Chunks first, then FAQ entries, both in fixed-size batches
	err = forEachBatch(ctx, len(chunks), r.config.BatchSize, func(lo, hi int) error {
		if err := r.processor.ProcessChunks(ctx, chunks[lo:hi]); err != nil {
			return fmt.Errorf("failed to process chunk batch: %w", err)
		}

		processed += hi - lo
		tracker.Update(processed)

		return nil
	})
	if err != nil {
		return err
	}

	err = forEachBatch(ctx, len(faqs), r.config.BatchSize, func(lo, hi int) error {
		if err := r.processor.ProcessFAQs(ctx, faqs[lo:hi]); err != nil {
			return fmt.Errorf("failed to process faq batch: %w", err)
		}

		processed += hi - lo
		tracker.Update(processed)

		return nil
	})
	if err != nil {
		return err
	}

	// Finish progress tracking
	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindexing complete. Processed %d records in %v (%.1f records/sec)\n",
		totalRecords, elapsed.Round(time.Second), float64(totalRecords)/elapsed.Seconds())

	return nil
}

// forEachBatch walks [0, n) in contiguous half-open batches of at most
// size records, checking the context before each batch.
func forEachBatch(ctx context.Context, n, size int, fn func(lo, hi int) error) error {
	for lo := 0; lo < n; lo += size {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(lo, min(lo+size, n)); err != nil {
			return err
		}
	}

	return nil
}
