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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/retrievit/ai"
)

// batchEmbedder runs embedding requests in fixed-size batches on a shared
// worker pool. Each result is written into the output slot of its input
// index, so the returned order is the input order no matter how batches
// interleave across workers.
type batchEmbedder struct {
	embedder    ai.Embedder
	pool        *ants.Pool
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// embedAll embeds texts and returns one vector per input, in input order.
// Each batch is retried with exponential backoff before it fails the run,
// and the first batch failure cancels the batches still in flight. The
// report callback, when set, receives the cumulative number of embedded
// texts; calls are serialized.
func (b *batchEmbedder) embedAll(ctx context.Context, texts []string, report func(done int)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(texts))
	batches := splitBatches(len(texts), b.batchSize)

	// Each batch owns one error slot, keeping collection deterministic
	// without a lock.
	errs := make([]error, len(batches))

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for slot, bounds := range batches {
		lo, hi := bounds[0], bounds[1]
		wg.Add(1)
		submitErr := b.pool.Submit(func() {
			defer wg.Done()
			batch := texts[lo:hi]

			var embeddings [][]float32
			err := ai.RetryWithBackoff(ctx, func() error {
				var embedErr error
				embeddings, embedErr = b.embedder.EmbedTexts(ctx, batch)
				return embedErr
			}, b.maxAttempts, b.baseDelay)
			if err != nil {
				b.logger.Warn("embedding batch failed", "batch", slot, "records", len(batch), "err", err)
				errs[slot] = fmt.Errorf("failed to generate embeddings after %d attempts: %w", b.maxAttempts, err)
				cancel()
				return
			}
			if len(embeddings) != len(batch) {
				errs[slot] = fmt.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(batch))
				cancel()
				return
			}
			copy(vectors[lo:hi], embeddings)

			if report != nil {
				mu.Lock()
				done += len(batch)
				report(done)
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			errs[slot] = submitErr
			cancel()
			break
		}
	}
	wg.Wait()

	if err := firstFailure(errs); err != nil {
		return nil, err
	}
	return vectors, nil
}

// firstFailure picks the error to surface for a failed run. Batches that
// lost the race to a sibling's cancel report context.Canceled, which only
// matters when no real failure exists (the caller canceled).
func firstFailure(errs []error) error {
	var canceled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return err
		}
		if canceled == nil {
			canceled = err
		}
	}
	return canceled
}

// splitBatches divides [0, n) into contiguous half-open ranges of at most
// size elements.
func splitBatches(n, size int) [][2]int {
	ranges := make([][2]int, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		ranges = append(ranges, [2]int{lo, min(lo+size, n)})
	}
	return ranges
}
