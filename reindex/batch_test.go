package reindex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
)

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t)
	embedder := mock.NewMockEmbedder()

	processor := NewBatchProcessor(repos.Chunks, repos.FAQs, embedder, 3, time.Millisecond)

	require.NoError(t, processor.ProcessChunks(ctx, nil))
	require.NoError(t, processor.ProcessFAQs(ctx, nil))
	assert.Equal(t, 0, embedder.CallCount())
}

func TestBatchProcessor_Retry(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t)

	// Fail the first call, succeed on the second.
	attempts := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient outage")
		}
		vectors := make([][]float32, len(texts))
		for i := range vectors {
			vectors[i] = []float32{0, 1, 0}
		}
		return vectors, nil
	}

	processor := NewBatchProcessor(repos.Chunks, repos.FAQs, embedder, 3, time.Millisecond)

	chunks := []*core.DocumentChunk{
		{Id: 1, Document: "handbook", Text: "scan mirror cadence"},
	}
	require.NoError(t, processor.ProcessChunks(ctx, chunks))
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []float32{0, 1, 0}, chunks[0].Vector)

	stored, err := repos.Chunks.GetChunk(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, stored.Vector)
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepositories(t)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil // One vector for two texts
	}

	processor := NewBatchProcessor(repos.Chunks, repos.FAQs, embedder, 1, time.Millisecond)

	faqs := []*core.FAQEntry{
		{Id: 1, Question: "What is the revisit time?", Answer: "26 days."},
		{Id: 2, Question: "Which band sees cloud tops?", Answer: "Thermal infrared."},
	}
	err := processor.ProcessFAQs(ctx, faqs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding count mismatch: expected 2, got 1")
}

func TestForEachBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("uneven split", func(t *testing.T) {
		var batches [][2]int
		err := forEachBatch(ctx, 10, 4, func(lo, hi int) error {
			batches = append(batches, [2]int{lo, hi})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, [][2]int{{0, 4}, {4, 8}, {8, 10}}, batches)
	})

	t.Run("empty", func(t *testing.T) {
		err := forEachBatch(ctx, 0, 4, func(lo, hi int) error {
			t.Fatal("callback should not run for empty input")
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("error stops iteration", func(t *testing.T) {
		calls := 0
		wantErr := errors.New("boom")
		err := forEachBatch(ctx, 10, 4, func(lo, hi int) error {
			calls++
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		err := forEachBatch(canceled, 10, 4, func(lo, hi int) error {
			t.Fatal("callback should not run after cancellation")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
