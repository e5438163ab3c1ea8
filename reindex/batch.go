package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// BatchProcessor handles embedding generation for batches of chunks and
// FAQ entries.
type BatchProcessor struct {
	chunks         storage.ChunkRepository
	faqs           storage.FAQRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(chunks storage.ChunkRepository, faqs storage.FAQRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		chunks:         chunks,
		faqs:           faqs,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// ProcessChunks generates embeddings for a batch of chunks and updates
// them in the database.
func (bp *BatchProcessor) ProcessChunks(ctx context.Context, chunks []*core.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := bp.embedTexts(ctx, texts)
	if err != nil {
		return err
	}

	for i := range chunks {
		chunks[i].Vector = embeddings[i]
	}

	_, err = bp.chunks.PutChunks(ctx, chunks...)
	if err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}

	return nil
}

// ProcessFAQs generates embeddings for a batch of FAQ entries and
// updates them in the database. The question carries the retrieval
// signal, so only question text is embedded.
func (bp *BatchProcessor) ProcessFAQs(ctx context.Context, faqs []*core.FAQEntry) error {
	if len(faqs) == 0 {
		return nil
	}

	texts := make([]string, len(faqs))
	for i, faq := range faqs {
		texts[i] = faq.Question
	}

	embeddings, err := bp.embedTexts(ctx, texts)
	if err != nil {
		return err
	}

	for i := range faqs {
		faqs[i].Vector = embeddings[i]
	}

	_, err = bp.faqs.PutFAQs(ctx, faqs...)
	if err != nil {
		return fmt.Errorf("failed to update faqs: %w", err)
	}

	return nil
}

// embedTexts generates embeddings with retry and verifies the provider
// returned one vector per input.
func (bp *BatchProcessor) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(embeddings))
	}

	return embeddings, nil
}
