package reindex

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when no chunk repository is provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrFAQRepositoryRequired is returned when no FAQ repository is provided.
	ErrFAQRepositoryRequired = errors.New("FAQ repository required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidBatchSize is returned when the configured batch size is not positive.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")
)
