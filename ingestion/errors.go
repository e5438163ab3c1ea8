package ingestion

import "errors"

var (
	// ErrGraphRepositoryRequired is returned when a graph repository is not provided.
	ErrGraphRepositoryRequired = errors.New("graph repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrFAQRepositoryRequired is returned when a FAQ repository is not provided.
	ErrFAQRepositoryRequired = errors.New("FAQ repository required")

	// ErrReportRepositoryRequired is returned when a report repository is not provided.
	ErrReportRepositoryRequired = errors.New("report repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidBatchSize is returned when the embedding batch size is not positive.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")
)
