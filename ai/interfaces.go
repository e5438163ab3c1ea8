package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TripleExtractor produces candidate relation triples from document text.
// The extraction model is a black box to this system: its output feeds the
// graph normalizer, which owns canonicalization and deduplication.
// Implementations must be thread-safe for concurrent use.
type TripleExtractor interface {
	// ExtractTriples analyzes text and returns candidate (subject,
	// predicate, object) triples with type hints and confidence scores.
	// Returns an empty slice if nothing could be extracted.
	// Returns an error if extraction fails.
	ExtractTriples(ctx context.Context, text string) ([]ExtractedTriple, error)
}

// ExtractedTriple is one candidate relation identified in text, before
// normalization. Surface strings are kept as the model produced them.
type ExtractedTriple struct {
	// Subject and Object are the surface forms of the related entities.
	Subject string
	Object  string

	// SubjectType and ObjectType are type hints from the predefined
	// entity types. May be empty when the model could not classify.
	SubjectType string
	ObjectType  string

	// Predicate is a short camelCase relation label, e.g. "hasOrbit".
	Predicate string

	// Confidence is the model's confidence in [0,1].
	Confidence float64
}

// Synthesizer turns an assembled evidence context into prose. The
// generative model behind it is out of scope for the retrieval engine;
// callers hand it the context payload from a query result.
// Implementations must be thread-safe for concurrent use.
type Synthesizer interface {
	// Synthesize generates an answer from the assembled context payload.
	Synthesize(ctx context.Context, contextPayload string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder, TripleExtractor and Synthesizer
// instances, ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// TripleExtractor returns the relation extraction service.
	// The returned TripleExtractor is safe for concurrent use.
	TripleExtractor() TripleExtractor

	// Synthesizer returns the answer synthesis service.
	// The returned Synthesizer is safe for concurrent use.
	Synthesizer() Synthesizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
