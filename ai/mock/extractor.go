package mock

import (
	"context"
	"strings"
	"unicode"

	"github.com/poiesic/retrievit/ai"
)

// MockTripleExtractor is a test double for ai.TripleExtractor.
// It allows custom behavior injection via function fields.
type MockTripleExtractor struct {
	// ExtractTriplesFunc is called by ExtractTriples if set.
	// If nil, uses default co-occurrence extraction.
	ExtractTriplesFunc func(ctx context.Context, text string) ([]ai.ExtractedTriple, error)

	callCount int
}

// NewMockTripleExtractor creates a mock triple extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockTripleExtractor() *MockTripleExtractor {
	return &MockTripleExtractor{}
}

// ExtractTriples extracts simple mock triples from text.
// Default behavior: within each sentence, capitalized tokens are treated as
// entity mentions and consecutive pairs are linked with a generic predicate.
// This mirrors the shape of real extractor output without any model calls.
func (m *MockTripleExtractor) ExtractTriples(ctx context.Context, text string) ([]ai.ExtractedTriple, error) {
	m.callCount++

	if m.ExtractTriplesFunc != nil {
		return m.ExtractTriplesFunc(ctx, text)
	}

	triples := make([]ai.ExtractedTriple, 0)
	for _, sentence := range strings.Split(text, ".") {
		mentions := capitalizedTokens(sentence)
		for i := 0; i+1 < len(mentions); i++ {
			triples = append(triples, ai.ExtractedTriple{
				Subject:     mentions[i],
				SubjectType: "concept",
				Predicate:   "relatedTo",
				Object:      mentions[i+1],
				ObjectType:  "concept",
				Confidence:  0.5,
			})
		}
	}

	return triples, nil
}

// CallCount returns the number of times ExtractTriples was called.
func (m *MockTripleExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockTripleExtractor) Reset() {
	m.callCount = 0
	m.ExtractTriplesFunc = nil
}

// capitalizedTokens returns the cleaned tokens of a sentence that start
// with an upper-case letter, skipping the sentence-initial word so common
// sentence openers do not masquerade as entities.
func capitalizedTokens(sentence string) []string {
	words := strings.Fields(sentence)
	tokens := make([]string, 0, len(words))
	for i, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" || i == 0 {
			continue
		}
		runes := []rune(word)
		if unicode.IsUpper(runes[0]) {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
