package mock

import (
	"context"
	"fmt"
	"strings"
)

// MockSynthesizer is a test double for ai.Synthesizer.
// It allows custom behavior injection via function fields.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, uses default deterministic behavior.
	SynthesizeFunc func(ctx context.Context, contextPayload string) (string, error)

	callCount int
}

// NewMockSynthesizer creates a mock synthesizer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockSynthesizer().
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize produces a deterministic placeholder answer.
// Default behavior: echoes the final line of the payload (the question)
// so callers can verify the payload reached the synthesizer intact.
func (m *MockSynthesizer) Synthesize(ctx context.Context, contextPayload string) (string, error) {
	m.callCount++

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, contextPayload)
	}

	lines := strings.Split(strings.TrimSpace(contextPayload), "\n")
	last := ""
	if len(lines) > 0 {
		last = strings.TrimSpace(lines[len(lines)-1])
	}
	return fmt.Sprintf("mock answer to %q", last), nil
}

// CallCount returns the number of times Synthesize was called.
func (m *MockSynthesizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSynthesizer) Reset() {
	m.callCount = 0
	m.SynthesizeFunc = nil
}
