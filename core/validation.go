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


package core

import (
	"fmt"
	"math"
	"strings"
)

// ValidateMention validates a RawMention according to domain rules.
//
// Validation rules:
//   - Name must not be empty after trimming
//
// NOT validated:
//   - Type (empty types get a default assigned by the normalizer)
//   - Source (unattributed mentions are acceptable)
func ValidateMention(mention *RawMention) error {
	if mention == nil {
		return fmt.Errorf("%w: mention is nil", ErrInvalidMention)
	}

	if strings.TrimSpace(mention.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMention, ErrEmptyName)
	}

	return nil
}

// ValidateTriple validates a RawTriple according to domain rules.
//
// Validation rules:
//   - Subject and Object must not be empty after trimming
//   - Predicate must not be empty after trimming
//   - Confidence must be a finite number (out-of-range values are clamped
//     later, NaN and infinities are rejected here)
//
// Type hints and Source are optional.
func ValidateTriple(triple *RawTriple) error {
	if triple == nil {
		return fmt.Errorf("%w: triple is nil", ErrInvalidTriple)
	}

	if strings.TrimSpace(triple.Subject) == "" || strings.TrimSpace(triple.Object) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTriple, ErrEmptyEndpoint)
	}

	if strings.TrimSpace(triple.Predicate) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTriple, ErrEmptyPredicate)
	}

	if math.IsNaN(triple.Confidence) || math.IsInf(triple.Confidence, 0) {
		return fmt.Errorf("%w: %w", ErrInvalidTriple, ErrInvalidConfidence)
	}

	return nil
}

// ValidateChunk validates a DocumentChunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//
// NOT validated (populated by the build pipeline):
//   - Vector (empty until the embedding pass runs)
//   - ID (derived from content during the build)
func ValidateChunk(chunk *DocumentChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	return nil
}

// ValidateFAQ validates an FAQEntry according to domain rules.
//
// Validation rules:
//   - Question must not be empty
//   - Answer must not be empty
func ValidateFAQ(faq *FAQEntry) error {
	if faq == nil {
		return fmt.Errorf("%w: faq is nil", ErrInvalidFAQ)
	}

	if strings.TrimSpace(faq.Question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFAQ, ErrEmptyQuestion)
	}

	if strings.TrimSpace(faq.Answer) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFAQ, ErrEmptyAnswer)
	}

	return nil
}
