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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/retrievit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// TripleExtractor implements ai.TripleExtractor using OpenAI-compatible chat APIs.
type TripleExtractor struct {
	client        llms.Model
	minConfidence float64
	logger        *slog.Logger
}

// triple is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type triple struct {
	Subject     string  `json:"subject"`
	SubjectType string  `json:"subject_type"`
	Predicate   string  `json:"predicate"`
	Object      string  `json:"object"`
	ObjectType  string  `json:"object_type"`
	Confidence  float64 `json:"confidence"`
}

// extraction is the wrapper structure for the LLM's JSON response.
type extraction struct {
	Triples []triple `json:"triples"`
}

// newTripleExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTripleExtractor(config *ai.Config) (*TripleExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat/extraction
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &TripleExtractor{
		client:        client,
		minConfidence: config.MinConfidence,
		logger:        slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewTripleExtractor creates a new triple extractor using the provided configuration.
//
// Returns ai.TripleExtractor interface to enforce abstraction.
func NewTripleExtractor(config *ai.Config) (ai.TripleExtractor, error) {
	return newTripleExtractor(config)
}

// ExtractTriples extracts relation triples from text using an LLM.
// It applies confidence filtering and returns only triples at or above the
// configured minimum.
func (e *TripleExtractor) ExtractTriples(ctx context.Context, text string) ([]ai.ExtractedTriple, error) {
	// Scrub input text
	text = sanitizeText(text)

	// Build the system and user prompts
	systemPrompt := buildExtractionPrompt()
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result extraction
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return []ai.ExtractedTriple{}, nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
		return nil, lastErr
	}

	// Filter by confidence and convert to ai.ExtractedTriple
	extracted := make([]ai.ExtractedTriple, 0, len(result.Triples))
	for _, t := range result.Triples {
		if t.Confidence >= e.minConfidence {
			extracted = append(extracted, ai.ExtractedTriple{
				Subject:     t.Subject,
				Object:      t.Object,
				SubjectType: t.SubjectType,
				ObjectType:  t.ObjectType,
				Predicate:   t.Predicate,
				Confidence:  t.Confidence,
			})
		}
	}

	// Sort by confidence (descending)
	slices.SortFunc(extracted, func(a, b ai.ExtractedTriple) int {
		if a.Confidence == b.Confidence {
			return 0
		}
		if a.Confidence < b.Confidence {
			return 1
		}
		return -1
	})

	e.logger.Debug("extracted triples",
		"total", len(result.Triples),
		"filtered", len(extracted))

	for i, t := range extracted {
		extracted[i].SubjectType = strings.ReplaceAll(t.SubjectType, " ", "_")
		extracted[i].ObjectType = strings.ReplaceAll(t.ObjectType, " ", "_")
	}
	return extracted, nil
}
