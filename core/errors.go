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

import "errors"

// Domain validation errors
var (
	// ErrInvalidMention indicates a RawMention failed validation.
	ErrInvalidMention = errors.New("invalid mention")

	// ErrInvalidTriple indicates a RawTriple failed validation.
	ErrInvalidTriple = errors.New("invalid triple")

	// ErrInvalidChunk indicates a DocumentChunk failed validation.
	ErrInvalidChunk = errors.New("invalid document chunk")

	// ErrInvalidFAQ indicates an FAQEntry failed validation.
	ErrInvalidFAQ = errors.New("invalid faq entry")

	// ErrEmptyName indicates a mention name is empty after trimming.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyEndpoint indicates a triple subject or object is empty.
	ErrEmptyEndpoint = errors.New("triple endpoint cannot be empty")

	// ErrEmptyPredicate indicates a triple predicate is empty.
	ErrEmptyPredicate = errors.New("triple predicate cannot be empty")

	// ErrInvalidConfidence indicates a confidence value is not a finite number.
	ErrInvalidConfidence = errors.New("confidence must be a finite number")

	// ErrEmptyText indicates a chunk text span is empty.
	ErrEmptyText = errors.New("chunk text cannot be empty")

	// ErrEmptyQuestion indicates an FAQ question is empty.
	ErrEmptyQuestion = errors.New("faq question cannot be empty")

	// ErrEmptyAnswer indicates an FAQ answer is empty.
	ErrEmptyAnswer = errors.New("faq answer cannot be empty")
)

// Configuration errors surfaced as hard failures
var (
	// ErrDimensionMismatch indicates an embedding dimension disagreement
	// between a vector index and a query or build input. This is a
	// configuration error and always aborts the operation.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexUnavailable indicates no retrieval snapshot is available at
	// all. Individual missing sources degrade instead of failing; this
	// error fires only when there is nothing to serve from.
	ErrIndexUnavailable = errors.New("retrieval index unavailable")
)
