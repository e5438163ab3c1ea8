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


package search

import "errors"

var (
	// ErrSnapshotSourceRequired is returned when a snapshot source is not provided.
	ErrSnapshotSourceRequired = errors.New("snapshot source required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrMatcherRequired is returned when a nil matcher is supplied.
	ErrMatcherRequired = errors.New("matcher cannot be nil")

	// ErrTraverserRequired is returned when a nil traverser is supplied.
	ErrTraverserRequired = errors.New("traverser cannot be nil")

	// ErrFAQMatcherRequired is returned when a nil FAQ matcher is supplied.
	ErrFAQMatcherRequired = errors.New("faq matcher cannot be nil")

	// ErrFuserRequired is returned when a nil fuser is supplied.
	ErrFuserRequired = errors.New("fuser cannot be nil")

	// ErrContextBuilderRequired is returned when a nil context builder is supplied.
	ErrContextBuilderRequired = errors.New("context builder cannot be nil")

	// ErrInvalidWeights is returned when fusion weights are negative or do
	// not sum to 1.
	ErrInvalidWeights = errors.New("fusion weights must sum to 1")

	// ErrInvalidThreshold is returned when a similarity threshold is outside (0, 1].
	ErrInvalidThreshold = errors.New("threshold must be in (0, 1]")

	// ErrInvalidPriority is returned when a priority order does not list
	// each evidence kind exactly once.
	ErrInvalidPriority = errors.New("priority must list each evidence kind exactly once")

	// ErrInvalidLimit is returned when a limit is not positive.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("timeout must be positive")
)
