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


package graph

import "errors"

var (
	// ErrDuplicateEntity indicates two entities with the same id were
	// handed to a snapshot constructor.
	ErrDuplicateEntity = errors.New("duplicate entity id")

	// ErrAliasCollision indicates the same alias resolves to more than
	// one entity.
	ErrAliasCollision = errors.New("alias resolves to multiple entities")

	// ErrDanglingEdge indicates an edge references an entity that is not
	// part of the snapshot.
	ErrDanglingEdge = errors.New("edge references unknown entity")

	// ErrInvalidThreshold indicates a similarity threshold outside (0, 1].
	ErrInvalidThreshold = errors.New("threshold must be in (0, 1]")

	// ErrInvalidType indicates an empty default entity type.
	ErrInvalidType = errors.New("entity type cannot be empty")

	// ErrInvalidDecay indicates a per-hop decay factor outside (0, 1].
	ErrInvalidDecay = errors.New("decay must be in (0, 1]")

	// ErrInvalidLimit indicates a non-positive depth, fan-out or result cap.
	ErrInvalidLimit = errors.New("limit must be positive")
)
