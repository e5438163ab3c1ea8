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


// Package graph builds and serves the knowledge graph side of the engine.
//
// The Normalizer runs offline: it folds raw mentions and triples from the
// extraction collaborator into canonical entities and deduplicated edges,
// producing an immutable Snapshot plus a NormalizationReport. Grouping is
// by canonical alias, near-duplicate groups merge when their types agree,
// and type-divergent near-duplicates are reported as conflicts instead of
// being merged.
//
// The Traverser runs online: breadth-first exploration outward from
// matched seed entities over forward and reverse edges, bounded by depth
// and per-node fan-out, yielding confidence-scored fact paths.
//
// Snapshots are never mutated after construction. A rebuild produces a
// new snapshot that callers swap in atomically.
package graph
