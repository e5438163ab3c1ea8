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


// Package search answers queries over a retrieval snapshot.
//
// The Searcher type fans one query out to three evidence sources:
//   - Entity matching plus traversal over the knowledge graph
//   - KNN search over document chunk embeddings
//   - KNN search over FAQ entry embeddings
//
// The per-source results are fused into a single ranked evidence list and
// rendered into a context payload for answer synthesis. A high-confidence
// FAQ hit short-circuits fusion and answers the query directly from the
// stored answer; all sources coming back empty is a valid no-evidence
// outcome, not an error.
package search
