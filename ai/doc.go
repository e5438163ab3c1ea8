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


// Package ai provides abstractions for the AI collaborators used by Retrievit.
//
// This package defines interfaces for the external model services the
// retrieval engine depends on: text embeddings, relation-triple extraction,
// and answer synthesis. It follows the dependency inversion principle,
// allowing the core domain and business logic to depend on abstractions
// rather than concrete implementations.
//
// # Design Principles
//
// The package is designed around four key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - TripleExtractor: Produces candidate relation triples from text
//   - Synthesizer: Turns an assembled evidence context into prose
//   - AIProvider: Aggregates the services for convenient initialization
//
// The retrieval engine itself never trains or tunes models; everything
// behind these interfaces is a black box whose outputs are normalized,
// indexed and fused by the rest of the system.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Deterministic doubles for tests and offline demos
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockTripleExtractor)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, *Func fields, Reset).
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "What is the orbit of INSAT-3D?")
//	triples, err := provider.TripleExtractor().ExtractTriples(ctx, "INSAT-3D operates from a geostationary orbit.")
package ai
