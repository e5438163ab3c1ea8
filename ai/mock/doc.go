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


// Package mock provides deterministic test doubles for the ai interfaces.
//
// The mocks produce stable outputs without network access: the embedder
// hashes input text into unit vectors, the extractor links capitalized
// tokens within sentences, and the synthesizer echoes the last line of
// its payload. Each mock exposes an injectable function field for tests
// that need custom behavior, plus a call counter for assertions.
//
// Use NewMockProvider for a full ai.AIProvider, or construct individual
// mocks directly when a test only exercises one service.
package mock
