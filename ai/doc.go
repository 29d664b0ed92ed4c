// Copyright 2026 Quillnotes
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


// Package ai defines the embedding capability consumed by the retrieval
// core, its configuration, and its error taxonomy.
//
// The concrete implementation lives in ai/openai and talks to any
// OpenAI-compatible embeddings API. ai/mock provides a deterministic test
// double. Whether the capability is usable at all is a pure predicate on
// the configuration (Config.Available); higher layers consult it before
// attempting the semantic search path.
package ai
