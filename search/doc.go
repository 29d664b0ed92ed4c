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


// Package search ranks the document corpus against free-text queries.
//
// Three strategies are exposed:
//   - Semantic: query and document embedding vectors compared by cosine
//     similarity, filtered by a relevance floor.
//   - Keyword: lexical scoring with a title boost and a per-token body
//     occurrence cap; needs no external capability.
//   - Hybrid: both lists interleaved and deduplicated by document id,
//     semantic candidates first.
//
// Hybrid search never surfaces embedding failures: an unconfigured or
// failing provider degrades the query to keyword-only ranking. The one
// exception is a vector dimension mismatch, which signals cache corruption
// and is always propagated.
//
// Each result carries an excerpt: a sentence-aligned window of the body
// chosen to cover the most query tokens.
package search
