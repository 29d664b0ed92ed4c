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


// Package embedding implements the persistent embedding cache.
//
// Each document has at most one cached vector, keyed by document id and
// guarded by a content fingerprint: a cache hit is valid only on exact
// fingerprint equality, so any edit to a document forces regeneration on
// the next read. Failed generations are never cached.
//
// Bulk generation walks a corpus strictly sequentially with a fixed
// inter-call delay as self-throttling against provider rate limits.
package embedding
