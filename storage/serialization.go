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


package storage

import (
	"fmt"

	"github.com/quillnotes/quill/core"
)

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalEmbeddingRecord serializes an EmbeddingRecord to bytes.
func MarshalEmbeddingRecord(rec *core.EmbeddingRecord) []byte {
	buf := make([]byte, core.EmbeddingRecordMUS.Size(*rec))
	core.EmbeddingRecordMUS.Marshal(*rec, buf)
	return buf
}

// UnmarshalEmbeddingRecord deserializes an EmbeddingRecord from bytes.
func UnmarshalEmbeddingRecord(data []byte) (*core.EmbeddingRecord, error) {
	rec, _, err := core.EmbeddingRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &rec, nil
}
