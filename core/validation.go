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


package core

import (
	"fmt"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Title and Body must not both be empty
//   - UpdatedAt must not be in the future
//
// NOT validated:
//   - CreatedAt (populated by the repository on insert)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyID)
	}

	if doc.Title == "" && doc.Body == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if !IsValidTimestamp(doc.UpdatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp reports whether a timestamp is zero or not in the future.
// A small clock-skew allowance is applied.
func IsValidTimestamp(ts time.Time) bool {
	if ts.IsZero() {
		return true
	}
	return !ts.After(time.Now().Add(time.Minute))
}
