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


package ai

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the embedding capability is used
// without a configured credential.
var ErrNotConfigured = errors.New("embedding provider not configured")

// GenerationError indicates that an embedding call failed for a specific
// input. Transport failures, missing responses, and malformed response
// shapes are all reported through this one type.
type GenerationError struct {
	Reason string
	Err    error
}

// NewGenerationError creates a GenerationError with the given reason and
// optional underlying cause.
func NewGenerationError(reason string, err error) *GenerationError {
	return &GenerationError{Reason: reason, Err: err}
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding generation failed: %s: %v", e.Reason, e.Err)
	}
	return "embedding generation failed: " + e.Reason
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError reports whether err is (or wraps) a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
