// Copyright 2025 Nexfix Labs
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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ContentHash must not be empty
//   - Manufacturer must not be empty
//
// NOT validated (populated by stages):
//   - PageCount (0 until extraction runs)
//   - StageStatus entries (orchestrator-owned)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.ContentHash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContentHash)
	}
	if doc.Manufacturer == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyManufacturer)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - PageNumber must be >= 1
//
// NOT validated:
//   - TextHash (derived by the extractor)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}
	if chunk.PageNumber < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidPageNumber)
	}
	return nil
}

// ValidateErrorCode validates an ErrorCode according to domain rules.
//
// Validation rules:
//   - Code must not be empty
//   - Confidence must be in [0,1]
//   - a category row must not carry a ParentCode (no two-level categories)
//
// NOT validated:
//   - ParentCode referential integrity (weak reference, dangling is allowed)
//   - ChunkId (weak reference)
func ValidateErrorCode(code *ErrorCode) error {
	if code == nil {
		return fmt.Errorf("%w: error code is nil", ErrInvalidErrorCode)
	}
	if code.Code == "" {
		return fmt.Errorf("%w: %w", ErrInvalidErrorCode, ErrEmptyCode)
	}
	if code.Confidence < 0 || code.Confidence > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidErrorCode, ErrConfidenceOutOfRange)
	}
	if code.IsCategory && code.ParentCode != "" {
		return fmt.Errorf("%w: %w", ErrInvalidErrorCode, ErrCategoryWithParent)
	}
	return nil
}

// ValidateImage validates an Image according to domain rules.
//
// Validation rules:
//   - PageNumber must be >= 1
//   - AIConfidence must be in [0,1]
func ValidateImage(img *Image) error {
	if img == nil {
		return fmt.Errorf("%w: image is nil", ErrInvalidImage)
	}
	if img.PageNumber < 1 {
		return fmt.Errorf("%w: %w", ErrInvalidImage, ErrInvalidPageNumber)
	}
	if img.AIConfidence < 0 || img.AIConfidence > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidImage, ErrConfidenceOutOfRange)
	}
	return nil
}
