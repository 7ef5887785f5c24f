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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidErrorCode indicates an ErrorCode failed validation.
	ErrInvalidErrorCode = errors.New("invalid error code")

	// ErrInvalidImage indicates an Image failed validation.
	ErrInvalidImage = errors.New("invalid image")

	// ErrEmptyContentHash indicates the ContentHash field is empty.
	ErrEmptyContentHash = errors.New("content hash cannot be empty")

	// ErrEmptyManufacturer indicates the Manufacturer field is empty.
	ErrEmptyManufacturer = errors.New("manufacturer cannot be empty")

	// ErrEmptyChunkText indicates the chunk Text field is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrEmptyCode indicates the error code string is empty.
	ErrEmptyCode = errors.New("code cannot be empty")

	// ErrCategoryWithParent indicates a category record carries a parent code.
	ErrCategoryWithParent = errors.New("category must not have a parent code")

	// ErrConfidenceOutOfRange indicates a confidence value outside [0,1].
	ErrConfidenceOutOfRange = errors.New("confidence must be in [0,1]")

	// ErrInvalidPageNumber indicates a page number below 1.
	ErrInvalidPageNumber = errors.New("page number must be >= 1")
)
