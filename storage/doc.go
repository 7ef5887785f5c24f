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


// Package storage provides the storage abstraction layer for manualbase.
//
// This package defines repository interfaces that decouple storage
// implementation from pipeline logic, so different backends (BadgerDB,
// in-memory, etc.) can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces to
// enforce abstraction:
//
//	repo, err := badger.NewDocumentRepository(backend)  // storage.DocumentRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Repositories
//
//   - DocumentRepository: document identity, stage status, hash lookup
//   - ChunkRepository: ordered text chunks, replace-on-re-extraction
//   - ErrorCodeRepository: deduplicated codes and categories
//   - ImageRepository: extracted images and their analysis results
//   - EmbeddingRepository: chunk vectors and similarity search
//   - PartRepository: extracted part numbers
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific timeout
// requirements.
package storage
