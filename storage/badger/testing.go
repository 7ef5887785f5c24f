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


package badger

import "errors"

// Repositories bundles all repository implementations sharing one backend.
type Repositories struct {
	Documents  *DocumentRepository
	Chunks     *ChunkRepository
	ErrorCodes *ErrorCodeRepository
	Images     *ImageRepository
	Embeddings *EmbeddingRepository
	Parts      *PartRepository

	backend *Backend
}

// NewRepositories creates all repositories on top of an open backend.
func NewRepositories(backend *Backend) (*Repositories, error) {
	docs, err := NewDocumentRepository(backend)
	if err != nil {
		return nil, err
	}
	chunks, err := NewChunkRepository(backend)
	if err != nil {
		return nil, err
	}
	codes, err := NewErrorCodeRepository(backend)
	if err != nil {
		return nil, err
	}
	images, err := NewImageRepository(backend)
	if err != nil {
		return nil, err
	}
	embeddings, err := NewEmbeddingRepository(backend)
	if err != nil {
		return nil, err
	}
	parts, err := NewPartRepository(backend)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Documents:  docs,
		Chunks:     chunks,
		ErrorCodes: codes,
		Images:     images,
		Embeddings: embeddings,
		Parts:      parts,
		backend:    backend,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close when done.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	repos, err := NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return repos, nil
}

// Close closes all repositories and the shared backend.
func (r *Repositories) Close() error {
	errs := []error{
		r.Documents.Close(),
		r.Chunks.Close(),
		r.ErrorCodes.Close(),
		r.Images.Close(),
		r.Embeddings.Close(),
		r.Parts.Close(),
		r.backend.Close(),
	}
	return errors.Join(errs...)
}
