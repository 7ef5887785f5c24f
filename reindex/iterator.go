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


package reindex

import (
	"context"

	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// DefaultBatchSize is the default number of chunks per batch.
const DefaultBatchSize = 100

// ChunkIterator walks every chunk of every document in batches.
type ChunkIterator struct {
	docs      storage.DocumentRepository
	chunks    storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates an iterator with the given batch size.
// A non-positive batch size uses DefaultBatchSize.
func NewChunkIterator(docs storage.DocumentRepository, chunks storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{docs: docs, chunks: chunks, batchSize: batchSize}
}

// Count reports the total number of chunks across all documents.
func (it *ChunkIterator) Count(ctx context.Context) (int, error) {
	docs, err := it.docs.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, doc := range docs {
		n, err := it.chunks.CountChunks(ctx, doc.Id)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// ForEach calls fn for successive batches of chunks. Batches may span
// document boundaries. The batch slice is reused between calls; fn must not
// retain it. Iteration stops on the first error from fn; context
// cancellation is checked between batches.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	docs, err := it.docs.ListDocuments(ctx)
	if err != nil {
		return err
	}

	batch := make([]*core.Chunk, 0, it.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return ctx.Err()
	}

	for _, doc := range docs {
		chunks, err := it.chunks.GetChunks(ctx, doc.Id)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			batch = append(batch, chunk)
			if len(batch) == it.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}
