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


// Package reindex re-embeds every stored chunk, for use after an embedding
// model change. Unlike the incremental index stage, it rewrites all
// Embedding rows unconditionally, tagging them with the new model name.
package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nexfix/manualbase/ai"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// Config holds configuration for one reindex run.
type Config struct {
	// Model is the name recorded on every rewritten embedding.
	Model string

	// BatchSize is the number of chunks per embedding call.
	BatchSize int

	// ReportInterval is how often progress is reported, in chunks.
	ReportInterval int

	// MaxRetries bounds retry attempts per batch.
	MaxRetries int

	// RetryDelay is the initial backoff delay between retries.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults. The model name
// still has to be set by the caller.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer rewrites all chunk embeddings with a new model.
type Reindexer struct {
	embeddings storage.EmbeddingRepository
	embedder   ai.Embedder
	iterator   *ChunkIterator
	config     *Config
	progress   io.Writer
}

// NewReindexer creates a reindexer. Progress output goes to progress,
// typically os.Stderr.
func NewReindexer(docs storage.DocumentRepository, chunks storage.ChunkRepository, embeddings storage.EmbeddingRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reindexer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reindexer{
		embeddings: embeddings,
		embedder:   embedder,
		iterator:   NewChunkIterator(docs, chunks, config.BatchSize),
		config:     config,
		progress:   progress,
	}
}

// Run re-embeds every chunk in the database.
func (r *Reindexer) Run(ctx context.Context) error {
	total, err := r.iterator.Count(ctx)
	if err != nil {
		return fmt.Errorf("reindex: counting chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintln(r.progress, "No chunks to reindex")
		return nil
	}

	fmt.Fprintf(r.progress, "Reindexing %d chunks with model %q (batch size: %d)\n",
		total, r.config.Model, r.config.BatchSize)
	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)

	err = r.iterator.ForEach(ctx, func(chunks []*core.Chunk) error {
		if err := r.processBatch(ctx, chunks); err != nil {
			return err
		}
		tracker.Add(len(chunks))
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete: %d chunks in %v (%.1f chunks/s)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())
	return nil
}

// processBatch embeds one batch with bounded retries and overwrites the
// chunks' embedding rows.
func (r *Reindexer) processBatch(ctx context.Context, chunks []*core.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	operation := func() error {
		vs, err := r.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(vs) != len(texts) {
			return backoff.Permanent(fmt.Errorf("embedder returned %d vectors for %d texts", len(vs), len(texts)))
		}
		vectors = vs
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.RetryDelay
	policy := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(r.config.MaxRetries))
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("reindex: embedding batch after %d retries: %w", r.config.MaxRetries, err)
	}

	for i, chunk := range chunks {
		emb := &core.Embedding{
			ChunkId:    chunk.Id,
			DocumentId: chunk.DocumentId,
			Vector:     vectors[i],
			TextHash:   chunk.TextHash,
			Model:      r.config.Model,
		}
		if err := r.embeddings.PutEmbedding(ctx, emb); err != nil {
			return fmt.Errorf("reindex: storing embedding for chunk %d: %w", chunk.Id, err)
		}
	}
	return nil
}
