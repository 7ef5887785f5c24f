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


// Package index computes and searches chunk embeddings.
//
// Embeddings are keyed by chunk and carry the chunk's TextHash and the
// model name; indexing is incremental, touching only chunks whose
// embedding is missing, stale, or was produced by a different model.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nexfix/manualbase/ai"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

const (
	defaultBatchSize = 16
	defaultTimeout   = 60 * time.Second
)

// Config controls the indexer.
type Config struct {
	// BatchSize is how many chunk texts go into one embedding call.
	BatchSize int

	// Timeout bounds each embedding call. 0 uses the default.
	Timeout time.Duration

	// Model is recorded on every embedding so a model switch marks all
	// existing vectors stale.
	Model string

	// Logger receives indexing diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Summary reports one indexing pass over a document.
type Summary struct {
	Embedded int // chunks embedded this pass
	Fresh    int // chunks whose embedding was already current
}

// Indexer embeds document chunks and answers similarity queries.
type Indexer struct {
	embedder  ai.Embedder
	chunkRepo storage.ChunkRepository
	embRepo   storage.EmbeddingRepository
	cfg       Config
	logger    *slog.Logger
}

// NewIndexer creates an indexer over the given repositories.
func NewIndexer(embedder ai.Embedder, chunkRepo storage.ChunkRepository, embRepo storage.EmbeddingRepository, cfg Config) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		embedder:  embedder,
		chunkRepo: chunkRepo,
		embRepo:   embRepo,
		cfg:       cfg,
		logger:    logger.With("component", "index"),
	}
}

// IndexDocument embeds every chunk of a document whose stored embedding is
// missing, has a stale TextHash, or was produced by another model. Writes
// are per-chunk upserts, so an interrupted pass resumes where it stopped.
func (ix *Indexer) IndexDocument(ctx context.Context, documentId core.ID) (*Summary, error) {
	chunks, err := ix.chunkRepo.GetChunks(ctx, documentId)
	if err != nil {
		return nil, fmt.Errorf("index: listing chunks: %w", err)
	}

	summary := &Summary{}
	var pending []*core.Chunk
	for _, chunk := range chunks {
		stale, err := ix.needsEmbedding(ctx, chunk)
		if err != nil {
			return nil, err
		}
		if stale {
			pending = append(pending, chunk)
		} else {
			summary.Fresh++
		}
	}
	if len(pending) == 0 {
		return summary, nil
	}
	ix.logger.Info("embedding chunks", "document", documentId, "pending", len(pending), "fresh", summary.Fresh)

	for start := 0; start < len(pending); start += ix.cfg.BatchSize {
		end := start + ix.cfg.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}
		vectors, err := ix.embedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("index: embedding batch %d-%d: %w", start, end, err)
		}

		for i, chunk := range batch {
			emb := &core.Embedding{
				ChunkId:    chunk.Id,
				DocumentId: chunk.DocumentId,
				Vector:     vectors[i],
				TextHash:   chunk.TextHash,
				Model:      ix.cfg.Model,
			}
			if err := ix.embRepo.PutEmbedding(ctx, emb); err != nil {
				return nil, fmt.Errorf("index: storing embedding for chunk %d: %w", chunk.Id, err)
			}
			summary.Embedded++
		}
	}
	return summary, nil
}

// Search finds chunks similar to the query vector, ordered by score.
func (ix *Indexer) Search(ctx context.Context, vector []float32, minSimilarity float32, topK int) ([]*core.ChunkMatch, error) {
	return ix.embRepo.FindSimilar(ctx, vector, minSimilarity, topK)
}

// SearchText embeds the query text and searches with the resulting vector.
func (ix *Indexer) SearchText(ctx context.Context, query string, minSimilarity float32, topK int) ([]*core.ChunkMatch, error) {
	vector, err := ix.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("index: embedding query: %w", err)
	}
	return ix.Search(ctx, vector, minSimilarity, topK)
}

func (ix *Indexer) needsEmbedding(ctx context.Context, chunk *core.Chunk) (bool, error) {
	existing, err := ix.embRepo.GetEmbedding(ctx, chunk.Id)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("index: reading embedding for chunk %d: %w", chunk.Id, err)
	}
	return existing.TextHash != chunk.TextHash || existing.Model != ix.cfg.Model, nil
}

// embedBatch calls the embedder with a per-call timeout, retrying transient
// failures with exponential backoff. Context cancellation is permanent.
func (ix *Indexer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, ix.cfg.Timeout)
		defer cancel()

		vs, err := ix.embedder.EmbedTexts(callCtx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			ix.logger.Warn("embedding call failed, will retry", "batch", len(texts), "err", err)
			return err
		}
		if len(vs) != len(texts) {
			return backoff.Permanent(fmt.Errorf("embedder returned %d vectors for %d texts", len(vs), len(texts)))
		}
		vectors = vs
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 2 * time.Minute

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return vectors, nil
}
