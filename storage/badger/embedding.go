package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	return &EmbeddingRepository{
		backend: backend,
	}, nil
}

// Close releases resources. EmbeddingRepository has no resources to release.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// PutEmbedding stores or overwrites the embedding for a chunk.
func (r *EmbeddingRepository) PutEmbedding(ctx context.Context, emb *core.Embedding) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		emb.UpdatedAt = time.Now().UTC()
		if emb.InsertedAt.IsZero() {
			emb.InsertedAt = emb.UpdatedAt
		}

		value, err := storage.MarshalEmbedding(emb)
		if err != nil {
			return err
		}
		if err := tx.Set(makeEmbeddingKey(emb.ChunkId), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEmbedding retrieves the embedding for a chunk.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, chunkId core.ID) (*core.Embedding, error) {
	var result *core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(chunkId))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalEmbedding(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// FindSimilar finds chunks whose embeddings are similar to the given vector.
// Performs a full scan of stored embeddings and scores each with a dot
// product (cosine similarity for normalized vectors).
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkMatch, error) {
	var results []*core.ChunkMatch

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var emb *core.Embedding
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				emb, err = storage.UnmarshalEmbedding(val)
				return err
			}); err != nil {
				return err
			}
			if emb == nil || len(emb.Vector) == 0 {
				continue
			}

			similarity := dotProduct(vector, emb.Vector)
			if similarity < minSimilarity {
				continue
			}

			chunk, err := readChunk(tx, makeChunkKey(emb.ChunkId))
			if err != nil {
				return err
			}
			if chunk == nil {
				// Embedding outlived its chunk after a re-extraction; skip it
				continue
			}

			results = append(results, &core.ChunkMatch{
				Chunk: chunk,
				Score: similarity,
			})
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
