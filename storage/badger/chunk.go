package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// ReplaceChunks atomically replaces all chunks of a document.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentId core.ID, chunks []*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Drop the previous extraction first. Chunk IDs are position-derived,
		// so a shrunken re-extraction would otherwise leave tail chunks behind.
		if err := deleteChunks(tx, documentId); err != nil {
			return err
		}

		for _, chunk := range chunks {
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}

			chunk.InsertedAt = time.Now().UTC()

			value, err := storage.MarshalChunk(chunk)
			if err != nil {
				return err
			}
			if err := tx.Set(makeChunkKey(chunk.Id), value); err != nil {
				return err
			}

			ordinalKey := makeChunkOrdinalKey(documentId, chunk.Ordinal)
			if err := tx.Set(ordinalKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChunks retrieves all chunks of a document ordered by ordinal.
func (r *ChunkRepository) GetChunks(ctx context.Context, documentId core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialChunkOrdinalKey(documentId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := readChunk(tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	return results, err
}

// CountChunks reports the number of chunks stored for a document.
func (r *ChunkRepository) CountChunks(ctx context.Context, documentId core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialChunkOrdinalKey(documentId)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}
			count++
		}
		return nil
	}, false)
	return count, err
}

// deleteChunks removes all chunk records and ordinal index entries of a
// document within the transaction.
func deleteChunks(tx *badger.Txn, documentId core.ID) error {
	startKey := makePartialChunkOrdinalKey(documentId)
	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()

	var indexKeys [][]byte
	var chunkIDs []core.ID
	for iter.Seek(startKey); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
			break
		}

		var chunkID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			chunkID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}
		indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
		chunkIDs = append(chunkIDs, chunkID)
	}

	for _, key := range indexKeys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	for _, id := range chunkIDs {
		if err := tx.Delete(makeChunkKey(id)); err != nil {
			return err
		}
	}
	return nil
}

// readChunk reads a chunk from the transaction.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}
