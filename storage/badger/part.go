package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// PartRepository implements storage.PartRepository for BadgerDB.
type PartRepository struct {
	backend *Backend
}

var _ storage.PartRepository = (*PartRepository)(nil)

// NewPartRepository creates a new PartRepository.
func NewPartRepository(backend *Backend) (*PartRepository, error) {
	return &PartRepository{
		backend: backend,
	}, nil
}

// Close releases resources. PartRepository has no resources to release.
func (r *PartRepository) Close() error {
	return nil
}

// UpsertPart inserts or merges a part row keyed by (document, number).
// On merge the confidence only rises and the first chunk link sticks.
func (r *PartRepository) UpsertPart(ctx context.Context, part *core.Part) (*core.Part, error) {
	var result *core.Part
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePartKey(part.Id)
		existing, err := readPart(tx, key)
		if err != nil {
			return err
		}

		if existing == nil {
			part.InsertedAt = time.Now().UTC()
			result = part
		} else {
			if part.Confidence > existing.Confidence {
				existing.Confidence = part.Confidence
			}
			if existing.ChunkId == 0 {
				existing.ChunkId = part.ChunkId
			}
			if existing.Description == "" {
				existing.Description = part.Description
			}
			result = existing
		}

		value, err := storage.MarshalPart(result)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makePartDocKey(result.DocumentId, result.PartNumber), storage.MarshalID(result.Id)); err != nil {
			return err
		}
		if err := tx.Set(makePartLookupKey(result.PartNumber, result.Id), storage.MarshalID(result.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return result, err
}

// GetParts retrieves all parts of a document ordered by part number.
func (r *PartRepository) GetParts(ctx context.Context, documentId core.ID) ([]*core.Part, error) {
	return r.collect(makePartialPartDocKey(documentId))
}

// FindByPartNumber retrieves all rows matching a part number across documents.
func (r *PartRepository) FindByPartNumber(ctx context.Context, number string) ([]*core.Part, error) {
	return r.collect(makePartialPartLookupKey(number))
}

func (r *PartRepository) collect(startKey []byte) ([]*core.Part, error) {
	var results []*core.Part
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			part, err := readPart(tx, makePartKey(id))
			if err != nil {
				return err
			}
			if part != nil {
				results = append(results, part)
			}
		}
		return nil
	}, false)

	return results, err
}

// readPart reads a part from the transaction.
func readPart(tx *badger.Txn, key []byte) (*core.Part, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var part *core.Part
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		part, unmarshalErr = storage.UnmarshalPart(val)
		return unmarshalErr
	})
	return part, err
}
