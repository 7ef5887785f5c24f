package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// ErrorCodeRepository implements storage.ErrorCodeRepository for BadgerDB.
type ErrorCodeRepository struct {
	backend *Backend
}

var _ storage.ErrorCodeRepository = (*ErrorCodeRepository)(nil)

// NewErrorCodeRepository creates a new ErrorCodeRepository.
func NewErrorCodeRepository(backend *Backend) (*ErrorCodeRepository, error) {
	return &ErrorCodeRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ErrorCodeRepository has no resources to release.
func (r *ErrorCodeRepository) Close() error {
	return nil
}

// UpsertErrorCode inserts or merges an error code row.
// Merge policy: confidence only rises, the first chunk link sticks, and
// description/solution fill in when the stored row has none.
func (r *ErrorCodeRepository) UpsertErrorCode(ctx context.Context, code *core.ErrorCode) (*core.ErrorCode, error) {
	if err := core.ValidateErrorCode(code); err != nil {
		return nil, err
	}

	var result *core.ErrorCode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeErrorCodeKey(code.Id)
		existing, err := readErrorCode(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if existing == nil {
			code.InsertedAt = now
			code.UpdatedAt = now
			result = code
		} else {
			if code.Confidence > existing.Confidence {
				existing.Confidence = code.Confidence
			}
			if existing.ChunkId == 0 {
				existing.ChunkId = code.ChunkId
			}
			if existing.Description == "" {
				existing.Description = code.Description
			}
			if existing.Solution == "" {
				existing.Solution = code.Solution
			}
			// An extracted leaf row replaces a placeholder category
			if existing.IsCategory && !code.IsCategory {
				existing.IsCategory = false
				existing.ParentCode = code.ParentCode
			}
			existing.UpdatedAt = now
			result = existing
		}

		value, err := storage.MarshalErrorCode(result)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeErrorDocKey(result.DocumentId, result.Code), storage.MarshalID(result.Id)); err != nil {
			return err
		}
		if err := tx.Set(makeErrorLookupKey(result.Code, result.Id), storage.MarshalID(result.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return result, err
}

// EnsureCategory guarantees a category row exists for the given code string.
func (r *ErrorCodeRepository) EnsureCategory(ctx context.Context, documentId core.ID, code string) (*core.ErrorCode, error) {
	var result *core.ErrorCode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id := core.ErrorCodeID(documentId, code)
		key := makeErrorCodeKey(id)
		existing, err := readErrorCode(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		now := time.Now().UTC()
		result = &core.ErrorCode{
			Id:         id,
			DocumentId: documentId,
			Code:       code,
			IsCategory: true,
			InsertedAt: now,
			UpdatedAt:  now,
		}

		value, err := storage.MarshalErrorCode(result)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeErrorDocKey(documentId, code), storage.MarshalID(id)); err != nil {
			return err
		}
		if err := tx.Set(makeErrorLookupKey(code, id), storage.MarshalID(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return result, err
}

// GetErrorCode retrieves a single error code by ID.
func (r *ErrorCodeRepository) GetErrorCode(ctx context.Context, id core.ID) (*core.ErrorCode, error) {
	var result *core.ErrorCode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readErrorCode(tx, makeErrorCodeKey(id))
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

// GetErrorCodes retrieves all error codes of a document ordered by code string.
func (r *ErrorCodeRepository) GetErrorCodes(ctx context.Context, documentId core.ID) ([]*core.ErrorCode, error) {
	var results []*core.ErrorCode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialErrorDocKey(documentId)
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

			code, err := readErrorCode(tx, makeErrorCodeKey(id))
			if err != nil {
				return err
			}
			if code != nil {
				results = append(results, code)
			}
		}
		return nil
	}, false)

	return results, err
}

// FindByCode retrieves all rows matching a code string across documents.
func (r *ErrorCodeRepository) FindByCode(ctx context.Context, code string) ([]*core.ErrorCode, error) {
	var results []*core.ErrorCode
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialErrorLookupKey(code)
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

			row, err := readErrorCode(tx, makeErrorCodeKey(id))
			if err != nil {
				return err
			}
			if row != nil {
				results = append(results, row)
			}
		}
		return nil
	}, false)

	return results, err
}

// SetChunkLink records the chunk that contextually mentions the code.
func (r *ErrorCodeRepository) SetChunkLink(ctx context.Context, id core.ID, chunkId core.ID) error {
	return r.update(id, func(code *core.ErrorCode) {
		code.ChunkId = chunkId
	})
}

// SetSolutionTranslation stores the translated remediation text.
func (r *ErrorCodeRepository) SetSolutionTranslation(ctx context.Context, id core.ID, translated string) error {
	return r.update(id, func(code *core.ErrorCode) {
		code.SolutionTranslated = translated
	})
}

func (r *ErrorCodeRepository) update(id core.ID, mutate func(*core.ErrorCode)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeErrorCodeKey(id)
		code, err := readErrorCode(tx, key)
		if err != nil {
			return err
		}
		if code == nil {
			return storage.ErrNotFound
		}

		mutate(code)
		code.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalErrorCode(code)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readErrorCode reads an error code from the transaction.
func readErrorCode(tx *badger.Txn, key []byte) (*core.ErrorCode, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var code *core.ErrorCode
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		code, unmarshalErr = storage.UnmarshalErrorCode(val)
		return unmarshalErr
	})
	return code, err
}
