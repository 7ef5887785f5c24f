package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{
		backend: backend,
	}, nil
}

// Close releases resources. DocumentRepository has no resources to release.
func (r *DocumentRepository) Close() error {
	return nil
}

// AddDocument adds a document to storage.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// The content-hash index doubles as a uniqueness check
		hashKey := makeDocumentHashKey(doc.ContentHash)
		if _, err := tx.Get(hashKey); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		doc.InsertedAt = time.Now().UTC()
		doc.UpdatedAt = doc.InsertedAt

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(makeDocumentKey(doc.Id), value); err != nil {
			return err
		}
		if err := tx.Set(hashKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return doc, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
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

// GetDocumentByHash retrieves a document by its content hash.
func (r *DocumentRepository) GetDocumentByHash(ctx context.Context, contentHash string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentHashKey(contentHash))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readDocument(tx, makeDocumentKey(id))
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

// ListDocuments retrieves all documents.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	return r.list(func(*core.Document) bool { return true })
}

// ListDocumentsByManufacturer retrieves documents for one manufacturer.
// Manufacturer comparison is case-insensitive.
func (r *DocumentRepository) ListDocumentsByManufacturer(ctx context.Context, manufacturer string) ([]*core.Document, error) {
	want := strings.ToLower(strings.TrimSpace(manufacturer))
	return r.list(func(doc *core.Document) bool {
		return strings.ToLower(doc.Manufacturer) == want
	})
}

// UpdateStageState persists a stage-status transition for a document.
func (r *DocumentRepository) UpdateStageState(ctx context.Context, id core.ID, stage core.Stage, state core.StageState, reason string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if doc.StageStatus == nil {
			doc.StageStatus = make(map[core.Stage]core.StageState)
		}
		doc.StageStatus[stage] = state

		if doc.StageReasons == nil {
			doc.StageReasons = make(map[core.Stage]string)
		}
		if reason != "" {
			doc.StageReasons[stage] = reason
		} else {
			// A clean transition clears any stale failure reason
			delete(doc.StageReasons, stage)
		}

		doc.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SetPageCount records the page count discovered during extraction.
func (r *DocumentRepository) SetPageCount(ctx context.Context, id core.ID, pages int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		doc.PageCount = pages
		doc.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (r *DocumentRepository) list(keep func(*core.Document) bool) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			}); err != nil {
				return err
			}
			if doc != nil && keep(doc) {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Document) int {
		return strings.Compare(a.Filename, b.Filename)
	})
	return results, nil
}

// readDocument reads a document from the transaction.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
