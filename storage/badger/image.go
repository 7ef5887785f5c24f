package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// ImageRepository implements storage.ImageRepository for BadgerDB.
type ImageRepository struct {
	backend *Backend
}

var _ storage.ImageRepository = (*ImageRepository)(nil)

// NewImageRepository creates a new ImageRepository.
func NewImageRepository(backend *Backend) (*ImageRepository, error) {
	return &ImageRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ImageRepository has no resources to release.
func (r *ImageRepository) Close() error {
	return nil
}

// ReplaceImages atomically replaces all images of a document.
func (r *ImageRepository) ReplaceImages(ctx context.Context, documentId core.ID, images []*core.Image) ([]*core.Image, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteImages(tx, documentId); err != nil {
			return err
		}

		for _, img := range images {
			if err := core.ValidateImage(img); err != nil {
				return err
			}

			img.InsertedAt = time.Now().UTC()
			img.UpdatedAt = img.InsertedAt

			value, err := storage.MarshalImage(img)
			if err != nil {
				return err
			}
			if err := tx.Set(makeImageKey(img.Id), value); err != nil {
				return err
			}

			docKey := makeImageDocKey(documentId, img.PageNumber, img.Index)
			if err := tx.Set(docKey, storage.MarshalID(img.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return images, err
}

// GetImage retrieves a single image by ID.
func (r *ImageRepository) GetImage(ctx context.Context, id core.ID) (*core.Image, error) {
	var result *core.Image
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readImage(tx, makeImageKey(id))
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

// GetImages retrieves all images of a document ordered by page then index.
func (r *ImageRepository) GetImages(ctx context.Context, documentId core.ID) ([]*core.Image, error) {
	var results []*core.Image
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialImageDocKey(documentId)
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

			img, err := readImage(tx, makeImageKey(id))
			if err != nil {
				return err
			}
			if img != nil {
				results = append(results, img)
			}
		}
		return nil
	}, false)

	return results, err
}

// UpdateAnalysis records the vision result (or its fallback) for an image.
func (r *ImageRepository) UpdateAnalysis(ctx context.Context, id core.ID, description string, tags []string, confidence float32) error {
	return r.update(id, func(img *core.Image) {
		img.AIDescription = description
		img.AITags = tags
		img.AIConfidence = confidence
	})
}

// UpdateFigureLink records a resolved figure reference.
func (r *ImageRepository) UpdateFigureLink(ctx context.Context, id core.ID, figureNumber, figureContext string, chunkId core.ID) error {
	return r.update(id, func(img *core.Image) {
		img.FigureNumber = figureNumber
		img.FigureContext = figureContext
		img.ChunkId = chunkId
	})
}

func (r *ImageRepository) update(id core.ID, mutate func(*core.Image)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeImageKey(id)
		img, err := readImage(tx, key)
		if err != nil {
			return err
		}
		if img == nil {
			return storage.ErrNotFound
		}

		mutate(img)
		img.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalImage(img)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// deleteImages removes all image records and index entries of a document
// within the transaction.
func deleteImages(tx *badger.Txn, documentId core.ID) error {
	startKey := makePartialImageDocKey(documentId)
	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()

	var indexKeys [][]byte
	var imageIDs []core.ID
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
		indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
		imageIDs = append(imageIDs, id)
	}

	for _, key := range indexKeys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	for _, id := range imageIDs {
		if err := tx.Delete(makeImageKey(id)); err != nil {
			return err
		}
	}
	return nil
}

// readImage reads an image from the transaction.
func readImage(tx *badger.Txn, key []byte) (*core.Image, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var img *core.Image
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		img, unmarshalErr = storage.UnmarshalImage(val)
		return unmarshalErr
	})
	return img, err
}
