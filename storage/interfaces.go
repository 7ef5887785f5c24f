package storage

import (
	"context"

	"github.com/nexfix/manualbase/core"
)

// DocumentRepository provides operations for managing document records.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocument adds a document to storage. The document ID must already be
	// derived from its content hash. Returns ErrDuplicateKey if a document
	// with the same content hash exists.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentByHash retrieves a document by its content hash.
	// Returns ErrNotFound if no document with that hash exists.
	GetDocumentByHash(ctx context.Context, contentHash string) (*core.Document, error)

	// ListDocuments retrieves all documents.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// ListDocumentsByManufacturer retrieves documents for one manufacturer.
	ListDocumentsByManufacturer(ctx context.Context, manufacturer string) ([]*core.Document, error)

	// UpdateStageState persists a stage-status transition for a document.
	// A non-empty reason is recorded alongside (used for failed stages).
	UpdateStageState(ctx context.Context, id core.ID, stage core.Stage, state core.StageState, reason string) error

	// SetPageCount records the page count discovered during extraction.
	SetPageCount(ctx context.Context, id core.ID, pages int) error

	// Close releases resources held by the repository.
	Close() error
}

// ChunkRepository provides operations for managing text chunks.
type ChunkRepository interface {
	// ReplaceChunks atomically replaces all chunks of a document with the
	// given set. Chunk IDs are position-derived, so re-extraction overwrites
	// rather than duplicates. Timestamps are populated on the way in.
	ReplaceChunks(ctx context.Context, documentId core.ID, chunks []*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves all chunks of a document ordered by ordinal.
	GetChunks(ctx context.Context, documentId core.ID) ([]*core.Chunk, error)

	// CountChunks reports the number of chunks stored for a document.
	CountChunks(ctx context.Context, documentId core.ID) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// ErrorCodeRepository provides operations for managing extracted error codes.
type ErrorCodeRepository interface {
	// UpsertErrorCode inserts or merges an error code row. The row identity
	// is (document, code string); on merge the confidence only ever rises
	// (monotonic max) and an already-set chunk link is preserved.
	UpsertErrorCode(ctx context.Context, code *core.ErrorCode) (*core.ErrorCode, error)

	// EnsureCategory guarantees a category row (IsCategory=true, no parent)
	// exists for the given code string. Existing rows are left untouched.
	EnsureCategory(ctx context.Context, documentId core.ID, code string) (*core.ErrorCode, error)

	// GetErrorCode retrieves a single error code by ID.
	// Returns ErrNotFound if it doesn't exist.
	GetErrorCode(ctx context.Context, id core.ID) (*core.ErrorCode, error)

	// GetErrorCodes retrieves all error codes of a document, categories
	// included, ordered by code string.
	GetErrorCodes(ctx context.Context, documentId core.ID) ([]*core.ErrorCode, error)

	// FindByCode retrieves all rows matching a code string across documents.
	FindByCode(ctx context.Context, code string) ([]*core.ErrorCode, error)

	// SetChunkLink records the chunk that contextually mentions the code.
	// The caller is responsible for the first-match-wins policy.
	SetChunkLink(ctx context.Context, id core.ID, chunkId core.ID) error

	// SetSolutionTranslation stores the translated remediation text.
	SetSolutionTranslation(ctx context.Context, id core.ID, translated string) error

	// Close releases resources held by the repository.
	Close() error
}

// ImageRepository provides operations for managing extracted images.
type ImageRepository interface {
	// ReplaceImages atomically replaces all images of a document.
	// Image IDs are position-derived like chunk IDs.
	ReplaceImages(ctx context.Context, documentId core.ID, images []*core.Image) ([]*core.Image, error)

	// GetImage retrieves a single image by ID.
	// Returns ErrNotFound if it doesn't exist.
	GetImage(ctx context.Context, id core.ID) (*core.Image, error)

	// GetImages retrieves all images of a document ordered by page then index.
	GetImages(ctx context.Context, documentId core.ID) ([]*core.Image, error)

	// UpdateAnalysis records the vision result (or its fallback) for an image.
	UpdateAnalysis(ctx context.Context, id core.ID, description string, tags []string, confidence float32) error

	// UpdateFigureLink records a resolved figure reference.
	UpdateFigureLink(ctx context.Context, id core.ID, figureNumber, figureContext string, chunkId core.ID) error

	// Close releases resources held by the repository.
	Close() error
}

// EmbeddingRepository provides operations for chunk embeddings and
// vector similarity search.
type EmbeddingRepository interface {
	// PutEmbedding stores or overwrites the embedding for a chunk.
	PutEmbedding(ctx context.Context, emb *core.Embedding) error

	// GetEmbedding retrieves the embedding for a chunk.
	// Returns ErrNotFound if the chunk has no embedding.
	GetEmbedding(ctx context.Context, chunkId core.ID) (*core.Embedding, error)

	// FindSimilar finds chunks whose embeddings are similar to the vector.
	// Returns matches with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkMatch, error)

	// Close releases resources held by the repository.
	Close() error
}

// PartRepository provides operations for managing extracted parts.
type PartRepository interface {
	// UpsertPart inserts or merges a part row keyed by (document, number).
	UpsertPart(ctx context.Context, part *core.Part) (*core.Part, error)

	// GetParts retrieves all parts of a document ordered by part number.
	GetParts(ctx context.Context, documentId core.ID) ([]*core.Part, error)

	// FindByPartNumber retrieves all rows matching a part number across documents.
	FindByPartNumber(ctx context.Context, number string) ([]*core.Part, error)

	// Close releases resources held by the repository.
	Close() error
}
