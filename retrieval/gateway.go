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


// Package retrieval is the read side of the pipeline: structured lookups by
// error code, part number, or manufacturer, plus vector search over chunks.
// Every result names the operation that produced it, so downstream
// consumers can cite where an answer came from.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// Provenance values attached to gateway results.
const (
	ProvenanceErrorCodeLookup    = "error_code_lookup"
	ProvenancePartLookup         = "part_lookup"
	ProvenanceManufacturerLookup = "manufacturer_lookup"
	ProvenanceVectorSearch       = "vector_search"
)

const (
	defaultTopK          = 10
	defaultMinSimilarity = 0.3
)

// ChunkSearcher answers text queries with scored chunk matches.
// index.Indexer satisfies it.
type ChunkSearcher interface {
	SearchText(ctx context.Context, query string, minSimilarity float32, topK int) ([]*core.ChunkMatch, error)
}

// ErrorCodeResult is one error-code hit with its document and, when linked,
// the chunk that mentions it.
type ErrorCodeResult struct {
	Provenance string
	Code       *core.ErrorCode
	Document   *core.Document
	Chunk      *core.Chunk // nil when the code has no surviving chunk link
}

// PartResult is one part-number hit.
type PartResult struct {
	Provenance string
	Part       *core.Part
	Document   *core.Document
}

// DocumentResult is one manufacturer-lookup hit.
type DocumentResult struct {
	Provenance string
	Document   *core.Document
}

// ChunkResult is one vector-search hit.
type ChunkResult struct {
	Provenance string
	Chunk      *core.Chunk
	Score      float32
	Document   *core.Document
}

// SearchOptions bounds a vector search. Zero values use the defaults.
type SearchOptions struct {
	MinSimilarity float32
	TopK          int
}

// Gateway answers retrieval queries across all ingested documents.
type Gateway struct {
	docs     storage.DocumentRepository
	chunks   storage.ChunkRepository
	codes    storage.ErrorCodeRepository
	parts    storage.PartRepository
	searcher ChunkSearcher
	logger   *slog.Logger
}

// NewGateway creates a gateway over the given repositories and searcher.
func NewGateway(docs storage.DocumentRepository, chunks storage.ChunkRepository, codes storage.ErrorCodeRepository, parts storage.PartRepository, searcher ChunkSearcher, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		docs:     docs,
		chunks:   chunks,
		codes:    codes,
		parts:    parts,
		searcher: searcher,
		logger:   logger.With("component", "retrieval"),
	}
}

// LookupErrorCode finds every document's entry for a code string. Results
// include the source chunk when a link exists and still resolves; an
// orphaned link degrades to a nil chunk, never an error.
func (g *Gateway) LookupErrorCode(ctx context.Context, code string) ([]*ErrorCodeResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("retrieval: %w: empty code", storage.ErrInvalidQuery)
	}

	rows, err := g.codes.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("retrieval: looking up code %q: %w", code, err)
	}

	results := make([]*ErrorCodeResult, 0, len(rows))
	for _, row := range rows {
		result := &ErrorCodeResult{Provenance: ProvenanceErrorCodeLookup, Code: row}
		result.Document, err = g.docs.GetDocument(ctx, row.DocumentId)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if row.ChunkId != 0 {
			chunk, err := g.chunks.GetChunk(ctx, row.ChunkId)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, err
			}
			result.Chunk = chunk
		}
		results = append(results, result)
	}
	return results, nil
}

// LookupPart finds every document's entry for a part number.
func (g *Gateway) LookupPart(ctx context.Context, number string) ([]*PartResult, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, fmt.Errorf("retrieval: %w: empty part number", storage.ErrInvalidQuery)
	}

	rows, err := g.parts.FindByPartNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("retrieval: looking up part %q: %w", number, err)
	}

	results := make([]*PartResult, 0, len(rows))
	for _, row := range rows {
		result := &PartResult{Provenance: ProvenancePartLookup, Part: row}
		result.Document, err = g.docs.GetDocument(ctx, row.DocumentId)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// LookupManufacturer lists the documents of one manufacturer.
func (g *Gateway) LookupManufacturer(ctx context.Context, manufacturer string) ([]*DocumentResult, error) {
	manufacturer = strings.TrimSpace(manufacturer)
	if manufacturer == "" {
		return nil, fmt.Errorf("retrieval: %w: empty manufacturer", storage.ErrInvalidQuery)
	}

	docs, err := g.docs.ListDocumentsByManufacturer(ctx, manufacturer)
	if err != nil {
		return nil, fmt.Errorf("retrieval: listing manufacturer %q: %w", manufacturer, err)
	}

	results := make([]*DocumentResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, &DocumentResult{Provenance: ProvenanceManufacturerLookup, Document: doc})
	}
	return results, nil
}

// SearchChunks embeds the query and returns similar chunks across all
// documents, best match first.
func (g *Gateway) SearchChunks(ctx context.Context, query string, opts SearchOptions) ([]*ChunkResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("retrieval: %w: empty query", storage.ErrInvalidQuery)
	}
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = defaultMinSimilarity
	}

	matches, err := g.searcher.SearchText(ctx, query, opts.MinSimilarity, opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieval: searching chunks: %w", err)
	}

	results := make([]*ChunkResult, 0, len(matches))
	for _, match := range matches {
		result := &ChunkResult{
			Provenance: ProvenanceVectorSearch,
			Chunk:      match.Chunk,
			Score:      match.Score,
		}
		result.Document, err = g.docs.GetDocument(ctx, match.Chunk.DocumentId)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
