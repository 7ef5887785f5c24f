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


package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nexfix/manualbase/core"
	"github.com/tsawler/tabula/reader"
	pdftext "github.com/tsawler/tabula/text"
)

// ErrNoExtractableText indicates a document produced no text at all,
// which fails the extraction stage.
var ErrNoExtractableText = errors.New("extract: document contains no extractable text")

const (
	defaultChunkSize = 1800 // characters per chunk, before boundary snapping
	minImageDim      = 32   // pixels; smaller images are decorations
)

// Config controls text and image extraction.
type Config struct {
	// MaxTextPages caps how many pages are processed. 0 means all pages.
	MaxTextPages int

	// ChunkSize is the target chunk length in characters. Chunks are split
	// at paragraph boundaries, so actual sizes vary. 0 uses the default.
	ChunkSize int

	// Logger receives per-page diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Extraction is the result of extracting one document.
type Extraction struct {
	PageCount int
	Chunks    []*core.Chunk
	Images    []*core.Image
}

// Extractor turns a PDF service manual into ordered text chunks and
// embedded page images.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// NewExtractor creates an extractor with the given configuration.
func NewExtractor(cfg Config) *Extractor {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		cfg:    cfg,
		logger: logger.With("component", "extractor"),
	}
}

// ExtractFile extracts chunks and images from the PDF at path. Chunk and
// image IDs are derived from documentId and their position, so re-running
// extraction yields identical IDs.
//
// Returns ErrNoExtractableText when no page yields any text; a page that
// fails to parse is logged and skipped.
func (e *Extractor) ExtractFile(ctx context.Context, path string, documentId core.ID) (*Extraction, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("extract: opening %s: %w", path, err)
	}
	defer r.Close()

	pageCount, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("extract: reading page count: %w", err)
	}

	pagesToRead := pageCount
	if e.cfg.MaxTextPages > 0 && e.cfg.MaxTextPages < pagesToRead {
		e.logger.Info("capping extraction", "pages", pageCount, "cap", e.cfg.MaxTextPages)
		pagesToRead = e.cfg.MaxTextPages
	}

	result := &Extraction{PageCount: pageCount}
	ordinal := 0

	for i := 0; i < pagesToRead; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageNumber := i + 1
		page, err := r.GetPage(i)
		if err != nil {
			e.logger.Warn("skipping unreadable page", "page", pageNumber, "err", err)
			continue
		}

		fragments, err := r.ExtractTextFragments(page)
		if err != nil {
			e.logger.Warn("skipping page text", "page", pageNumber, "err", err)
		} else {
			pageText := assemblePageText(fragments)
			for _, text := range splitIntoChunks(pageText, e.cfg.ChunkSize) {
				result.Chunks = append(result.Chunks, &core.Chunk{
					Id:         core.ChunkID(documentId, pageNumber, ordinal),
					DocumentId: documentId,
					PageNumber: pageNumber,
					Ordinal:    ordinal,
					Text:       text,
					TextHash:   core.IDFromContent(text),
				})
				ordinal++
			}
		}

		images, err := r.ExtractPageImages(page)
		if err != nil {
			e.logger.Warn("skipping page images", "page", pageNumber, "err", err)
			continue
		}
		index := 0
		for j := range images {
			img := &images[j]
			if img.Width < minImageDim || img.Height < minImageDim {
				continue
			}
			png, err := img.ToPNG()
			if err != nil {
				e.logger.Warn("skipping undecodable image", "page", pageNumber, "name", img.Name, "err", err)
				continue
			}
			result.Images = append(result.Images, &core.Image{
				Id:         core.ImageID(documentId, pageNumber, index),
				DocumentId: documentId,
				PageNumber: pageNumber,
				Index:      index,
				Data:       png,
			})
			index++
		}
	}

	if len(result.Chunks) == 0 {
		return nil, ErrNoExtractableText
	}

	e.logger.Info("extraction complete",
		"pages", pageCount,
		"chunks", len(result.Chunks),
		"images", len(result.Images))
	return result, nil
}

// assemblePageText joins positioned text fragments into readable page text.
// Fragments arrive in content-stream order; a large vertical jump between
// consecutive fragments starts a new line.
func assemblePageText(fragments []pdftext.TextFragment) string {
	var b strings.Builder
	var lastY float64
	for i, frag := range fragments {
		text := strings.TrimSpace(frag.Text)
		if text == "" {
			continue
		}
		if i > 0 {
			if dy := lastY - frag.Y; dy > frag.Height*1.5 || dy < -frag.Height*1.5 {
				b.WriteString("\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(text)
		lastY = frag.Y
	}
	return strings.TrimSpace(b.String())
}

// splitIntoChunks breaks page text into chunks of roughly size characters,
// splitting at line boundaries. A single line longer than size becomes its
// own chunk rather than being cut mid-sentence.
func splitIntoChunks(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(line)+1 > size {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
