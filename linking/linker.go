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


// Package linking connects images and error codes to the text chunks that
// mention them. Links are weak references: once set they are never
// overridden, and a missing link is a valid terminal state.
package linking

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
)

// figurePattern matches references like "Figure 4-2", "Fig. 12" or
// "figure 3.1a" in manual prose.
var figurePattern = regexp.MustCompile(`(?i)\b(?:figure|fig\.?)\s+([0-9]+(?:[-.][0-9A-Za-z]+)*)`)

// Config controls the linker.
type Config struct {
	// PageWindow is how many pages either side of an image's page are
	// searched for figure references. 0 restricts to the image's own page.
	PageWindow int

	// Logger receives linking diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Summary reports how many links one pass created.
type Summary struct {
	FigureLinks int
	CodeLinks   int
}

// figureRef is one "Figure N" occurrence found in a chunk.
type figureRef struct {
	chunkId  core.ID
	number   string
	sentence string
}

// Linker resolves figure references for images and back-links error codes
// to the chunks that mention them.
type Linker struct {
	chunkRepo storage.ChunkRepository
	imageRepo storage.ImageRepository
	codeRepo  storage.ErrorCodeRepository
	window    int
	logger    *slog.Logger
}

// NewLinker creates a linker over the given repositories.
func NewLinker(chunkRepo storage.ChunkRepository, imageRepo storage.ImageRepository, codeRepo storage.ErrorCodeRepository, cfg Config) *Linker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := cfg.PageWindow
	if window < 0 {
		window = 0
	}
	return &Linker{
		chunkRepo: chunkRepo,
		imageRepo: imageRepo,
		codeRepo:  codeRepo,
		window:    window,
		logger:    logger.With("component", "linking"),
	}
}

// LinkDocument runs both linking passes over a document. The pass is
// idempotent: images and codes that already carry a link are left alone.
func (l *Linker) LinkDocument(ctx context.Context, documentId core.ID) (*Summary, error) {
	chunks, err := l.chunkRepo.GetChunks(ctx, documentId)
	if err != nil {
		return nil, fmt.Errorf("linking: listing chunks: %w", err)
	}

	summary := &Summary{}
	if err := l.linkFigures(ctx, documentId, chunks, summary); err != nil {
		return nil, err
	}
	if err := l.linkCodes(ctx, documentId, chunks, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// linkFigures assigns figure references to images. References are consumed
// in page-then-chunk order so two images on one page pick up distinct
// figures.
func (l *Linker) linkFigures(ctx context.Context, documentId core.ID, chunks []*core.Chunk, summary *Summary) error {
	images, err := l.imageRepo.GetImages(ctx, documentId)
	if err != nil {
		return fmt.Errorf("linking: listing images: %w", err)
	}
	if len(images) == 0 {
		return nil
	}

	refsByPage := make(map[int][]figureRef)
	for _, chunk := range chunks {
		for _, loc := range figurePattern.FindAllStringSubmatchIndex(chunk.Text, -1) {
			refsByPage[chunk.PageNumber] = append(refsByPage[chunk.PageNumber], figureRef{
				chunkId:  chunk.Id,
				number:   chunk.Text[loc[2]:loc[3]],
				sentence: sentenceAround(chunk.Text, loc[0], loc[1]),
			})
		}
	}

	consumed := make(map[*figureRef]bool)
	for _, img := range images {
		if img.FigureNumber != "" {
			continue
		}
		ref := l.nextReference(refsByPage, img.PageNumber, consumed)
		if ref == nil {
			continue
		}
		consumed[ref] = true
		if err := l.imageRepo.UpdateFigureLink(ctx, img.Id, ref.number, ref.sentence, ref.chunkId); err != nil {
			return fmt.Errorf("linking: figure link for image %d: %w", img.Id, err)
		}
		l.logger.Debug("linked figure reference", "image", img.Id, "figure", ref.number)
		summary.FigureLinks++
	}
	return nil
}

// nextReference picks the first unconsumed reference on the image's page,
// then widens to neighboring pages up to the window.
func (l *Linker) nextReference(refsByPage map[int][]figureRef, page int, consumed map[*figureRef]bool) *figureRef {
	for distance := 0; distance <= l.window; distance++ {
		candidates := []int{page + distance}
		if distance > 0 {
			candidates = []int{page - distance, page + distance}
		}
		for _, p := range candidates {
			refs := refsByPage[p]
			for i := range refs {
				if !consumed[&refs[i]] {
					return &refs[i]
				}
			}
		}
	}
	return nil
}

// linkCodes back-links each unlinked error code to the first chunk, in
// document order, that mentions it verbatim. Category placeholders are
// skipped: bare prefixes like "13" match far too much unrelated text.
func (l *Linker) linkCodes(ctx context.Context, documentId core.ID, chunks []*core.Chunk, summary *Summary) error {
	codes, err := l.codeRepo.GetErrorCodes(ctx, documentId)
	if err != nil {
		return fmt.Errorf("linking: listing error codes: %w", err)
	}

	for _, code := range codes {
		if code.ChunkId != 0 || code.IsCategory {
			continue
		}
		for _, chunk := range chunks {
			if !strings.Contains(chunk.Text, code.Code) {
				continue
			}
			if err := l.codeRepo.SetChunkLink(ctx, code.Id, chunk.Id); err != nil {
				return fmt.Errorf("linking: chunk link for code %q: %w", code.Code, err)
			}
			summary.CodeLinks++
			break
		}
	}
	return nil
}

// sentenceAround returns the sentence containing [start, end) within text.
func sentenceAround(text string, start, end int) string {
	from := start
	for from > 0 {
		c := text[from-1]
		if c == '.' || c == '!' || c == '?' || c == '\n' {
			break
		}
		from--
	}
	to := end
	for to < len(text) {
		c := text[to]
		to++
		if c == '.' || c == '!' || c == '?' || c == '\n' {
			break
		}
	}
	return strings.TrimSpace(text[from:to])
}
