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


// Package codes extracts error codes and part numbers from document chunks
// using per-manufacturer rule sets.
package codes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/rules"
	"github.com/nexfix/manualbase/storage"
)

const (
	exactBaseConfidence = 0.7
	looseBaseConfidence = 0.4
	keywordBonus        = 0.2
	partBaseConfidence  = 0.7

	// keywordWindow is how far around a match (in bytes) remediation
	// keywords are searched for.
	keywordWindow = 80
)

// defaultKeywords are remediation terms whose presence near a code raises
// its confidence.
var defaultKeywords = []string{
	"fuser", "formatter", "toner", "cartridge", "roller", "sensor",
	"jam", "replace", "reseat", "motor", "laser", "scanner", "tray",
	"duplexer", "transfer belt",
}

// Config controls error-code extraction.
type Config struct {
	// Keywords override the default remediation keyword list.
	Keywords []string

	// Logger receives extraction diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Summary reports what one extraction pass produced.
type Summary struct {
	Codes      int
	Categories int
	Parts      int
}

// Extractor scans chunks for error codes and part numbers and persists them.
type Extractor struct {
	codeRepo storage.ErrorCodeRepository
	partRepo storage.PartRepository
	keywords []string
	logger   *slog.Logger
}

// NewExtractor creates an extractor writing to the given repositories.
func NewExtractor(codeRepo storage.ErrorCodeRepository, partRepo storage.PartRepository, cfg Config) *Extractor {
	keywords := cfg.Keywords
	if keywords == nil {
		keywords = defaultKeywords
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		codeRepo: codeRepo,
		partRepo: partRepo,
		keywords: keywords,
		logger:   logger.With("component", "code-extractor"),
	}
}

// ExtractFromChunks scans chunks in document order and upserts every error
// code and part number found. Repeated mentions of a code collapse into one
// row: the repository keeps the highest confidence seen and the first chunk
// link. Parent categories implied by hierarchical codes are auto-created.
func (e *Extractor) ExtractFromChunks(ctx context.Context, doc *core.Document, chunks []*core.Chunk) (*Summary, error) {
	ruleSet := rules.ForManufacturer(doc.Manufacturer)
	summary := &Summary{}
	seenCodes := make(map[string]bool)
	seenCategories := make(map[string]bool)
	seenParts := make(map[string]bool)

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		for _, cand := range ruleSet.FindCandidates(chunk.Text) {
			row := e.buildErrorCode(doc.Id, chunk, cand, ruleSet)

			if row.ParentCode != "" && !seenCategories[row.ParentCode] {
				if _, err := e.codeRepo.EnsureCategory(ctx, doc.Id, row.ParentCode); err != nil {
					return summary, fmt.Errorf("codes: ensuring category %s: %w", row.ParentCode, err)
				}
				seenCategories[row.ParentCode] = true
				summary.Categories++
			}

			if _, err := e.codeRepo.UpsertErrorCode(ctx, row); err != nil {
				return summary, fmt.Errorf("codes: upserting %s: %w", row.Code, err)
			}
			if !seenCodes[row.Code] {
				seenCodes[row.Code] = true
				summary.Codes++
			}
		}

		for _, cand := range ruleSet.FindPartCandidates(chunk.Text) {
			part := &core.Part{
				Id:          core.PartID(doc.Id, cand.Code),
				DocumentId:  doc.Id,
				PartNumber:  cand.Code,
				Description: descriptionAround(chunk.Text, cand),
				ChunkId:     chunk.Id,
				Confidence:  partBaseConfidence,
			}
			if _, err := e.partRepo.UpsertPart(ctx, part); err != nil {
				return summary, fmt.Errorf("codes: upserting part %s: %w", part.PartNumber, err)
			}
			if !seenParts[part.PartNumber] {
				seenParts[part.PartNumber] = true
				summary.Parts++
			}
		}
	}

	e.logger.Info("code extraction complete",
		"document", doc.Id,
		"codes", summary.Codes,
		"categories", summary.Categories,
		"parts", summary.Parts)
	return summary, nil
}

func (e *Extractor) buildErrorCode(docId core.ID, chunk *core.Chunk, cand rules.Candidate, ruleSet rules.RuleSet) *core.ErrorCode {
	row := &core.ErrorCode{
		Id:          core.ErrorCodeID(docId, cand.Code),
		DocumentId:  docId,
		Code:        cand.Code,
		Description: descriptionAround(chunk.Text, cand),
		Solution:    solutionAfter(chunk.Text, cand),
		Confidence:  e.scoreCandidate(chunk.Text, cand),
		ChunkId:     chunk.Id,
	}
	if parent, ok := ruleSet.DeriveParentCode(cand.Code); ok {
		row.ParentCode = parent
	}
	return row
}

// scoreCandidate computes confidence: a base from pattern specificity plus
// a bonus when a remediation keyword appears near the match, capped at 1.0.
func (e *Extractor) scoreCandidate(text string, cand rules.Candidate) float32 {
	confidence := float32(looseBaseConfidence)
	if cand.Exact {
		confidence = exactBaseConfidence
	}

	start := cand.Start - keywordWindow
	if start < 0 {
		start = 0
	}
	end := cand.End + keywordWindow
	if end > len(text) {
		end = len(text)
	}
	window := strings.ToLower(text[start:end])

	for _, keyword := range e.keywords {
		if strings.Contains(window, keyword) {
			confidence += keywordBonus
			break
		}
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// descriptionAround returns the line containing the match, minus the code
// itself, as a short human-readable description.
func descriptionAround(text string, cand rules.Candidate) string {
	line := lineContaining(text, cand.Start)
	line = strings.Replace(line, cand.Code, "", 1)
	return strings.Trim(strings.TrimSpace(line), "-—:. \t")
}

// solutionAfter returns the line following the match when it is introduced
// by a remediation heading, e.g. "Recommended action: ...".
func solutionAfter(text string, cand rules.Candidate) string {
	lineEnd := strings.IndexByte(text[cand.End:], '\n')
	if lineEnd < 0 {
		return ""
	}
	rest := text[cand.End+lineEnd+1:]
	next := rest
	if i := strings.IndexByte(next, '\n'); i >= 0 {
		next = next[:i]
	}
	next = strings.TrimSpace(next)

	for _, prefix := range []string{"Recommended action", "Solution", "Remedy", "Action"} {
		if strings.HasPrefix(next, prefix) {
			next = strings.TrimPrefix(next, prefix)
			return strings.TrimSpace(strings.TrimLeft(next, ":- \t"))
		}
	}
	return ""
}

// lineContaining returns the full line of text around byte offset pos.
func lineContaining(text string, pos int) string {
	if pos < 0 || pos > len(text) {
		return ""
	}
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := strings.IndexByte(text[pos:], '\n')
	if end < 0 {
		end = len(text)
	} else {
		end += pos
	}
	return text[start:end]
}
