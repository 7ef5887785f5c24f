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


// Package pipeline orchestrates the processing stages of a document.
//
// Stage status is persisted on the document record, so a restart resumes
// where processing stopped. A failed stage skips its dependents but never
// aborts the run: the document stays queryable with whatever earlier
// stages produced.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/nexfix/manualbase/ai"
	"github.com/nexfix/manualbase/codes"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/extract"
	"github.com/nexfix/manualbase/index"
	"github.com/nexfix/manualbase/linking"
	"github.com/nexfix/manualbase/storage"
	"github.com/nexfix/manualbase/vision"
)

// TextExtractor turns a source PDF into chunks and images.
type TextExtractor interface {
	ExtractFile(ctx context.Context, path string, documentId core.ID) (*extract.Extraction, error)
}

// CodeExtractor scans chunks for error codes and parts.
type CodeExtractor interface {
	ExtractFromChunks(ctx context.Context, doc *core.Document, chunks []*core.Chunk) (*codes.Summary, error)
}

// VisionAnalyzer describes a document's images.
type VisionAnalyzer interface {
	AnalyzeDocument(ctx context.Context, documentId core.ID) (*vision.BatchResult, error)
}

// ChunkLinker resolves figure and error-code links.
type ChunkLinker interface {
	LinkDocument(ctx context.Context, documentId core.ID) (*linking.Summary, error)
}

// EmbeddingIndexer embeds the document's chunks.
type EmbeddingIndexer interface {
	IndexDocument(ctx context.Context, documentId core.ID) (*index.Summary, error)
}

// Components bundles the stage implementations the orchestrator drives.
// Translator may be nil when translation is disabled.
type Components struct {
	Extractor  TextExtractor
	Codes      CodeExtractor
	Vision     VisionAnalyzer
	Linker     ChunkLinker
	Indexer    EmbeddingIndexer
	Translator ai.Translator
}

// Config controls the orchestrator.
type Config struct {
	// TranslationLanguage is the ISO 639-1 target for solution translation.
	// Empty disables the translate stage.
	TranslationLanguage string

	// Logger receives pipeline diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// StageHandle represents one granted run of a stage for one document.
// All stage-status mutation goes through a handle, which enforces a single
// writer per document and stage.
type StageHandle struct {
	Id         uuid.UUID
	DocumentId core.ID
	Stage      core.Stage
}

type stageKey struct {
	documentId core.ID
	stage      core.Stage
}

// dependents maps each stage to the stages that consume its output.
var dependents = map[core.Stage][]core.Stage{
	core.StageExtract: {core.StageCodes, core.StageVision},
	core.StageCodes:   {core.StageLink},
	core.StageVision:  {core.StageLink},
	core.StageLink:    {core.StageEmbed},
	core.StageEmbed:   {core.StageTranslate},
}

// Orchestrator drives documents through the processing stages.
type Orchestrator struct {
	docs      storage.DocumentRepository
	chunkRepo storage.ChunkRepository
	imageRepo storage.ImageRepository
	codeRepo  storage.ErrorCodeRepository
	comps     Components
	cfg       Config
	logger    *slog.Logger

	mu     sync.Mutex
	active map[stageKey]uuid.UUID
}

// NewOrchestrator creates an orchestrator over the given repositories and
// stage components.
func NewOrchestrator(docs storage.DocumentRepository, chunkRepo storage.ChunkRepository, imageRepo storage.ImageRepository, codeRepo storage.ErrorCodeRepository, comps Components, cfg Config) (*Orchestrator, error) {
	if docs == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if comps.Extractor == nil {
		return nil, ErrExtractorRequired
	}
	if cfg.TranslationLanguage != "" && comps.Translator == nil {
		return nil, ErrTranslatorRequired
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		docs:      docs,
		chunkRepo: chunkRepo,
		imageRepo: imageRepo,
		codeRepo:  codeRepo,
		comps:     comps,
		cfg:       cfg,
		logger:    logger.With("component", "pipeline"),
		active:    make(map[stageKey]uuid.UUID),
	}, nil
}

// StartStage marks a stage in_progress and returns a handle for completing
// or failing it. Returns ErrStageAlreadyRunning when another handle is
// active for the same document and stage.
func (o *Orchestrator) StartStage(ctx context.Context, documentId core.ID, stage core.Stage) (*StageHandle, error) {
	if !validStage(stage) {
		return nil, ErrUnknownStage
	}

	key := stageKey{documentId, stage}
	handle := &StageHandle{Id: uuid.New(), DocumentId: documentId, Stage: stage}

	o.mu.Lock()
	if _, busy := o.active[key]; busy {
		o.mu.Unlock()
		return nil, ErrStageAlreadyRunning
	}
	o.active[key] = handle.Id
	o.mu.Unlock()

	if err := o.docs.UpdateStageState(ctx, documentId, stage, core.StateInProgress, ""); err != nil {
		o.release(key, handle.Id)
		return nil, err
	}
	o.logger.Debug("stage started", "document", documentId, "stage", stage)
	return handle, nil
}

// CompleteStage marks the handle's stage completed. Calling it again with
// the same handle is a no-op.
func (o *Orchestrator) CompleteStage(ctx context.Context, handle *StageHandle) error {
	if !o.release(stageKey{handle.DocumentId, handle.Stage}, handle.Id) {
		return nil
	}
	if err := o.docs.UpdateStageState(ctx, handle.DocumentId, handle.Stage, core.StateCompleted, ""); err != nil {
		return err
	}
	o.logger.Info("stage completed", "document", handle.DocumentId, "stage", handle.Stage)
	return nil
}

// FailStage marks the handle's stage failed with a reason and resets all
// transitive dependents to not_started. Dependents stay skipped until
// retriggered.
func (o *Orchestrator) FailStage(ctx context.Context, handle *StageHandle, reason string) error {
	if !o.release(stageKey{handle.DocumentId, handle.Stage}, handle.Id) {
		return nil
	}
	if reason == "" {
		reason = "unspecified failure"
	}
	if err := o.docs.UpdateStageState(ctx, handle.DocumentId, handle.Stage, core.StateFailed, reason); err != nil {
		return err
	}
	for _, dep := range transitiveDependents(handle.Stage) {
		if err := o.docs.UpdateStageState(ctx, handle.DocumentId, dep, core.StateNotStarted, ""); err != nil {
			return err
		}
	}
	o.logger.Warn("stage failed", "document", handle.DocumentId, "stage", handle.Stage, "reason", reason)
	return nil
}

// release removes a handle from the active registry. Reports whether the
// handle was still the active one.
func (o *Orchestrator) release(key stageKey, id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[key] != id {
		return false
	}
	delete(o.active, key)
	return true
}

func validStage(stage core.Stage) bool {
	for _, s := range core.Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// transitiveDependents returns every stage downstream of the given one, in
// pipeline order.
func transitiveDependents(stage core.Stage) []core.Stage {
	reach := make(map[core.Stage]bool)
	var walk func(core.Stage)
	walk = func(s core.Stage) {
		for _, dep := range dependents[s] {
			if !reach[dep] {
				reach[dep] = true
				walk(dep)
			}
		}
	}
	walk(stage)

	var ordered []core.Stage
	for _, s := range core.Stages {
		if reach[s] {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// Process runs the full pipeline over a PDF file. A content hash that was
// already ingested short-circuits: the existing document is returned and no
// stage runs. A failed stage skips its dependents but completes the run.
func (o *Orchestrator) Process(ctx context.Context, pdfPath, manufacturer string) (*core.Document, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading %s: %w", pdfPath, err)
	}
	hash := core.ContentHash(data)

	existing, err := o.docs.GetDocumentByHash(ctx, hash)
	if err == nil {
		o.logger.Info("content hash already ingested, reusing document", "document", existing.Id, "file", pdfPath)
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	doc := core.NewDocument(hash, filepath.Base(pdfPath), manufacturer)
	doc, err = o.docs.AddDocument(ctx, doc)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// A concurrent Process for the same file committed between the hash
		// check and the insert. Treat it as a duplicate and reuse.
		existing, err := o.docs.GetDocumentByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		o.logger.Info("document added concurrently, reusing", "document", existing.Id, "file", pdfPath)
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	o.logger.Info("processing new document", "document", doc.Id, "file", pdfPath, "manufacturer", manufacturer)
	return o.runStages(ctx, doc.Id, pdfPath)
}

// Reprocess re-runs a document's failed stages. Stages already completed
// are left alone; a content hash never seen before behaves like Process.
func (o *Orchestrator) Reprocess(ctx context.Context, pdfPath, manufacturer string) (*core.Document, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading %s: %w", pdfPath, err)
	}
	hash := core.ContentHash(data)

	doc, err := o.docs.GetDocumentByHash(ctx, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return o.Process(ctx, pdfPath, manufacturer)
	}
	if err != nil {
		return nil, err
	}

	for _, stage := range core.Stages {
		if doc.StageStatus[stage] == core.StateFailed {
			if err := o.docs.UpdateStageState(ctx, doc.Id, stage, core.StateNotStarted, ""); err != nil {
				return nil, err
			}
		}
	}
	return o.runStages(ctx, doc.Id, pdfPath)
}

// ResumeDocument re-runs whatever stages of a document are not yet
// completed, typically after a restart left a stage in_progress. Stage
// writes are idempotent, so re-running a half-finished stage is safe.
// Extraction cannot resume without the source file and fails its stage
// when pdfPath is empty.
func (o *Orchestrator) ResumeDocument(ctx context.Context, documentId core.ID, pdfPath string) (*core.Document, error) {
	if _, err := o.docs.GetDocument(ctx, documentId); err != nil {
		return nil, err
	}
	return o.runStages(ctx, documentId, pdfPath)
}

// runStages drives the stage graph for one document. Gating per stage:
// completed skips, failed blocks its dependents, anything else runs.
func (o *Orchestrator) runStages(ctx context.Context, documentId core.ID, pdfPath string) (*core.Document, error) {
	extractOK, err := o.runStage(ctx, documentId, core.StageExtract, func(ctx context.Context) error {
		return o.runExtract(ctx, documentId, pdfPath)
	})
	if err != nil {
		return nil, err
	}

	if extractOK {
		codesOK, err := o.runStage(ctx, documentId, core.StageCodes, func(ctx context.Context) error {
			return o.runCodes(ctx, documentId)
		})
		if err != nil {
			return nil, err
		}
		visionOK, err := o.runStage(ctx, documentId, core.StageVision, func(ctx context.Context) error {
			_, err := o.comps.Vision.AnalyzeDocument(ctx, documentId)
			return err
		})
		if err != nil {
			return nil, err
		}

		if codesOK && visionOK {
			linkOK, err := o.runStage(ctx, documentId, core.StageLink, func(ctx context.Context) error {
				_, err := o.comps.Linker.LinkDocument(ctx, documentId)
				return err
			})
			if err != nil {
				return nil, err
			}
			if linkOK {
				embedOK, err := o.runStage(ctx, documentId, core.StageEmbed, func(ctx context.Context) error {
					_, err := o.comps.Indexer.IndexDocument(ctx, documentId)
					return err
				})
				if err != nil {
					return nil, err
				}
				if embedOK {
					if _, err := o.runStage(ctx, documentId, core.StageTranslate, func(ctx context.Context) error {
						return o.runTranslate(ctx, documentId)
					}); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	return o.docs.GetDocument(ctx, documentId)
}

// runStage executes one stage under the handle discipline. The first return
// reports whether the stage is (now or already) completed; a stage failure
// is not an error unless the context was canceled.
func (o *Orchestrator) runStage(ctx context.Context, documentId core.ID, stage core.Stage, fn func(context.Context) error) (bool, error) {
	doc, err := o.docs.GetDocument(ctx, documentId)
	if err != nil {
		return false, err
	}
	switch doc.StageStatus[stage] {
	case core.StateCompleted:
		return true, nil
	case core.StateFailed:
		return false, nil
	}

	handle, err := o.StartStage(ctx, documentId, stage)
	if err != nil {
		return false, err
	}
	if err := fn(ctx); err != nil {
		if failErr := o.FailStage(ctx, handle, err.Error()); failErr != nil {
			return false, failErr
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	if err := o.CompleteStage(ctx, handle); err != nil {
		return false, err
	}
	return true, nil
}

func (o *Orchestrator) runExtract(ctx context.Context, documentId core.ID, pdfPath string) error {
	if pdfPath == "" {
		return ErrSourceFileUnavailable
	}
	extraction, err := o.comps.Extractor.ExtractFile(ctx, pdfPath, documentId)
	if err != nil {
		return err
	}
	if _, err := o.chunkRepo.ReplaceChunks(ctx, documentId, extraction.Chunks); err != nil {
		return err
	}
	if _, err := o.imageRepo.ReplaceImages(ctx, documentId, extraction.Images); err != nil {
		return err
	}
	return o.docs.SetPageCount(ctx, documentId, extraction.PageCount)
}

func (o *Orchestrator) runCodes(ctx context.Context, documentId core.ID) error {
	doc, err := o.docs.GetDocument(ctx, documentId)
	if err != nil {
		return err
	}
	chunks, err := o.chunkRepo.GetChunks(ctx, documentId)
	if err != nil {
		return err
	}
	_, err = o.comps.Codes.ExtractFromChunks(ctx, doc, chunks)
	return err
}

// runTranslate fills SolutionTranslated for every code that has a solution
// and no translation yet. Per-code failures are logged and skipped. With no
// target language configured the stage completes without doing anything.
func (o *Orchestrator) runTranslate(ctx context.Context, documentId core.ID) error {
	if o.cfg.TranslationLanguage == "" {
		o.logger.Debug("translation disabled, nothing to do", "document", documentId)
		return nil
	}
	if o.comps.Translator == nil {
		return ErrTranslatorRequired
	}
	codeRows, err := o.codeRepo.GetErrorCodes(ctx, documentId)
	if err != nil {
		return err
	}
	for _, code := range codeRows {
		if code.IsCategory || code.Solution == "" || code.SolutionTranslated != "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		translated, err := o.comps.Translator.Translate(ctx, code.Solution, o.cfg.TranslationLanguage)
		if err != nil {
			o.logger.Warn("solution translation failed, skipping", "code", code.Code, "err", err)
			continue
		}
		if err := o.codeRepo.SetSolutionTranslation(ctx, code.Id, translated); err != nil {
			return err
		}
	}
	return nil
}
