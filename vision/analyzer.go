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


// Package vision analyzes extracted manual images with a vision model.
//
// The analyzer never lets a model outage block document processing: every
// image that cannot be analyzed, whether vision is disabled, the call
// fails, or it times out, still receives a deterministic fallback
// description with a fixed mid-range confidence. After the vision stage an
// image always has a non-empty description.
package vision

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/nexfix/manualbase/ai"
	"github.com/nexfix/manualbase/core"
	"github.com/nexfix/manualbase/storage"
	"github.com/panjf2000/ants/v2"
)

const (
	// FallbackConfidence is recorded for every image that receives the
	// deterministic fallback description.
	FallbackConfidence = 0.5

	// FallbackDescription is the fixed description recorded when vision is
	// disabled, fails, or an image falls past the per-document cap.
	FallbackDescription = "Service manual image (no automatic description available)"

	defaultTimeout = 45 * time.Second

	// pageContextLimit caps how much surrounding page text is sent with
	// an image.
	pageContextLimit = 2000
)

// Fallback reasons recorded on per-image results.
const (
	ReasonDisabled = "disabled"
	ReasonFailed   = "failed"
	ReasonSkipped  = "skipped"
)

// Config controls the vision stage.
type Config struct {
	// Disabled short-circuits every analysis into the fallback path.
	Disabled bool

	// MaxImages caps how many images per document are sent to the model.
	// Images past the cap receive the fallback. 0 means no cap.
	MaxImages int

	// Timeout bounds each model call. 0 uses the default.
	Timeout time.Duration

	// PoolSize is the worker pool capacity shared across all documents.
	// 0 uses half the CPU count, minimum 1.
	PoolSize int

	// Logger receives analysis diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Result is the outcome for one image.
type Result struct {
	ImageId  core.ID
	Fallback bool
	// Reason is empty for a successful analysis, otherwise one of the
	// Reason* constants.
	Reason string
}

// BatchResult summarizes one document's vision pass.
type BatchResult struct {
	Analyzed  int
	Fallbacks int
	Results   []Result
}

// Analyzer runs vision analysis over a document's images.
// One Analyzer (and its pool) is shared across concurrently processing
// documents; create it once and Release it on shutdown.
type Analyzer struct {
	model     ai.ImageAnalyzer
	imageRepo storage.ImageRepository
	chunkRepo storage.ChunkRepository
	pool      *ants.Pool
	cfg       Config
	logger    *slog.Logger
}

// NewAnalyzer creates an analyzer with a shared worker pool.
func NewAnalyzer(model ai.ImageAnalyzer, imageRepo storage.ImageRepository, chunkRepo storage.ChunkRepository, cfg Config) (*Analyzer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = runtime.NumCPU() / 2
		if poolSize < 1 {
			poolSize = 1
		}
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Analyzer{
		model:     model,
		imageRepo: imageRepo,
		chunkRepo: chunkRepo,
		pool:      pool,
		cfg:       cfg,
		logger:    logger.With("component", "vision"),
	}, nil
}

// Release releases the worker pool.
// The analyzer should not be used after calling Release.
func (a *Analyzer) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// AnalyzeDocument analyzes every image of a document. Individual failures
// take the fallback path and never abort the batch; the returned error is
// non-nil only when the image list itself cannot be retrieved or a fallback
// cannot be persisted.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, documentId core.ID) (*BatchResult, error) {
	images, err := a.imageRepo.GetImages(ctx, documentId)
	if err != nil {
		return nil, fmt.Errorf("vision: listing images: %w", err)
	}

	batch := &BatchResult{Results: make([]Result, len(images))}
	if len(images) == 0 {
		return batch, nil
	}

	pageContext, err := a.buildPageContext(ctx, documentId)
	if err != nil {
		a.logger.Warn("proceeding without page context", "document", documentId, "err", err)
		pageContext = nil
	}

	var wg sync.WaitGroup
	var persistErr error
	var persistMu sync.Mutex

	for i, img := range images {
		i, img := i, img

		reason := ""
		switch {
		case a.cfg.Disabled:
			reason = ReasonDisabled
		case a.cfg.MaxImages > 0 && i >= a.cfg.MaxImages:
			reason = ReasonSkipped
		}

		if reason != "" {
			a.logger.Info("recording vision fallback", "image", img.Id, "reason", reason)
			if err := a.persistFallback(ctx, img); err != nil {
				return nil, err
			}
			batch.Results[i] = Result{ImageId: img.Id, Fallback: true, Reason: reason}
			continue
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			result, err := a.analyzeOne(ctx, img, pageContext[img.PageNumber])
			if err != nil {
				persistMu.Lock()
				if persistErr == nil {
					persistErr = err
				}
				persistMu.Unlock()
				return
			}
			batch.Results[i] = result
		}
		if err := a.pool.Submit(task); err != nil {
			// Pool rejected the task (released or overloaded): fall back
			wg.Done()
			a.logger.Warn("vision pool rejected task", "image", img.Id, "err", err)
			if err := a.persistFallback(ctx, img); err != nil {
				return nil, err
			}
			batch.Results[i] = Result{ImageId: img.Id, Fallback: true, Reason: ReasonFailed}
		}
	}

	wg.Wait()
	if persistErr != nil {
		return nil, persistErr
	}

	for _, r := range batch.Results {
		if r.Fallback {
			batch.Fallbacks++
		} else if r.ImageId != 0 {
			batch.Analyzed++
		}
	}
	return batch, nil
}

// analyzeOne runs one model call with a timeout. Model errors and timeouts
// persist the fallback; the returned error is only for storage failures.
func (a *Analyzer) analyzeOne(ctx context.Context, img *core.Image, pageText string) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	analysis, err := a.model.AnalyzeImage(callCtx, img.Data, pageText)
	if err != nil || analysis == nil || strings.TrimSpace(analysis.Description) == "" {
		a.logger.Warn("vision analysis failed, using fallback", "image", img.Id, "err", err)
		if err := a.persistFallback(ctx, img); err != nil {
			return Result{}, err
		}
		return Result{ImageId: img.Id, Fallback: true, Reason: ReasonFailed}, nil
	}

	if err := a.imageRepo.UpdateAnalysis(ctx, img.Id, analysis.Description, analysis.Tags, analysis.Confidence); err != nil {
		return Result{}, fmt.Errorf("vision: persisting analysis: %w", err)
	}
	return Result{ImageId: img.Id}, nil
}

func (a *Analyzer) persistFallback(ctx context.Context, img *core.Image) error {
	if err := a.imageRepo.UpdateAnalysis(ctx, img.Id, FallbackDescription, nil, FallbackConfidence); err != nil {
		return fmt.Errorf("vision: persisting fallback: %w", err)
	}
	return nil
}

// buildPageContext concatenates chunk text per page, truncated to a
// fixed length, for use as vision prompt context.
func (a *Analyzer) buildPageContext(ctx context.Context, documentId core.ID) (map[int]string, error) {
	chunks, err := a.chunkRepo.GetChunks(ctx, documentId)
	if err != nil {
		return nil, err
	}

	pages := make(map[int]string, len(chunks))
	for _, chunk := range chunks {
		existing := pages[chunk.PageNumber]
		if len(existing) >= pageContextLimit {
			continue
		}
		if existing != "" {
			existing += "\n"
		}
		text := chunk.Text
		if len(existing)+len(text) > pageContextLimit {
			text = text[:pageContextLimit-len(existing)]
		}
		pages[chunk.PageNumber] = existing + text
	}
	return pages, nil
}
