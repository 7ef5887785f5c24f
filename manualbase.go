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


// Package manualbase turns PDF service manuals into a queryable knowledge
// base: text chunks, error codes with hierarchy, analyzed images, vector
// embeddings, and part numbers, all persisted in BadgerDB.
package manualbase

import (
	"io"
	"log/slog"

	"github.com/nexfix/manualbase/ai"
	"github.com/nexfix/manualbase/ai/openai"
	"github.com/nexfix/manualbase/codes"
	"github.com/nexfix/manualbase/extract"
	"github.com/nexfix/manualbase/index"
	"github.com/nexfix/manualbase/linking"
	"github.com/nexfix/manualbase/pipeline"
	"github.com/nexfix/manualbase/reindex"
	"github.com/nexfix/manualbase/retrieval"
	"github.com/nexfix/manualbase/storage/badger"
	"github.com/nexfix/manualbase/vision"
)

// Database wires the storage backend, AI provider, pipeline, and retrieval
// gateway into one handle. All heavyweight resources (badger, the vision
// worker pool) are owned here and released by Close.
type Database struct {
	backend      *badger.Backend
	repos        *badger.Repositories
	provider     ai.AIProvider
	visionPool   *vision.Analyzer
	orchestrator *pipeline.Orchestrator
	indexer      *index.Indexer
	gateway      *retrieval.Gateway
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig        *ai.Config
	visionDisabled  bool
	maxVisionImages int
	visionPoolSize  int
	maxTextPages    int
	logger          *slog.Logger
}

// WithAIConfig sets the AI service configuration. The config's
// TargetLanguage also enables the solution-translation stage.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) { o.aiConfig = cfg }
}

// WithVisionDisabled turns the vision stage into deterministic fallbacks.
func WithVisionDisabled(disabled bool) DatabaseOption {
	return func(o *databaseOptions) { o.visionDisabled = disabled }
}

// WithMaxVisionImages caps how many images per document reach the vision
// model. 0 means no cap.
func WithMaxVisionImages(max int) DatabaseOption {
	return func(o *databaseOptions) { o.maxVisionImages = max }
}

// WithVisionPoolSize sets the shared vision worker pool capacity.
func WithVisionPoolSize(size int) DatabaseOption {
	return func(o *databaseOptions) { o.visionPoolSize = size }
}

// WithMaxTextPages caps how many pages are extracted per document.
// 0 means all pages.
func WithMaxTextPages(max int) DatabaseOption {
	return func(o *databaseOptions) { o.maxTextPages = max }
}

// WithLogger sets the logger used by every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) { o.logger = logger }
}

// NewDatabase opens (or creates) a manual database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		repos.Close()
		return nil, err
	}

	visionPool, err := vision.NewAnalyzer(provider.ImageAnalyzer(), repos.Images, repos.Chunks, vision.Config{
		Disabled:  options.visionDisabled,
		MaxImages: options.maxVisionImages,
		PoolSize:  options.visionPoolSize,
		Logger:    options.logger,
	})
	if err != nil {
		provider.Close()
		repos.Close()
		return nil, err
	}

	indexer := index.NewIndexer(provider.Embedder(), repos.Chunks, repos.Embeddings, index.Config{
		Model:  options.aiConfig.EmbeddingModel,
		Logger: options.logger,
	})

	comps := pipeline.Components{
		Extractor:  extract.NewExtractor(extract.Config{MaxTextPages: options.maxTextPages, Logger: options.logger}),
		Codes:      codes.NewExtractor(repos.ErrorCodes, repos.Parts, codes.Config{Logger: options.logger}),
		Vision:     visionPool,
		Linker:     linking.NewLinker(repos.Chunks, repos.Images, repos.ErrorCodes, linking.Config{Logger: options.logger}),
		Indexer:    indexer,
		Translator: provider.Translator(),
	}
	orchestrator, err := pipeline.NewOrchestrator(repos.Documents, repos.Chunks, repos.Images, repos.ErrorCodes, comps, pipeline.Config{
		TranslationLanguage: options.aiConfig.TargetLanguage,
		Logger:              options.logger,
	})
	if err != nil {
		visionPool.Release()
		provider.Close()
		repos.Close()
		return nil, err
	}

	gateway := retrieval.NewGateway(repos.Documents, repos.Chunks, repos.ErrorCodes, repos.Parts, indexer, options.logger)

	return &Database{
		backend:      backend,
		repos:        repos,
		provider:     provider,
		visionPool:   visionPool,
		orchestrator: orchestrator,
		indexer:      indexer,
		gateway:      gateway,
		logger:       options.logger,
	}, nil
}

// Close releases the vision pool, AI provider, repositories, and backend.
func (db *Database) Close() error {
	db.visionPool.Release()
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	return db.repos.Close()
}

// Pipeline returns the stage orchestrator for processing documents.
func (db *Database) Pipeline() *pipeline.Orchestrator {
	return db.orchestrator
}

// Retriever returns the retrieval gateway for queries.
func (db *Database) Retriever() *retrieval.Gateway {
	return db.gateway
}

// Indexer returns the embedding indexer.
func (db *Database) Indexer() *index.Indexer {
	return db.indexer
}

// Repositories exposes the underlying storage repositories.
func (db *Database) Repositories() *badger.Repositories {
	return db.repos
}

// NewReindexer creates a batch re-embedder that rewrites every chunk
// embedding under the given model name. Progress lines go to progress.
func (db *Database) NewReindexer(model string, cfg *reindex.Config, progress io.Writer) *reindex.Reindexer {
	if cfg == nil {
		cfg = reindex.DefaultConfig()
	}
	cfg.Model = model
	return reindex.NewReindexer(db.repos.Documents, db.repos.Chunks, db.repos.Embeddings, db.provider.Embedder(), cfg, progress)
}
