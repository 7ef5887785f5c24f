package pipeline

import "errors"

var (
	// ErrStageAlreadyRunning is returned by StartStage when an active handle
	// already exists for the document and stage.
	ErrStageAlreadyRunning = errors.New("stage already running for this document")

	// ErrUnknownStage is returned when a stage name is not part of the
	// pipeline.
	ErrUnknownStage = errors.New("unknown pipeline stage")

	// ErrDocumentRepositoryRequired is returned when constructing an
	// orchestrator without a document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrExtractorRequired is returned when constructing an orchestrator
	// without a text extractor.
	ErrExtractorRequired = errors.New("text extractor is required")

	// ErrTranslatorRequired is returned when the translate stage runs
	// without a configured translator.
	ErrTranslatorRequired = errors.New("translator is required when translation is enabled")

	// ErrSourceFileUnavailable is returned when a stage needs the original
	// PDF but no path was provided, e.g. resuming extraction after a restart.
	ErrSourceFileUnavailable = errors.New("source file not available")
)
