package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ImageAnalyzer describes images extracted from service manuals.
// Implementations must be thread-safe for concurrent use.
type ImageAnalyzer interface {
	// AnalyzeImage produces a description, tags, and a confidence score for
	// a PNG-encoded image. pageContext carries nearby manual text to help
	// the model identify what the figure shows; it may be empty.
	// Returns an error if the analysis fails; callers are expected to fall
	// back to a deterministic description in that case.
	AnalyzeImage(ctx context.Context, png []byte, pageContext string) (*ImageAnalysis, error)
}

// Translator translates remediation text into a target language.
// Implementations must be thread-safe for concurrent use.
type Translator interface {
	// Translate translates text into the language named by its ISO 639-1
	// code (e.g. "de", "fr"). Returns the translated text.
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages its service instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ImageAnalyzer returns the vision analysis service.
	ImageAnalyzer() ImageAnalyzer

	// Translator returns the translation service.
	Translator() Translator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
