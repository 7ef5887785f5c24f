// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.ImageAnalyzer, ai.Translator, and ai.AIProvider for use in unit tests.
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	vector, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	analyzer := mock.NewMockImageAnalyzer()
//	analyzer.AnalyzeImageFunc = func(ctx context.Context, png []byte, pageContext string) (*ai.ImageAnalysis, error) {
//	    return nil, errors.New("vision service down")
//	}
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: returns deterministic vectors based on text hash
//   - MockImageAnalyzer: returns a description derived from the image size
//   - MockTranslator: returns the input prefixed with the language code
package mock
