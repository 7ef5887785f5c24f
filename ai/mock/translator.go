package mock

import (
	"context"
	"fmt"
)

// MockTranslator is a test double for ai.Translator.
// It allows custom behavior injection via function fields.
type MockTranslator struct {
	// TranslateFunc is called by Translate if set.
	// If nil, uses default deterministic behavior.
	TranslateFunc func(ctx context.Context, text, targetLanguage string) (string, error)

	callCount int
}

// NewMockTranslator creates a mock translator with default behavior.
func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

// Translate returns the input text prefixed with the target language code,
// so tests can verify both the text and the language reached the translator.
func (m *MockTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	m.callCount++

	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, targetLanguage)
	}
	return fmt.Sprintf("[%s] %s", targetLanguage, text), nil
}

// CallCount returns the number of times Translate was called.
func (m *MockTranslator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockTranslator) Reset() {
	m.callCount = 0
	m.TranslateFunc = nil
}
