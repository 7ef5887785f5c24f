package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/nexfix/manualbase/ai"
)

// MockImageAnalyzer is a test double for ai.ImageAnalyzer.
// It allows custom behavior injection via function fields.
// Safe for concurrent use; the analyzer calls it from pool workers.
type MockImageAnalyzer struct {
	// AnalyzeImageFunc is called by AnalyzeImage if set.
	// If nil, uses default deterministic behavior.
	AnalyzeImageFunc func(ctx context.Context, png []byte, pageContext string) (*ai.ImageAnalysis, error)

	callCount atomic.Int64
}

// NewMockImageAnalyzer creates a mock image analyzer with default behavior.
func NewMockImageAnalyzer() *MockImageAnalyzer {
	return &MockImageAnalyzer{}
}

// AnalyzeImage returns a deterministic description derived from the image size.
func (m *MockImageAnalyzer) AnalyzeImage(ctx context.Context, png []byte, pageContext string) (*ai.ImageAnalysis, error) {
	m.callCount.Add(1)

	if m.AnalyzeImageFunc != nil {
		return m.AnalyzeImageFunc(ctx, png, pageContext)
	}

	return &ai.ImageAnalysis{
		Description: fmt.Sprintf("Mock analysis of %d-byte image", len(png)),
		Tags:        []string{"photo"},
		Confidence:  0.9,
	}, nil
}

// CallCount returns the number of times AnalyzeImage was called.
func (m *MockImageAnalyzer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockImageAnalyzer) Reset() {
	m.callCount.Store(0)
	m.AnalyzeImageFunc = nil
}
