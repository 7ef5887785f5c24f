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


package mock

import "github.com/nexfix/manualbase/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, image analyzer, and translator instances.
type MockProvider struct {
	embedder   *MockEmbedder
	vision     *MockImageAnalyzer
	translator *MockTranslator
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production
// constructors. Use the Mock* accessors for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		vision:     NewMockImageAnalyzer(),
		translator: NewMockTranslator(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock
// services. This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, vision *MockImageAnalyzer, translator *MockTranslator) ai.AIProvider {
	return &MockProvider{
		embedder:   embedder,
		vision:     vision,
		translator: translator,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// ImageAnalyzer returns the mock image analyzer.
func (p *MockProvider) ImageAnalyzer() ai.ImageAnalyzer {
	return p.vision
}

// Translator returns the mock translator.
func (p *MockProvider) Translator() ai.Translator {
	return p.translator
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// MockEmbedderInstance returns the underlying mock embedder for test assertions.
func (p *MockProvider) MockEmbedderInstance() *MockEmbedder {
	return p.embedder
}

// MockImageAnalyzerInstance returns the underlying mock analyzer for test assertions.
func (p *MockProvider) MockImageAnalyzerInstance() *MockImageAnalyzer {
	return p.vision
}

// MockTranslatorInstance returns the underlying mock translator for test assertions.
func (p *MockProvider) MockTranslatorInstance() *MockTranslator {
	return p.translator
}
