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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// VisionHost is the base URL for the vision model API.
	VisionHost string

	// TranslationHost is the base URL for the translation model API.
	TranslationHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// VisionModel is the model identifier to use for image analysis.
	// Example: "llava:13b", "gpt-4o-mini"
	VisionModel string

	// TranslationModel is the model identifier to use for translation.
	TranslationModel string

	// TargetLanguage is the ISO 639-1 code of the language solutions are
	// translated into. Empty disables the translation stage.
	TargetLanguage string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithVisionHost sets the vision model host URL.
func WithVisionHost(host string) ConfigOption {
	return func(c *Config) {
		c.VisionHost = host
	}
}

// WithTranslationHost sets the translation model host URL.
func WithTranslationHost(host string) ConfigOption {
	return func(c *Config) {
		c.TranslationHost = host
	}
}

// WithHost sets all service hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.VisionHost = host
		c.TranslationHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithVisionModel sets the vision model identifier.
func WithVisionModel(model string) ConfigOption {
	return func(c *Config) {
		c.VisionModel = model
	}
}

// WithTranslationModel sets the translation model identifier.
func WithTranslationModel(model string) ConfigOption {
	return func(c *Config) {
		c.TranslationModel = model
	}
}

// WithTargetLanguage sets the translation target language.
func WithTargetLanguage(lang string) ConfigOption {
	return func(c *Config) {
		c.TargetLanguage = lang
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. By default all services use the same host
// and translation is disabled.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:    defaultHost,
		VisionHost:       defaultHost,
		TranslationHost:  defaultHost,
		EmbeddingModel:   "embeddinggemma",
		VisionModel:      "llava:13b",
		TranslationModel: "qwen2.5:3b",
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options. This is the recommended way to create a Config with
// custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.VisionHost = normalizeHost(c.VisionHost)
	c.TranslationHost = normalizeHost(c.TranslationHost)
	c.TargetLanguage = strings.ToLower(strings.TrimSpace(c.TargetLanguage))
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.VisionHost == "" {
		return errors.New("ai config: VisionHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.VisionModel == "" {
		return errors.New("ai config: VisionModel is required")
	}
	if c.TargetLanguage != "" {
		if c.TranslationHost == "" {
			return errors.New("ai config: TranslationHost is required when translation is enabled")
		}
		if c.TranslationModel == "" {
			return errors.New("ai config: TranslationModel is required when translation is enabled")
		}
		if len(c.TargetLanguage) != 2 {
			return errors.New("ai config: TargetLanguage must be a two-letter ISO 639-1 code")
		}
	}
	return nil
}
