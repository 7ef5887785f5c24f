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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/nexfix/manualbase/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ImageAnalyzer implements ai.ImageAnalyzer using OpenAI-compatible
// multimodal chat APIs.
type ImageAnalyzer struct {
	client llms.Model
	logger *slog.Logger
}

// imageAnalysis is an internal type used for JSON unmarshaling.
// It matches the structure requested from the vision model.
type imageAnalysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Confidence  float32  `json:"confidence"`
}

// newImageAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newImageAnalyzer(config *ai.Config) (*ImageAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.VisionHost),
		openai.WithToken("none"),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}

	return &ImageAnalyzer{
		client: client,
		logger: slog.Default().With("component", "openai-vision"),
	}, nil
}

// NewImageAnalyzer creates a new image analyzer using the provided configuration.
//
// Returns ai.ImageAnalyzer interface to enforce abstraction.
func NewImageAnalyzer(config *ai.Config) (ai.ImageAnalyzer, error) {
	return newImageAnalyzer(config)
}

// AnalyzeImage describes a PNG-encoded manual figure using the vision model.
func (a *ImageAnalyzer) AnalyzeImage(ctx context.Context, png []byte, pageContext string) (*ai.ImageAnalysis, error) {
	userParts := []llms.ContentPart{
		llms.BinaryPart("image/png", png),
	}
	if pageContext = strings.TrimSpace(pageContext); pageContext != "" {
		userParts = append(userParts, llms.TextPart("Surrounding manual text:\n"+pageContext))
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildVisionPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: userParts,
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result imageAnalysis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model")
			return nil, ErrEmptyResponse
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing vision response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse vision response after retries", "err", lastErr)
		return nil, lastErr
	}

	return &ai.ImageAnalysis{
		Description: strings.TrimSpace(result.Description),
		Tags:        normalizeTags(result.Tags),
		Confidence:  clampConfidence(result.Confidence),
	}, nil
}

// normalizeTags lowercases tags, maps spaces to underscores, and drops
// anything outside the known vocabulary.
func normalizeTags(tags []string) []string {
	kept := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), " ", "_")
		if slices.Contains(ai.ImageTags, tag) && !slices.Contains(kept, tag) {
			kept = append(kept, tag)
		}
	}
	return kept
}

// clampConfidence forces the model's self-reported confidence into [0,1].
// Some models answer on a 0-100 scale despite instructions.
func clampConfidence(c float32) float32 {
	if c > 1 && c <= 100 {
		c = c / 100
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
