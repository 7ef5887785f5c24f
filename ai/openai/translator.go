package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nexfix/manualbase/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Translator implements ai.Translator using OpenAI-compatible chat APIs.
type Translator struct {
	client llms.Model
	logger *slog.Logger
}

// newTranslator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTranslator(config *ai.Config) (*Translator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.TranslationHost),
		openai.WithToken("none"),
		openai.WithModel(config.TranslationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Translator{
		client: client,
		logger: slog.Default().With("component", "openai-translator"),
	}, nil
}

// NewTranslator creates a new translator using the provided configuration.
//
// Returns ai.Translator interface to enforce abstraction.
func NewTranslator(config *ai.Config) (ai.Translator, error) {
	return newTranslator(config)
}

// Translate translates remediation text into the target language.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf(translationPromptTemplate, targetLanguage))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	response, err := t.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		t.logger.Error("failed to translate", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ErrEmptyResponse
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
