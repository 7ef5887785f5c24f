package openai

import "errors"

// ErrEmptyResponse indicates the model returned no choices.
var ErrEmptyResponse = errors.New("openai: model returned no choices")
