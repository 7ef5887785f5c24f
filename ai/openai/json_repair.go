package openai

import (
	"regexp"
	"strings"
)

// unquotedKeyPattern matches an object key that lost its opening quote,
// e.g. `, tags":` instead of `, "tags":`.
var unquotedKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z_ ]*)":`)

// repairJSON attempts to fix common JSON formatting issues from LLM
// responses before unmarshaling.
func repairJSON(s string) string {
	s = unquotedKeyPattern.ReplaceAllString(s, `$1"$2":`)
	// Trailing comma before a closing brace or bracket
	s = strings.ReplaceAll(s, ",}", "}")
	s = strings.ReplaceAll(s, ",]", "]")
	return s
}

// stripCodeFences removes markdown code fences some models wrap around
// JSON output despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
