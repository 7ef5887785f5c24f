package openai

import (
	"fmt"
	"strings"

	"github.com/nexfix/manualbase/ai"
)

const visionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "description": {
      "type": "string"
    },
    "tags": {
      "type": "array",
      "items": {
        "type": "string"
      }
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    }
  },
  "required": ["description", "tags", "confidence"],
  "additionalProperties": false
}`

const visionPromptTemplate = `You are analyzing a figure from a printer or copier service manual. Describe
what the figure shows for a repair technician and classify it, returning JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The description is 1-3 sentences, concrete, and names visible components (rollers, sensors, connectors,
  gears) when identifiable. Do not speculate about components that are not visible.
- Each tag must match exactly one of the listed values: %s.
- Confidence is a number from 0.0 (guessing) to 1.0 (certain). Rate how sure you are that the description
  is accurate.
- If surrounding manual text is provided, use it to identify the assembly but describe only what the image
  itself shows.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Output:
{
  "description": "Exploded view of the fuser assembly showing the pressure roller, heating element, and the two retaining clips on the left side frame.",
  "tags": ["exploded_view", "parts_diagram"],
  "confidence": 0.85
}`

const translationPromptTemplate = `You are translating repair instructions from a printer or copier service
manual into the language with ISO 639-1 code "%s".

Rules:
- Output ONLY the translated text, with no preamble or explanation.
- Preserve part numbers, error codes, and measurements exactly as written.
- Keep the imperative, step-by-step register of service documentation.`

// buildVisionPrompt creates the vision system prompt with the tag
// vocabulary embedded.
func buildVisionPrompt() string {
	return fmt.Sprintf(visionPromptTemplate,
		visionResponseSchema,
		strings.Join(ai.ImageTags, ", "))
}
