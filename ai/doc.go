// Package ai defines the AI service interfaces used by the document
// pipeline: text embedding, image analysis, and solution translation.
//
// The interfaces are implemented by provider packages:
//
//   - ai/openai: OpenAI-compatible APIs (Ollama, LocalAI, vLLM, OpenAI)
//   - ai/mock: deterministic test doubles
//
// Constructors in provider packages return these interfaces rather than
// concrete types, so callers stay decoupled from any particular backend.
// All implementations must be safe for concurrent use; the vision stage in
// particular runs analyses from a worker pool.
package ai
