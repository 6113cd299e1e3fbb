// Package llm provides text generation backends for inference explanations.
//
// A Client is the raw transport to one model API. The Summarizer wraps a
// Client with rate limiting, a request timeout, and the translation from
// the disclosure service's request shape, and is what the rest of the
// system consumes.
package llm

import "context"

// GenerationParams carries per-request sampling parameters. Pointer fields
// distinguish "not set" from an explicit zero; backends substitute their
// own defaults for nil fields.
type GenerationParams struct {
	System      string   `json:"system,omitempty"`
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Client is the standard interface for any text generation backend.
type Client interface {
	// Generate produces a completion for the prompt. The returned text is
	// raw backend output; callers trim it.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Name identifies the backend in logs and health reporting.
	Name() string
}
