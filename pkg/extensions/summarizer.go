// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"errors"
)

// ErrSummarizerUnavailable is returned by Summarize when no backend
// is configured or the configured backend cannot be reached.
//
// Callers check for this with errors.Is and substitute canned text
// rather than failing the whole request.
var ErrSummarizerUnavailable = errors.New("summarizer unavailable")

// SummarizeRequest carries one generation request to a Summarizer.
//
// The disclosure service builds the prompt text; the summarizer only
// transports it to a language model. Sampling parameters are part of
// the request so different call sites (the full explanation vs the
// one-line quick inference) can use different budgets.
type SummarizeRequest struct {
	// System is the optional system prompt. Empty means the backend
	// sends no system message.
	System string

	// Prompt is the user-role prompt text. Required.
	Prompt string

	// Temperature controls sampling randomness. Zero means use the
	// backend default.
	Temperature float64

	// MaxTokens caps the generated length. Zero means use the
	// backend default.
	MaxTokens int
}

// Summarizer generates natural-language text from a prompt.
//
// Implementations must be safe for concurrent use. Summarize is
// expected to be slow (seconds); callers hold no session locks while
// waiting and bound the call with a context deadline.
//
// # Default Behavior
//
// The default NopSummarizer reports Available() == false and fails
// every Summarize call with ErrSummarizerUnavailable. The disclosure
// service detects this state up front and serves canned fallback text
// without attempting a call.
//
// # Real Implementations
//
// The llm service provides OpenAI-compatible and Ollama backends.
// Both treat a context deadline the same as backend unavailability.
type Summarizer interface {
	// Summarize generates text for the given request.
	//
	// Parameters:
	//   - ctx: Context carrying the caller's deadline
	//   - req: Prompt and sampling parameters
	//
	// Returns:
	//   - string: The generated text, whitespace-trimmed
	//   - error: ErrSummarizerUnavailable if no backend is usable,
	//     or the backend's error (including ctx.Err()) on failure
	Summarize(ctx context.Context, req SummarizeRequest) (string, error)

	// Available reports whether a backend is configured and believed
	// usable. A true result is not a guarantee that the next call
	// succeeds; a false result means Summarize will certainly fail.
	Available() bool

	// Name identifies the backend for logs and diagnostics.
	// Examples: "openai", "ollama", "nop"
	Name() string
}

// NopSummarizer is the default summarizer.
//
// It has no backend: Available returns false and Summarize always
// fails with ErrSummarizerUnavailable. The disclosure service serves
// canned fallback text in this state.
//
// Thread-safe: This implementation has no mutable state.
type NopSummarizer struct{}

// Summarize always fails with ErrSummarizerUnavailable.
func (s *NopSummarizer) Summarize(_ context.Context, _ SummarizeRequest) (string, error) {
	return "", ErrSummarizerUnavailable
}

// Available returns false.
func (s *NopSummarizer) Available() bool { return false }

// Name returns "nop".
func (s *NopSummarizer) Name() string { return "nop" }

// Compile-time interface compliance check.
var _ Summarizer = (*NopSummarizer)(nil)
