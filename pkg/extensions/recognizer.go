// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import "context"

// Finding is a single span of personal information detected in text.
//
// Findings are the raw output of a Recognizer. They carry the entity
// type vocabulary of the detector (PERSON, EMAIL_ADDRESS, ...), the
// matched text, the character offsets into the analyzed string, and
// the detector's confidence. Higher layers decide what to keep: the
// disclosure service filters by confidence threshold and maps types
// to display categories.
//
// Example:
//
//	Finding{
//	    Type:       "EMAIL_ADDRESS",
//	    Value:      "alex@example.com",
//	    Start:      11,
//	    End:        27,
//	    Confidence: 0.95,
//	}
type Finding struct {
	// Type is the detector's entity type label.
	// Examples: "PERSON", "LOCATION", "EMAIL_ADDRESS", "US_SSN"
	Type string

	// Value is the matched text exactly as it appeared.
	Value string

	// Start is the rune offset of the first matched character.
	Start int

	// End is the rune offset one past the last matched character.
	End int

	// Confidence is the detector's score in [0, 1].
	// Pattern detectors typically report fixed per-rule confidences;
	// model detectors report per-prediction scores.
	Confidence float64
}

// Recognizer detects personal information in free text.
//
// Implementations must be safe for concurrent use by multiple
// goroutines. Recognize may be called with arbitrary user text
// including empty strings.
//
// # Default Behavior
//
// The default NopRecognizer finds nothing. The disclosure service
// still accepts and stores messages; profiles simply stay empty.
//
// # Real Implementations
//
// The recognition service provides two implementations: a rule engine
// compiled from a YAML pattern catalog, and an ONNX token classifier.
// Both can be composed so model findings supplement rule findings.
type Recognizer interface {
	// Recognize scans text and returns all findings.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - text: The text to scan (may be empty)
	//
	// Returns:
	//   - []Finding: Detected spans, in no particular order. May be empty.
	//   - error: Non-nil if the detector itself failed (not "no findings")
	//
	// An empty result with nil error means the text was scanned and
	// nothing was found. Callers treat a non-nil error as detector
	// unavailability, not as an empty scan.
	Recognize(ctx context.Context, text string) ([]Finding, error)

	// Name identifies the detector for logs and diagnostics.
	// Examples: "rules", "onnx", "rules+onnx"
	Name() string
}

// NopRecognizer is the default recognizer.
//
// It scans nothing and finds nothing. This keeps the disclosure
// service functional when no detector is configured: messages are
// stored, profiles stay empty, scores stay zero.
//
// Thread-safe: This implementation has no mutable state.
type NopRecognizer struct{}

// Recognize returns no findings.
//
// Always returns nil slice and nil error regardless of input.
func (r *NopRecognizer) Recognize(_ context.Context, _ string) ([]Finding, error) {
	return nil, nil
}

// Name returns "nop".
func (r *NopRecognizer) Name() string { return "nop" }

// Compile-time interface compliance check.
var _ Recognizer = (*NopRecognizer)(nil)
