// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "errors"

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrSessionNotFound indicates the session id has no live session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDetectorUnavailable indicates entity detection could not run.
	// Recognition failures wrap this so handlers can refuse the message
	// instead of recording it half-analyzed.
	ErrDetectorUnavailable = errors.New("entity detector unavailable")
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError reports a rejected request field with a stable
// client-facing reason.
type ValidationError struct {
	// Field is the JSON field that failed validation.
	Field string

	// Reason is the message returned to the client.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
