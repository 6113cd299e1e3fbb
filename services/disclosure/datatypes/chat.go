// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the disclosure service.
//
// This file contains the message types and request validation for the
// conversation endpoints. Category and profile types live in category.go
// and profile.go.
package datatypes

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Constants for Security Compliance
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single message content.
	// Checked in bytes, not runes, to bound memory per request.
	MaxMessageContentBytes = 32 * 1024 // 32KB
)

// Role values accepted on conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for disclosure datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes checks that a string field does not exceed
// MaxMessageContentBytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Message Types
// =============================================================================

// Message is a single conversation turn together with the entities detected
// in it. Messages are immutable once appended to a session; re-analysis
// never happens.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
	Entities  []Entity  `json:"pii_entities"`
}

// AddMessageRequest is the body for appending a message to a session.
//
// # Description
//
// Content is trimmed before validation, so a whitespace-only body is
// rejected the same way as a missing one. Role defaults to "user" when
// absent; anything other than "user" or "assistant" is rejected.
//
// # Validation
//
// Uses go-playground/validator:
//   - Role: "user" or "assistant" after defaulting
//   - Content: required, max 32768 bytes after trimming
type AddMessageRequest struct {
	Role    string `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content" validate:"required,maxbytes"`
}

// Normalize trims content and applies the default role. Called by Validate;
// exposed for handlers that normalize before logging.
func (r *AddMessageRequest) Normalize() {
	r.Content = strings.TrimSpace(r.Content)
	if r.Role == "" {
		r.Role = RoleUser
	}
}

// Validate normalizes the request in place and checks it, returning a
// *ValidationError with a client-facing reason on failure.
func (r *AddMessageRequest) Validate() error {
	r.Normalize()
	if err := chatValidate.Struct(r); err != nil {
		return mapValidationError(err)
	}
	return nil
}

// mapValidationError converts validator output into the stable client-facing
// reasons the API returns.
func mapValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		switch {
		case fe.Field() == "Content" && fe.Tag() == "required":
			return &ValidationError{Field: "content", Reason: "Message content is required"}
		case fe.Field() == "Content" && fe.Tag() == "maxbytes":
			return &ValidationError{Field: "content", Reason: "Message content exceeds the 32KB limit"}
		case fe.Field() == "Role":
			return &ValidationError{Field: "role", Reason: "Role must be 'user' or 'assistant'"}
		}
	}
	return err
}
