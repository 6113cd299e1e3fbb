// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package recognition

import (
	"context"
	"errors"
	"testing"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
)

func TestMulti_ConcatenatesFindings(t *testing.T) {
	rules := &stubRecognizer{name: "rules", findings: []extensions.Finding{
		finding("EMAIL_ADDRESS", "a@b.com", 0, 7, 0.85),
	}}
	model := &stubRecognizer{name: "ner-model", findings: []extensions.Finding{
		finding("PERSON", "Alex", 12, 16, 0.92),
	}}

	combined := Multi(rules, model)
	findings, err := combined.Recognize(context.Background(), "a@b.com and Alex")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Expected 2 findings from 2 parts, got %d: %+v", len(findings), findings)
	}
	if combined.Name() != "rules+ner-model" {
		t.Errorf("Name() = %q, want %q", combined.Name(), "rules+ner-model")
	}
}

func TestMulti_FirstErrorAborts(t *testing.T) {
	modelErr := errors.New("session not loaded")
	rules := &stubRecognizer{name: "rules", findings: []extensions.Finding{
		finding("EMAIL_ADDRESS", "a@b.com", 0, 7, 0.85),
	}}
	model := &stubRecognizer{name: "ner-model", err: modelErr}

	findings, err := Multi(rules, model).Recognize(context.Background(), "a@b.com")
	if err == nil {
		t.Fatal("Expected error from the failing part")
	}
	if !errors.Is(err, modelErr) {
		t.Errorf("Error %v should wrap the part's error", err)
	}
	if err.Error() != "ner-model: session not loaded" {
		t.Errorf("Error = %q, want the failing part named", err.Error())
	}
	if findings != nil {
		t.Errorf("Findings = %+v on error, want nil", findings)
	}
}

func TestMulti_Degenerate(t *testing.T) {
	if got := Multi(); got.Name() != "nop" {
		t.Errorf("Multi() = %q, want the nop recognizer", got.Name())
	}

	single := &stubRecognizer{name: "rules"}
	if got := Multi(single); got != extensions.Recognizer(single) {
		t.Error("Multi(one) should return the part unwrapped")
	}
}
