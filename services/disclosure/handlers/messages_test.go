// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

func newMessagesRouter(det *fakeDetector, sum *fakeSummarizer) *gin.Engine {
	svc := newTestService(det, sum)
	router := gin.New()
	router.POST("/v1/sessions/:sessionId/messages", AddMessage(svc))
	return router
}

func TestAddMessage_FullResponse(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{personEntity("Bob")}}
	sum := &fakeSummarizer{available: true, response: "They shared their name."}
	router := newMessagesRouter(det, sum)

	w := performRequest(router, "POST", "/v1/sessions/s1/messages", `{"role": "user", "content": "I'm Bob"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message struct {
			Role     string             `json:"role"`
			Content  string             `json:"content"`
			Entities []datatypes.Entity `json:"pii_entities"`
		} `json:"message"`
		Profile struct {
			TotalEntities        int     `json:"total_entities"`
			IdentifiabilityScore float64 `json:"identifiability_score"`
		} `json:"profile"`
		QuickInference *string `json:"quick_inference"`
		SessionID      string  `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if resp.Message.Role != "user" || resp.Message.Content != "I'm Bob" {
		t.Errorf("message = %+v", resp.Message)
	}
	if len(resp.Message.Entities) != 1 {
		t.Fatalf("entities = %d, want 1", len(resp.Message.Entities))
	}
	if resp.Profile.TotalEntities != 1 || resp.Profile.IdentifiabilityScore <= 0 {
		t.Errorf("profile = %+v", resp.Profile)
	}
	if resp.QuickInference == nil || *resp.QuickInference != "They shared their name." {
		t.Errorf("quick_inference = %v, want the summarizer response", resp.QuickInference)
	}
	if resp.SessionID != "s1" {
		t.Errorf("session_id = %q, want s1", resp.SessionID)
	}
}

func TestAddMessage_QuickInferenceNullWithoutSummarizer(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{personEntity("Bob")}}
	router := newMessagesRouter(det, &fakeSummarizer{available: false})

	w := performRequest(router, "POST", "/v1/sessions/s1/messages", `{"content": "I'm Bob"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"quick_inference":null`) {
		t.Errorf("body = %s, want quick_inference null", w.Body.String())
	}
}

func TestAddMessage_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			name:      "Empty content",
			body:      `{"content": ""}`,
			wantError: "Message content is required",
		},
		{
			name:      "Whitespace content",
			body:      `{"content": "   "}`,
			wantError: "Message content is required",
		},
		{
			name:      "Bad role",
			body:      `{"role": "system", "content": "hi"}`,
			wantError: "Role must be 'user' or 'assistant'",
		},
		{
			name:      "Oversize content",
			body:      fmt.Sprintf(`{"content": %q}`, strings.Repeat("a", 32*1024+1)),
			wantError: "Message content exceeds the 32KB limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newMessagesRouter(&fakeDetector{}, &fakeSummarizer{})
			w := performRequest(router, "POST", "/v1/sessions/s1/messages", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}

			var resp struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestAddMessage_MalformedJSON(t *testing.T) {
	router := newMessagesRouter(&fakeDetector{}, &fakeSummarizer{})

	w := performRequest(router, "POST", "/v1/sessions/s1/messages", `{"content": `)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid request body") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAddMessage_DetectorFailureIs502(t *testing.T) {
	det := &fakeDetector{err: fmt.Errorf("%w: recognizer rules: %w",
		datatypes.ErrDetectorUnavailable, errors.New("model load failed"))}
	svc := newTestService(det, &fakeSummarizer{})
	router := gin.New()
	router.POST("/v1/sessions/:sessionId/messages", AddMessage(svc))
	router.GET("/v1/sessions/:sessionId/messages", ListMessages(svc))

	w := performRequest(router, "POST", "/v1/sessions/s1/messages", `{"content": "my ssn is 000-00-0000"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if resp.Error != detectorDownMessage {
		t.Errorf("error = %q, want %q", resp.Error, detectorDownMessage)
	}

	// The refused message was not recorded.
	w = performRequest(router, "GET", "/v1/sessions/s1/messages", "")
	if !strings.Contains(w.Body.String(), `"messages":[]`) {
		t.Errorf("body = %s, refused message should not be stored", w.Body.String())
	}
}
