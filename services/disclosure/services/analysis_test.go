// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/store"
)

// =============================================================================
// Fakes
// =============================================================================

// fakeDetector returns a fixed set of entities, or a fixed error.
type fakeDetector struct {
	mu       sync.Mutex
	entities []datatypes.Entity
	err      error
	calls    int
	lastText string
}

func (d *fakeDetector) Detect(_ context.Context, text, _ string, messageIndex int) ([]datatypes.Entity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.lastText = text
	if d.err != nil {
		return nil, d.err
	}
	out := make([]datatypes.Entity, len(d.entities))
	copy(out, d.entities)
	for i := range out {
		out[i].MessageIndex = messageIndex
	}
	return out, nil
}

func (d *fakeDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDetector) setEntities(entities []datatypes.Entity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entities = entities
}

// fakeSummarizer records requests and serves a fixed response or error.
// Deep and quick calls are counted separately by the presence of a system
// prompt. When release is set, Summarize blocks until it is closed, which
// lets tests hold a generation open.
type fakeSummarizer struct {
	mu         sync.Mutex
	available  bool
	response   string
	err        error
	deepCalls  int
	quickCalls int
	lastReq    extensions.SummarizeRequest
	release    chan struct{}
}

func (f *fakeSummarizer) Summarize(ctx context.Context, req extensions.SummarizeRequest) (string, error) {
	f.mu.Lock()
	if req.System != "" {
		f.deepCalls++
	} else {
		f.quickCalls++
	}
	f.lastReq = req
	release := f.release
	err := f.err
	resp := f.response
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return resp, nil
}

func (f *fakeSummarizer) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *fakeSummarizer) Name() string { return "fake" }

func (f *fakeSummarizer) deepCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deepCalls
}

func (f *fakeSummarizer) quickCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quickCalls
}

func (f *fakeSummarizer) lastRequest() extensions.SummarizeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func (f *fakeSummarizer) setRelease(ch chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release = ch
}

func (f *fakeSummarizer) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

var _ extensions.Summarizer = (*fakeSummarizer)(nil)

// =============================================================================
// Helpers
// =============================================================================

func newTestService(t *testing.T, det *fakeDetector, sum *fakeSummarizer) (*AnalysisService, *store.Store, *extensions.MemoryAuditLogger) {
	t.Helper()
	st := store.New()
	audit := extensions.NewMemoryAuditLogger(64)
	return NewAnalysisService(st, det, sum, audit), st, audit
}

func entity(text, entityType string) datatypes.Entity {
	return datatypes.Entity{
		Text:       text,
		Type:       entityType,
		Confidence: 0.9,
		Start:      0,
		End:        len(text),
		Color:      datatypes.ColorFor(entityType),
	}
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// =============================================================================
// Ingest Tests
// =============================================================================

func TestIngest_FullPipeline(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{
		entity("bob@example.com", "EMAIL_ADDRESS"),
		entity("Bob", "PERSON"),
	}}
	sum := &fakeSummarizer{available: false}
	svc, st, _ := newTestService(t, det, sum)

	result, err := svc.Ingest(context.Background(), "s1", "user", "I'm Bob, bob@example.com")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.SessionID != "s1" {
		t.Errorf("SessionID = %q, want %q", result.SessionID, "s1")
	}
	if len(result.Message.Entities) != 2 {
		t.Fatalf("message entities = %d, want 2", len(result.Message.Entities))
	}
	for _, e := range result.Message.Entities {
		if e.MessageIndex != 0 {
			t.Errorf("entity %q MessageIndex = %d, want 0", e.Text, e.MessageIndex)
		}
	}
	if result.Profile.TotalEntities != 2 {
		t.Errorf("profile TotalEntities = %d, want 2", result.Profile.TotalEntities)
	}
	if result.Profile.IdentifiabilityScore <= 0 {
		t.Errorf("profile score = %v, want > 0", result.Profile.IdentifiabilityScore)
	}
	if result.QuickInference != nil {
		t.Errorf("QuickInference = %q, want nil with no summarizer", *result.QuickInference)
	}
	if st.MessageCount("s1") != 1 {
		t.Errorf("store MessageCount = %d, want 1", st.MessageCount("s1"))
	}
}

func TestIngest_SecondMessageGetsNextIndex(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("Albany", "LOCATION")}}
	sum := &fakeSummarizer{}
	svc, _, _ := newTestService(t, det, sum)

	if _, err := svc.Ingest(context.Background(), "s1", "user", "first"); err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}
	result, err := svc.Ingest(context.Background(), "s1", "assistant", "second")
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}

	if result.Message.Entities[0].MessageIndex != 1 {
		t.Errorf("second message entity index = %d, want 1", result.Message.Entities[0].MessageIndex)
	}
	if result.Profile.TotalEntities != 2 {
		t.Errorf("profile TotalEntities = %d, want 2", result.Profile.TotalEntities)
	}
}

func TestIngest_ValidationRunsBeforeDetection(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		content    string
		wantReason string
	}{
		{
			name:       "Empty content",
			role:       "user",
			content:    "",
			wantReason: "Message content is required",
		},
		{
			name:       "Whitespace-only content",
			role:       "user",
			content:    "   \n\t  ",
			wantReason: "Message content is required",
		},
		{
			name:       "Unknown role",
			role:       "system",
			content:    "hello",
			wantReason: "Role must be 'user' or 'assistant'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &fakeDetector{}
			svc, st, _ := newTestService(t, det, &fakeSummarizer{})

			_, err := svc.Ingest(context.Background(), "s1", tt.role, tt.content)
			if err == nil {
				t.Fatal("Ingest() succeeded, want validation error")
			}
			if !datatypes.IsValidation(err) {
				t.Errorf("IsValidation(%v) = false, want true", err)
			}
			if err.Error() != tt.wantReason {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantReason)
			}
			if det.callCount() != 0 {
				t.Errorf("detector ran %d times on invalid input, want 0", det.callCount())
			}
			if st.MessageCount("s1") != 0 {
				t.Errorf("store MessageCount = %d after rejected message, want 0", st.MessageCount("s1"))
			}
		})
	}
}

func TestIngest_EmptyRoleDefaultsToUser(t *testing.T) {
	det := &fakeDetector{}
	svc, _, _ := newTestService(t, det, &fakeSummarizer{})

	result, err := svc.Ingest(context.Background(), "s1", "", "hello there")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.Message.Role != "user" {
		t.Errorf("role = %q, want %q", result.Message.Role, "user")
	}
}

func TestIngest_DetectorFailureRecordsNothing(t *testing.T) {
	detErr := fmt.Errorf("%w: recognizer rules: %w", datatypes.ErrDetectorUnavailable, errors.New("model load failed"))
	det := &fakeDetector{err: detErr}
	svc, st, audit := newTestService(t, det, &fakeSummarizer{})

	_, err := svc.Ingest(context.Background(), "s1", "user", "my email is bob@example.com")
	if err == nil {
		t.Fatal("Ingest() succeeded, want detector error")
	}
	if !errors.Is(err, datatypes.ErrDetectorUnavailable) {
		t.Errorf("error %v should wrap ErrDetectorUnavailable", err)
	}
	if st.MessageCount("s1") != 0 {
		t.Errorf("store MessageCount = %d after failed detection, want 0", st.MessageCount("s1"))
	}

	events, qerr := audit.Query(context.Background(), extensions.AuditFilter{
		EventTypes: []string{"message.ingest"},
	})
	if qerr != nil {
		t.Fatalf("audit Query() error = %v", qerr)
	}
	if len(events) != 1 {
		t.Fatalf("audit events = %d, want 1", len(events))
	}
	if events[0].Outcome != "failure" {
		t.Errorf("audit outcome = %q, want %q", events[0].Outcome, "failure")
	}
}

func TestIngest_QuickInferenceWhenEntitiesDetected(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("bob@example.com", "EMAIL_ADDRESS")}}
	sum := &fakeSummarizer{available: true, response: "They can be reached directly."}
	svc, _, _ := newTestService(t, det, sum)

	result, err := svc.Ingest(context.Background(), "s1", "user", "my email is bob@example.com")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if result.QuickInference == nil {
		t.Fatal("QuickInference = nil, want text")
	}
	if *result.QuickInference != "They can be reached directly." {
		t.Errorf("QuickInference = %q, want the summarizer response", *result.QuickInference)
	}

	req := sum.lastRequest()
	if req.System != "" {
		t.Errorf("quick request system = %q, want empty", req.System)
	}
	if req.Temperature != 0.7 {
		t.Errorf("quick request temperature = %v, want 0.7", req.Temperature)
	}
	if req.MaxTokens != 200 {
		t.Errorf("quick request max tokens = %d, want 200", req.MaxTokens)
	}
	if !strings.Contains(req.Prompt, "bob@example.com") {
		t.Errorf("quick prompt should contain the detected value, got %q", req.Prompt)
	}
	if !strings.Contains(req.Prompt, "Based on this personal information:") {
		t.Errorf("quick prompt missing preamble, got %q", req.Prompt)
	}
}

func TestIngest_QuickInferenceSkippedWithoutEntities(t *testing.T) {
	det := &fakeDetector{}
	sum := &fakeSummarizer{available: true, response: "unused"}
	svc, _, _ := newTestService(t, det, sum)

	result, err := svc.Ingest(context.Background(), "s1", "user", "nothing personal here")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.QuickInference != nil {
		t.Errorf("QuickInference = %q, want nil for an entity-free session", *result.QuickInference)
	}
	if sum.quickCallCount() != 0 {
		t.Errorf("summarizer quick calls = %d, want 0", sum.quickCallCount())
	}
}

func TestIngest_QuickInferenceCoversWholeSession(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("bob@example.com", "EMAIL_ADDRESS")}}
	sum := &fakeSummarizer{available: true, response: "They can be reached directly."}
	svc, _, _ := newTestService(t, det, sum)

	if _, err := svc.Ingest(context.Background(), "s1", "user", "my email is bob@example.com"); err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}

	// A follow-up that reveals nothing new still gets an inference, because
	// the session's accumulated profile is what gets summarized.
	det.setEntities(nil)

	result, err := svc.Ingest(context.Background(), "s1", "user", "anyway, how are you?")
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	if result.QuickInference == nil {
		t.Fatal("QuickInference = nil, want text for a session with prior disclosures")
	}
	if sum.quickCallCount() != 2 {
		t.Errorf("summarizer quick calls = %d, want 2", sum.quickCallCount())
	}
}

func TestIngest_QuickInferenceSkippedWhenUnavailable(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("Bob", "PERSON")}}
	sum := &fakeSummarizer{available: false}
	svc, _, _ := newTestService(t, det, sum)

	result, err := svc.Ingest(context.Background(), "s1", "user", "I'm Bob")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.QuickInference != nil {
		t.Errorf("QuickInference = %q, want nil when no summarizer is configured", *result.QuickInference)
	}
	if sum.quickCallCount() != 0 {
		t.Errorf("summarizer quick calls = %d, want 0", sum.quickCallCount())
	}
}

func TestIngest_QuickInferenceFailureDegrades(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("Bob", "PERSON")}}
	sum := &fakeSummarizer{available: true, err: errors.New("backend exploded")}
	svc, _, _ := newTestService(t, det, sum)

	result, err := svc.Ingest(context.Background(), "s1", "user", "I'm Bob")
	if err != nil {
		t.Fatalf("Ingest() error = %v, ingest must survive a quick inference failure", err)
	}
	if result.QuickInference == nil {
		t.Fatal("QuickInference = nil, want fallback text")
	}
	if *result.QuickInference != "Unable to generate inference at this time." {
		t.Errorf("QuickInference = %q, want the fallback text", *result.QuickInference)
	}
}

func TestIngest_AuditTrail(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("Bob", "PERSON")}}
	svc, _, audit := newTestService(t, det, &fakeSummarizer{})

	if _, err := svc.Ingest(context.Background(), "s1", "user", "I'm Bob"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	events, err := audit.Query(context.Background(), extensions.AuditFilter{
		EventTypes: []string{"message.ingest"},
		SessionID:  "s1",
	})
	if err != nil {
		t.Fatalf("audit Query() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("audit events = %d, want 1", len(events))
	}

	got := events[0]
	if got.Outcome != "success" {
		t.Errorf("outcome = %q, want %q", got.Outcome, "success")
	}
	if got.Metadata["entities_detected"] != 1 {
		t.Errorf("entities_detected = %v, want 1", got.Metadata["entities_detected"])
	}
	if _, ok := got.Metadata["duration_ms"]; !ok {
		t.Error("duration_ms missing from audit metadata")
	}
	for key := range got.Metadata {
		if key == "content" || key == "text" || key == "value" {
			t.Errorf("audit metadata contains content-like key %q", key)
		}
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestCreateSession(t *testing.T) {
	svc, st, audit := newTestService(t, &fakeDetector{}, &fakeSummarizer{})

	sess := svc.CreateSession(context.Background())
	if sess.ID == "" {
		t.Fatal("CreateSession() returned empty id")
	}
	if sess.CreatedAt.IsZero() {
		t.Error("CreateSession() returned zero CreatedAt")
	}
	if st.Len() != 1 {
		t.Errorf("store Len() = %d, want 1", st.Len())
	}

	events, err := audit.Query(context.Background(), extensions.AuditFilter{
		EventTypes: []string{"session.create"},
	})
	if err != nil {
		t.Fatalf("audit Query() error = %v", err)
	}
	if len(events) != 1 || events[0].SessionID != sess.ID {
		t.Errorf("expected one session.create event for %s, got %v", sess.ID, events)
	}
}

func TestResetSession(t *testing.T) {
	det := &fakeDetector{}
	svc, st, audit := newTestService(t, det, &fakeSummarizer{})

	if _, err := svc.Ingest(context.Background(), "s1", "user", "hello"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if removed := svc.ResetSession(context.Background(), "s1"); !removed {
		t.Error("ResetSession(existing) = false, want true")
	}
	if st.Len() != 0 {
		t.Errorf("store Len() = %d after reset, want 0", st.Len())
	}
	if removed := svc.ResetSession(context.Background(), "never-existed"); removed {
		t.Error("ResetSession(unknown) = true, want false")
	}

	events, err := audit.Query(context.Background(), extensions.AuditFilter{
		EventTypes: []string{"session.reset"},
	})
	if err != nil {
		t.Fatalf("audit Query() error = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("session.reset events = %d, want 2", len(events))
	}
}

// =============================================================================
// Read View Tests
// =============================================================================

func TestProfileView_UnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDetector{}, &fakeSummarizer{})

	prof, count := svc.ProfileView("never-created")
	if count != 0 {
		t.Errorf("message count = %d, want 0", count)
	}
	if prof.TotalEntities != 0 {
		t.Errorf("TotalEntities = %d, want 0", prof.TotalEntities)
	}
	if prof.IdentifiabilityScore != 0 {
		t.Errorf("score = %v, want 0", prof.IdentifiabilityScore)
	}
}

func TestMessages_OrderPreserved(t *testing.T) {
	det := &fakeDetector{}
	svc, _, _ := newTestService(t, det, &fakeSummarizer{})

	for _, content := range []string{"one", "two", "three"} {
		if _, err := svc.Ingest(context.Background(), "s1", "user", content); err != nil {
			t.Fatalf("Ingest(%q) error = %v", content, err)
		}
	}

	msgs := svc.Messages("s1")
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	for i, want := range []string{"one", "two", "three"} {
		if msgs[i].Content != want {
			t.Errorf("message[%d] = %q, want %q", i, msgs[i].Content, want)
		}
	}
}

func TestWatch_NotifiedOnIngest(t *testing.T) {
	det := &fakeDetector{}
	svc, _, _ := newTestService(t, det, &fakeSummarizer{})

	ch, cancel := svc.Watch("s1")
	defer cancel()

	if _, err := svc.Ingest(context.Background(), "s1", "user", "hello"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no watch notification after ingest")
	}
}

func TestInferenceAvailable(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeDetector{}, &fakeSummarizer{available: true})
	if !svc.InferenceAvailable() {
		t.Error("InferenceAvailable() = false with a configured summarizer")
	}

	svc2, _, _ := newTestService(t, &fakeDetector{}, &fakeSummarizer{available: false})
	if svc2.InferenceAvailable() {
		t.Error("InferenceAvailable() = true with no summarizer")
	}
}
