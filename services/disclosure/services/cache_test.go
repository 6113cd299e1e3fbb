// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

func TestExplain_ConcurrentCallsCollapse(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("bob@example.com", "EMAIL_ADDRESS")}}
	sum := &fakeSummarizer{available: false, response: "One shared analysis."}
	svc, _, _ := newTestService(t, det, sum)

	if _, err := svc.Ingest(context.Background(), "s1", "user", "reach me at bob@example.com"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	release := make(chan struct{})
	sum.setRelease(release)

	const callers = 4
	results := make([]*ExplainResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Explain(context.Background(), "s1")
		}(i)
	}

	// Wait until the first caller is inside the summarizer, then let the
	// generation finish for everyone at once.
	waitFor(t, 2*time.Second, func() bool { return sum.deepCallCount() == 1 })
	close(release)
	wg.Wait()

	if got := sum.deepCallCount(); got != 1 {
		t.Errorf("summarizer deep calls = %d, want 1 for concurrent callers", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if results[i].Inference != "One shared analysis." {
			t.Errorf("caller %d Inference = %q, want the shared text", i, results[i].Inference)
		}
		if results[i].Cached {
			t.Errorf("caller %d Cached = true, want false for a collapsed compute", i)
		}
	}
}

func TestExplain_AppendInvalidatesCache(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("bob@example.com", "EMAIL_ADDRESS")}}
	sum := &fakeSummarizer{available: false, response: "Analysis v1."}
	svc, _, _ := newTestService(t, det, sum)

	if _, err := svc.Ingest(context.Background(), "s1", "user", "reach me at bob@example.com"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	first, err := svc.Explain(context.Background(), "s1")
	if err != nil {
		t.Fatalf("first Explain() error = %v", err)
	}

	det.setEntities([]datatypes.Entity{entity("Albany", "LOCATION")})
	sum.mu.Lock()
	sum.response = "Analysis v2."
	sum.mu.Unlock()
	if _, err := svc.Ingest(context.Background(), "s1", "user", "I live near Albany"); err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}

	second, err := svc.Explain(context.Background(), "s1")
	if err != nil {
		t.Fatalf("second Explain() error = %v", err)
	}

	if second.Cached {
		t.Error("Explain() after append served stale cache")
	}
	if second.Inference != "Analysis v2." {
		t.Errorf("Inference = %q, want fresh text", second.Inference)
	}
	if second.ProfileHash == first.ProfileHash {
		t.Error("profile hash unchanged after the profile grew")
	}
	if sum.deepCallCount() != 2 {
		t.Errorf("summarizer deep calls = %d, want 2", sum.deepCallCount())
	}
}

func TestExplain_ResetDuringGeneration(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("Bob", "PERSON")}}
	sum := &fakeSummarizer{available: false, response: "Analysis of a gone session."}
	svc, st, _ := newTestService(t, det, sum)

	if _, err := svc.Ingest(context.Background(), "s1", "user", "I'm Bob"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	release := make(chan struct{})
	sum.setRelease(release)

	type explainOutcome struct {
		result *ExplainResult
		err    error
	}
	done := make(chan explainOutcome, 1)
	go func() {
		result, err := svc.Explain(context.Background(), "s1")
		done <- explainOutcome{result, err}
	}()

	// Reset the session while the generation is in flight.
	waitFor(t, 2*time.Second, func() bool { return sum.deepCallCount() == 1 })
	if removed := svc.ResetSession(context.Background(), "s1"); !removed {
		t.Fatal("ResetSession() = false, want true")
	}
	close(release)

	outcome := <-done
	if outcome.err != nil {
		t.Fatalf("Explain() error = %v, the caller should still get the text", outcome.err)
	}
	if outcome.result.Inference != "Analysis of a gone session." {
		t.Errorf("Inference = %q, want the generated text", outcome.result.Inference)
	}
	if text, hash := st.CachedExplanation("s1"); text != "" || hash != "" {
		t.Errorf("cache = (%q, %q) for a reset session, want empty", text, hash)
	}
	if st.Len() != 0 {
		t.Errorf("store Len() = %d, want 0 after reset", st.Len())
	}
}

func TestExplain_SessionsCacheIndependently(t *testing.T) {
	det := &fakeDetector{entities: []datatypes.Entity{entity("Bob", "PERSON")}}
	sum := &fakeSummarizer{available: false, response: "Shared-shape analysis."}
	svc, _, _ := newTestService(t, det, sum)

	for _, id := range []string{"s1", "s2"} {
		if _, err := svc.Ingest(context.Background(), id, "user", "I'm Bob"); err != nil {
			t.Fatalf("Ingest(%s) error = %v", id, err)
		}
	}

	first, err := svc.Explain(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Explain(s1) error = %v", err)
	}
	second, err := svc.Explain(context.Background(), "s2")
	if err != nil {
		t.Fatalf("Explain(s2) error = %v", err)
	}

	// Identical profiles fingerprint identically, but each session computes
	// and caches its own copy.
	if first.ProfileHash != second.ProfileHash {
		t.Errorf("hashes differ for identical profiles: %q vs %q", first.ProfileHash, second.ProfileHash)
	}
	if sum.deepCallCount() != 2 {
		t.Errorf("summarizer deep calls = %d, want 2", sum.deepCallCount())
	}

	for _, id := range []string{"s1", "s2"} {
		again, err := svc.Explain(context.Background(), id)
		if err != nil {
			t.Fatalf("repeat Explain(%s) error = %v", id, err)
		}
		if !again.Cached {
			t.Errorf("repeat Explain(%s) Cached = false, want true", id)
		}
	}
}
