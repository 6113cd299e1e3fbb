// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/observability"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/profile"
)

// =============================================================================
// Prompts
// =============================================================================

// deepSystemPrompt frames the full analysis request.
const deepSystemPrompt = "You are a helpful privacy analyst."

// deepPromptTemplate is the full analysis prompt. The placeholder receives
// the profile's inference context.
const deepPromptTemplate = `You are a privacy analyst helping users understand what can be inferred about them from the personal information they've shared in a conversation with an AI.

Given the following pieces of personal information revealed during a conversation:

%s

Please analyze what additional information can be inferred or deduced about this person. Be specific about:
1. **Likely identifiers**: Specific schools, employers, organizations they might be associated with
2. **Demographic profile**: What can be inferred about their life circumstances
3. **Location narrowing**: How the combination of information helps pinpoint their location
4. **Identity risk**: How identifiable this person is based on the combination of information

Important guidelines:
- Be specific with inferences (e.g., "likely attends Union College" rather than "attends college in that area")
- Explain your reasoning briefly
- Focus on how pieces of information COMBINE to reveal more than they would individually
- Rate the overall identifiability from 1-10 with explanation

Format your response as a clear, organized analysis that a non-technical user can understand.`

// quickPromptTemplate is the short per-message inference prompt.
const quickPromptTemplate = "Based on this personal information:\n\n%s\n\nIn 2-3 sentences, what is the most significant inference that can be made by combining these pieces of information? Focus on the most identifying combination."

// Generation parameters for the two prompt shapes.
const (
	deepTemperature  = 0.7
	deepMaxTokens    = 1000
	quickTemperature = 0.7
	quickMaxTokens   = 200
)

// =============================================================================
// Canned Responses
// =============================================================================

const (
	// noDetectionsText is served when the session has messages but no
	// detected entities. No model call is made for it.
	noDetectionsText = "No personal information has been detected yet. Share some messages to see what can be inferred."

	// noMessagesText is served for an empty session.
	noMessagesText = "No messages in the conversation yet. Add some messages to see what can be inferred."

	// quickUnavailableText is the quick-path fallback when no summarizer
	// backend is configured.
	quickUnavailableText = "Configure OPENAI_API_KEY to enable AI-powered inference."

	// quickFailedText is the quick-path fallback when the summarizer call
	// fails. The ingest still succeeds.
	quickFailedText = "Unable to generate inference at this time."
)

// =============================================================================
// Explain Entry Point
// =============================================================================

// ExplainResult is the outcome of one explanation request.
type ExplainResult struct {
	// Inference is the explanation text, generated or canned.
	Inference string

	// ProfileHash fingerprints the profile the text was computed for.
	// Empty for an empty session.
	ProfileHash string

	// Cached reports whether the stored explanation was served.
	Cached bool
}

// Explain produces the deep explanation for the session's current profile.
//
// Empty sessions and entity-free sessions get canned text without a model
// call. Otherwise the call is cache-aware: a stored explanation whose
// fingerprint still matches is served directly, and concurrent computes for
// the same profile collapse into one summarizer call.
//
// Errors wrap extensions.ErrSummarizerUnavailable when no backend is
// configured or the backend timed out; anything else is a generation
// failure. Either way the cache is left untouched.
func (s *AnalysisService) Explain(ctx context.Context, sessionID string) (*ExplainResult, error) {
	ctx, span := analysisTracer.Start(ctx, "AnalysisService.Explain")
	defer span.End()
	start := time.Now()

	if s.store.MessageCount(sessionID) == 0 {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordExplanation(observability.OutcomeDegraded)
		}
		s.auditEvent(ctx, "explain.fallback", sessionID, "fallback", nil)
		return &ExplainResult{Inference: noMessagesText}, nil
	}

	prof := profile.Build(s.store.AllEntities(sessionID))
	text, hash, cached, err := s.ExplainCached(ctx, sessionID, prof)
	if err != nil {
		if m := observability.DefaultMetrics; m != nil {
			m.RecordExplanation(observability.OutcomeFailed)
		}
		s.auditEvent(ctx, "explain.generate", sessionID, "failure", map[string]any{
			"error":   err.Error(),
			"backend": s.summarizer.Name(),
		})
		return nil, err
	}

	switch {
	case cached:
		if m := observability.DefaultMetrics; m != nil {
			m.RecordExplanation(observability.OutcomeCached)
		}
		s.auditEvent(ctx, "explain.cache_hit", sessionID, "success", nil)
	case profile.InferenceContext(prof) == profile.EmptyContext:
		if m := observability.DefaultMetrics; m != nil {
			m.RecordExplanation(observability.OutcomeDegraded)
		}
		s.auditEvent(ctx, "explain.fallback", sessionID, "fallback", nil)
	default:
		if m := observability.DefaultMetrics; m != nil {
			m.RecordExplanation(observability.OutcomeComputed)
		}
		s.auditEvent(ctx, "explain.generate", sessionID, "success", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"backend":     s.summarizer.Name(),
		})
	}

	return &ExplainResult{Inference: text, ProfileHash: hash, Cached: cached}, nil
}

// =============================================================================
// Generation Paths
// =============================================================================

// deepExplain generates the full privacy analysis for the given inference
// context. The caller handles caching; an entity-free context short-circuits
// to canned text without touching the model.
func (s *AnalysisService) deepExplain(ctx context.Context, piiContext string) (string, error) {
	if piiContext == profile.EmptyContext {
		return noDetectionsText, nil
	}

	start := time.Now()
	text, err := s.summarizer.Summarize(ctx, extensions.SummarizeRequest{
		System:      deepSystemPrompt,
		Prompt:      fmt.Sprintf(deepPromptTemplate, piiContext),
		Temperature: deepTemperature,
		MaxTokens:   deepMaxTokens,
	})
	if err != nil {
		return "", err
	}

	if m := observability.DefaultMetrics; m != nil {
		m.ObserveSummarizerLatency(time.Since(start).Seconds())
	}
	return text, nil
}

// quickExplain produces the short per-message inference. Degrades to canned
// text instead of failing: a summarizer outage must never block ingestion.
func (s *AnalysisService) quickExplain(ctx context.Context, sessionID, piiContext string) string {
	if piiContext == profile.EmptyContext {
		return piiContext
	}
	if !s.summarizer.Available() {
		return quickUnavailableText
	}

	start := time.Now()
	text, err := s.summarizer.Summarize(ctx, extensions.SummarizeRequest{
		Prompt:      fmt.Sprintf(quickPromptTemplate, piiContext),
		Temperature: quickTemperature,
		MaxTokens:   quickMaxTokens,
	})
	if err != nil {
		slog.Warn("Quick inference failed, serving fallback",
			"sessionId", sessionID,
			"error", err,
		)
		s.auditEvent(ctx, "explain.fallback", sessionID, "fallback", map[string]any{
			"error":   err.Error(),
			"backend": s.summarizer.Name(),
		})
		return quickFailedText
	}

	if m := observability.DefaultMetrics; m != nil {
		m.ObserveSummarizerLatency(time.Since(start).Seconds())
	}
	return text
}
