// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package services provides business logic services for the disclosure
// service.
//
// This package contains service structs that encapsulate business logic,
// separating it from HTTP handlers. Services are responsible for:
//   - Orchestrating detection, profile building, and explanation calls
//   - Applying validation before any session state changes
//   - Keeping recognizer and summarizer calls outside store locks
//
// Services are designed to be:
//   - Testable: Dependencies are injected via constructors
//   - Composable: Services can call other services
//   - Traceable: All methods accept context for distributed tracing
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/observability"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/profile"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

// analysisTracer is the OpenTelemetry tracer for AnalysisService operations.
var analysisTracer = otel.Tracer("mirror.disclosure.services.analysis")

// =============================================================================
// Interfaces
// =============================================================================

// Detector turns message text into classified entities.
//
// The production implementation is *recognition.Adapter, which composes the
// configured recognizers, applies the confidence threshold, and resolves
// overlapping spans. A Detector error means detection could not run to
// completion; callers must refuse the message rather than record it with
// partial findings.
type Detector interface {
	// Detect analyzes text and returns the surviving entities. messageIndex
	// is stamped onto each entity; lang other than "en" (or empty) is
	// rejected.
	Detect(ctx context.Context, text, lang string, messageIndex int) ([]datatypes.Entity, error)
}

// =============================================================================
// AnalysisService
// =============================================================================

// AnalysisService coordinates the disclosure pipeline for one store:
// validate, detect, append, rebuild the profile, and explain. It owns the
// ordering rules the pipeline depends on:
//   - validation rejects a message before detection runs
//   - detection and summarization happen outside all store locks
//   - a failed detection records nothing
//
// Usage:
//
//	svc := NewAnalysisService(store, detector, summarizer, audit)
//	result, err := svc.Ingest(ctx, sessionID, "user", content)
type AnalysisService struct {
	store      *store.Store
	detector   Detector
	summarizer extensions.Summarizer
	audit      extensions.AuditLogger

	// explainGroup collapses concurrent explanation computes per session
	// and profile fingerprint.
	explainGroup singleflight.Group
}

// NewAnalysisService creates an AnalysisService with the given dependencies.
//
// Parameters:
//   - st: Session store. Must not be nil.
//   - detector: Entity detector. Must not be nil.
//   - summarizer: Explanation backend. Must not be nil; use the disabled
//     summarizer when no model backend is configured.
//   - audit: Audit event sink. Must not be nil; use extensions.NopAuditLogger
//     to discard events.
func NewAnalysisService(
	st *store.Store,
	detector Detector,
	summarizer extensions.Summarizer,
	audit extensions.AuditLogger,
) *AnalysisService {
	return &AnalysisService{
		store:      st,
		detector:   detector,
		summarizer: summarizer,
		audit:      audit,
	}
}

// =============================================================================
// Session Lifecycle
// =============================================================================

// CreateSession allocates a new empty session and returns a copy of it.
func (s *AnalysisService) CreateSession(ctx context.Context) *datatypes.Session {
	_, span := analysisTracer.Start(ctx, "AnalysisService.CreateSession")
	defer span.End()

	sess := s.store.GetOrCreate("")
	span.SetAttributes(attribute.String("session.id", sess.ID))

	if m := observability.DefaultMetrics; m != nil {
		m.SetActiveSessions(s.store.Len())
	}
	s.auditEvent(ctx, "session.create", sess.ID, "success", nil)

	slog.Info("Session created", "sessionId", sess.ID)
	return sess
}

// ResetSession removes the session and all its accumulated state. Reports
// whether a live session was removed; resetting an unknown session is not an
// error.
func (s *AnalysisService) ResetSession(ctx context.Context, sessionID string) bool {
	_, span := analysisTracer.Start(ctx, "AnalysisService.ResetSession")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	removed := s.store.Reset(sessionID)

	if m := observability.DefaultMetrics; m != nil {
		m.SetActiveSessions(s.store.Len())
	}
	s.auditEvent(ctx, "session.reset", sessionID, "success", map[string]any{
		"removed": removed,
	})

	slog.Info("Session reset", "sessionId", sessionID, "removed", removed)
	return removed
}

// =============================================================================
// Ingestion
// =============================================================================

// IngestResult is the outcome of one accepted message.
type IngestResult struct {
	// Message is the stored message with its detected entities.
	Message datatypes.Message

	// Profile is the rebuilt disclosure profile for the whole session.
	Profile *datatypes.Profile

	// QuickInference is the short inference over the session's profile, or
	// nil when the summarizer is unavailable or nothing has been detected
	// in the session yet.
	QuickInference *string

	// SessionID identifies the session the message landed in.
	SessionID string
}

// Ingest runs the full pipeline for one message: validate, detect, append,
// rebuild the profile, and optionally produce a quick inference.
//
// The message index used during detection is provisional; AppendMessage
// re-stamps entities under the session lock, so concurrent appends to the
// same session still get distinct, ordered indices.
//
// Errors:
//   - *datatypes.ValidationError: the request was malformed; nothing ran.
//   - datatypes.ErrDetectorUnavailable (wrapped): detection failed; nothing
//     was recorded.
func (s *AnalysisService) Ingest(ctx context.Context, sessionID, role, content string) (*IngestResult, error) {
	ctx, span := analysisTracer.Start(ctx, "AnalysisService.Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))
	start := time.Now()

	// Step 1: Validate before detection or any state change. Validate
	// normalizes in place, so detection sees the trimmed content.
	req := datatypes.AddMessageRequest{Role: role, Content: content}
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	// Step 2: Detect outside all locks.
	index := s.store.MessageCount(sessionID)
	entities, err := s.detector.Detect(ctx, req.Content, "en", index)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detection failed")
		s.auditEvent(ctx, "message.ingest", sessionID, "failure", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	// Step 3: Append under the session lock.
	msg, err := s.store.AppendMessage(sessionID, req.Role, req.Content, entities)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		return nil, err
	}

	// Step 4: Rebuild the profile from the full session.
	prof := profile.Build(s.store.AllEntities(sessionID))

	// Step 5: Quick inference, only when the session has disclosed something
	// and a summarizer is configured. Never fails the ingest.
	var quick *string
	if s.summarizer.Available() && prof.TotalEntities > 0 {
		text := s.quickExplain(ctx, sessionID, profile.InferenceContext(prof))
		quick = &text
	}

	if m := observability.DefaultMetrics; m != nil {
		m.RecordMessage(msg.Role)
		for _, e := range msg.Entities {
			m.RecordEntity(string(datatypes.CategoryFor(e.Type)))
		}
		m.ObserveIdentifiability(prof.IdentifiabilityScore)
		m.SetActiveSessions(s.store.Len())
	}

	span.SetAttributes(
		attribute.Int("entities.detected", len(msg.Entities)),
		attribute.Float64("profile.score", prof.IdentifiabilityScore),
	)
	s.auditEvent(ctx, "message.ingest", sessionID, "success", map[string]any{
		"entities_detected": len(msg.Entities),
		"duration_ms":       time.Since(start).Milliseconds(),
	})

	slog.Info("Message ingested",
		"sessionId", sessionID,
		"entities", len(msg.Entities),
		"score", prof.IdentifiabilityScore,
	)

	return &IngestResult{
		Message:        msg,
		Profile:        prof,
		QuickInference: quick,
		SessionID:      sessionID,
	}, nil
}

// =============================================================================
// Read Views
// =============================================================================

// ProfileView rebuilds the session's profile and reports its message count.
// Unknown sessions yield an empty profile and zero messages.
func (s *AnalysisService) ProfileView(sessionID string) (*datatypes.Profile, int) {
	return profile.Build(s.store.AllEntities(sessionID)), s.store.MessageCount(sessionID)
}

// Messages returns the session's messages in order. Unknown sessions yield
// an empty slice.
func (s *AnalysisService) Messages(sessionID string) []datatypes.Message {
	return s.store.Messages(sessionID)
}

// Watch subscribes to change notifications for the session. The cancel func
// must be called to release the subscription.
func (s *AnalysisService) Watch(sessionID string) (<-chan struct{}, func()) {
	return s.store.Subscribe(sessionID)
}

// InferenceAvailable reports whether a summarizer backend is configured.
func (s *AnalysisService) InferenceAvailable() bool {
	return s.summarizer.Available()
}

// =============================================================================
// Audit
// =============================================================================

// auditEvent records one audit event, logging instead of failing when the
// sink rejects it. Audit metadata never includes detected content.
func (s *AnalysisService) auditEvent(ctx context.Context, eventType, sessionID, outcome string, metadata map[string]any) {
	event := extensions.AuditEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Outcome:   outcome,
		Metadata:  metadata,
	}
	if err := s.audit.Log(ctx, event); err != nil {
		slog.Warn("Audit log failed", "eventType", eventType, "error", err)
	}
}
