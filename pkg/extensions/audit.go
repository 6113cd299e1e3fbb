// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"sync"
	"time"
)

// AuditEvent records one disclosure-relevant action.
//
// Mirror watches what users reveal about themselves, so its own audit
// trail deliberately carries metadata only: event types, session IDs,
// counts. Never put detected values or message text in an event.
//
// # Event Categories
//
// Events are categorized by type for filtering:
//   - Session: "session.create", "session.reset", "session.delete"
//   - Ingestion: "message.ingest"
//   - Inference: "explain.generate", "explain.cache_hit", "explain.fallback"
//
// Example:
//
//	event := AuditEvent{
//	    EventType: "message.ingest",
//	    Timestamp: time.Now().UTC(),
//	    SessionID: sessionID,
//	    Outcome:   "success",
//	    Metadata: map[string]any{
//	        "entities_detected": 3,
//	    },
//	}
type AuditEvent struct {
	// EventType categorizes the event for filtering.
	// Format: "category.action" (e.g., "session.create", "message.ingest")
	EventType string

	// Timestamp is when the event occurred (always use UTC).
	// If zero, implementations should set it to time.Now().UTC().
	Timestamp time.Time

	// SessionID identifies the session involved, if any.
	SessionID string

	// Outcome indicates the result of the action.
	// Values: "success", "failure", "fallback"
	Outcome string

	// Metadata holds additional event-specific data.
	//
	// Common metadata keys:
	//   - "error": error message if Outcome is "failure"
	//   - "entities_detected": count from an ingestion pass
	//   - "duration_ms": operation duration
	//   - "backend": summarizer backend name
	//
	// Values must be metadata, never detected content.
	Metadata map[string]any
}

// AuditFilter defines criteria for querying audit events.
//
// All fields are optional; only non-zero values are used as filters.
// Multiple fields are combined with AND logic.
//
// Example:
//
//	// Find all explanation fallbacks in the last hour
//	filter := AuditFilter{
//	    EventTypes: []string{"explain.fallback"},
//	    StartTime:  time.Now().Add(-time.Hour),
//	}
//	events, err := auditor.Query(ctx, filter)
type AuditFilter struct {
	// EventTypes limits results to specific event types.
	// If empty, all event types are included.
	EventTypes []string

	// SessionID limits results to events from a specific session.
	// If empty, events from all sessions are included.
	SessionID string

	// StartTime is the earliest event timestamp to include (inclusive).
	// If zero, no lower bound is applied.
	StartTime time.Time

	// EndTime is the latest event timestamp to include (exclusive).
	// If zero, no upper bound is applied.
	EndTime time.Time

	// Outcome limits results to events with a specific outcome.
	// If empty, all outcomes are included.
	Outcome string

	// Limit is the maximum number of events to return.
	// If zero, all matching events are returned.
	Limit int
}

// AuditLogger records disclosure-relevant events.
//
// Implementations must be safe for concurrent use by multiple
// goroutines. Log should return quickly; the hot ingestion path
// calls it on every message.
//
// # Default Behavior
//
// The default NopAuditLogger discards all events. This is appropriate
// for local single-user deployments where audit trails aren't needed.
//
// # In-Memory Implementation
//
// MemoryAuditLogger keeps a bounded in-memory trail, matching the
// rest of the system: the trail lives and dies with the process.
type AuditLogger interface {
	// Log records an event.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - event: The audit event to record
	//
	// Returns:
	//   - error: nil on success, error if logging failed
	//
	// Implementations should set Timestamp if zero and return quickly.
	Log(ctx context.Context, event AuditEvent) error

	// Query retrieves events matching the filter criteria.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - filter: Criteria for selecting events
	//
	// Returns:
	//   - []AuditEvent: Matching events, oldest first
	//   - error: nil on success, error if the query failed
	//
	// Note: NopAuditLogger returns an empty slice (no events stored).
	Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error)

	// Flush ensures all buffered events are persisted.
	//
	// Call this before shutdown to prevent event loss. For in-memory
	// implementations this is a no-op.
	Flush(ctx context.Context) error
}

// NopAuditLogger is the default audit logger.
//
// It discards all events without recording them.
//
// Thread-safe: This implementation has no mutable state.
type NopAuditLogger struct{}

// Log discards the event without recording it.
//
// Always returns nil regardless of event content.
func (l *NopAuditLogger) Log(ctx context.Context, event AuditEvent) error {
	return nil
}

// Query returns an empty slice (no events are stored).
func (l *NopAuditLogger) Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	return []AuditEvent{}, nil
}

// Flush is a no-op since nothing is buffered.
func (l *NopAuditLogger) Flush(ctx context.Context) error {
	return nil
}

// Compile-time interface compliance check.
var _ AuditLogger = (*NopAuditLogger)(nil)

// MemoryAuditLogger keeps a bounded audit trail in memory.
//
// Events live only as long as the process, which matches the rest of
// the system's volatility guarantees. When the trail is full, the
// oldest events are dropped.
//
// Example:
//
//	auditor := NewMemoryAuditLogger(1024)
//	_ = auditor.Log(ctx, AuditEvent{EventType: "session.create"})
//	events, _ := auditor.Query(ctx, AuditFilter{})
type MemoryAuditLogger struct {
	mu     sync.Mutex
	events []AuditEvent
	max    int
}

// NewMemoryAuditLogger creates a MemoryAuditLogger holding at most
// max events. A non-positive max defaults to 1024.
func NewMemoryAuditLogger(max int) *MemoryAuditLogger {
	if max <= 0 {
		max = 1024
	}
	return &MemoryAuditLogger{
		events: make([]AuditEvent, 0, 64),
		max:    max,
	}
}

// Log appends the event to the trail, evicting the oldest event if
// the trail is full. A zero Timestamp is set to time.Now().UTC().
func (l *MemoryAuditLogger) Log(_ context.Context, event AuditEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) >= l.max {
		l.events = l.events[1:]
	}
	l.events = append(l.events, event)
	return nil
}

// Query returns events matching the filter, oldest first.
func (l *MemoryAuditLogger) Query(_ context.Context, filter AuditFilter) ([]AuditEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []AuditEvent
	for _, e := range l.events {
		if !matchesFilter(e, filter) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	if out == nil {
		out = []AuditEvent{}
	}
	return out, nil
}

// Flush is a no-op (events are already in memory).
func (l *MemoryAuditLogger) Flush(_ context.Context) error { return nil }

// Len returns the current number of stored events.
func (l *MemoryAuditLogger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// matchesFilter reports whether the event satisfies every non-zero
// filter criterion.
func matchesFilter(e AuditEvent, f AuditFilter) bool {
	if len(f.EventTypes) > 0 {
		found := false
		for _, t := range f.EventTypes {
			if e.EventType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && !e.Timestamp.Before(f.EndTime) {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	return true
}

// Compile-time interface compliance check.
var _ AuditLogger = (*MemoryAuditLogger)(nil)
