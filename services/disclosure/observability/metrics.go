// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the disclosure
// service.
//
// # Description
//
// Counters, histograms, and gauges for the message ingestion and
// explanation paths. Metric values carry aggregates only, never message
// content or detected entity text; the highest-cardinality label is the
// entity category.
//
// # Integration
//
// Metrics are exposed on the service's /metrics endpoint for scraping.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics.
const metricsNamespace = "mirror"

// Metrics holds all Prometheus metrics for the disclosure service.
//
// Initialize once at startup via InitMetrics().
type Metrics struct {
	// MessagesTotal counts ingested messages.
	// Labels: role (user, assistant)
	MessagesTotal *prometheus.CounterVec

	// EntitiesDetectedTotal counts detected entities by category.
	// Labels: category (identity, location, contact, ...)
	EntitiesDetectedTotal *prometheus.CounterVec

	// IdentifiabilityScore records the profile score after each ingest.
	IdentifiabilityScore prometheus.Histogram

	// ExplanationsTotal counts explanation requests by outcome.
	// Labels: outcome (cached, computed, degraded, failed)
	ExplanationsTotal *prometheus.CounterVec

	// SummarizerLatencySeconds measures summarizer round-trip latency.
	SummarizerLatencySeconds prometheus.Histogram

	// ActiveSessions tracks the number of live sessions in the store.
	ActiveSessions prometheus.Gauge
}

// DefaultMetrics is the singleton instance registered with the default
// Prometheus registry. Initialized by InitMetrics().
var DefaultMetrics *Metrics

var initMetricsOnce sync.Once

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all metrics with the default Prometheus registry.
// Idempotent: repeated calls return the same instance, so the service
// constructor and tests can both call it freely.
//
// # Outputs
//
//   - *Metrics: The initialized metrics instance.
func InitMetrics() *Metrics {
	initMetricsOnce.Do(func() {
		DefaultMetrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return DefaultMetrics
}

// newMetrics registers all collectors with the given registerer. Split out
// from InitMetrics so tests can use an isolated registry.
func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "messages_total",
				Help:      "Total messages ingested by role",
			},
			[]string{"role"},
		),

		EntitiesDetectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "entities_detected_total",
				Help:      "Total entities detected by category",
			},
			[]string{"category"},
		),

		IdentifiabilityScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "identifiability_score",
				Help:      "Profile identifiability score observed after each ingest",
				Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),

		ExplanationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "explanations_total",
				Help:      "Total explanation requests by outcome",
			},
			[]string{"outcome"},
		),

		SummarizerLatencySeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "summarizer_latency_seconds",
				Help:      "Summarizer round-trip latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),

		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_sessions",
				Help:      "Number of live sessions in the store",
			},
		),
	}
}

// =============================================================================
// Outcome Labels
// =============================================================================

// Outcome categorizes how an explanation request was served.
type Outcome string

const (
	// OutcomeCached indicates the stored explanation was still valid.
	OutcomeCached Outcome = "cached"

	// OutcomeComputed indicates a fresh explanation was generated.
	OutcomeComputed Outcome = "computed"

	// OutcomeDegraded indicates canned fallback text was served.
	OutcomeDegraded Outcome = "degraded"

	// OutcomeFailed indicates the request surfaced an error.
	OutcomeFailed Outcome = "failed"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordMessage records one ingested message.
func (m *Metrics) RecordMessage(role string) {
	m.MessagesTotal.WithLabelValues(role).Inc()
}

// RecordEntity records one detected entity under its category.
func (m *Metrics) RecordEntity(category string) {
	m.EntitiesDetectedTotal.WithLabelValues(category).Inc()
}

// ObserveIdentifiability records the profile score after an ingest.
func (m *Metrics) ObserveIdentifiability(score float64) {
	m.IdentifiabilityScore.Observe(score)
}

// RecordExplanation records a completed explanation request.
func (m *Metrics) RecordExplanation(outcome Outcome) {
	m.ExplanationsTotal.WithLabelValues(string(outcome)).Inc()
}

// ObserveSummarizerLatency records one summarizer round trip.
func (m *Metrics) ObserveSummarizerLatency(seconds float64) {
	m.SummarizerLatencySeconds.Observe(seconds)
}

// SetActiveSessions updates the live session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}
