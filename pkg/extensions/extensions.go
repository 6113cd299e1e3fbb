// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the pluggable capabilities of Mirror.
//
// The disclosure service does not know how personal information gets
// detected or how natural-language explanations get generated. Those
// capabilities are provided by implementations of the interfaces in
// this package and injected via ServiceOptions. The defaults are no-op
// implementations that keep the service fully functional offline.
//
// # Capability Categories
//
// The package is organized by domain:
//
//   - recognizer.go: Entity detection over raw text (Recognizer)
//   - summarizer.go: Natural-language generation (Summarizer)
//   - audit.go: Disclosure audit logging (AuditLogger)
//
// # Usage With Defaults
//
// The defaults detect nothing and generate nothing:
//
//	opts := extensions.DefaultOptions()
//	svc, err := disclosure.New(cfg, &opts)
//
// # Usage With Real Implementations
//
// Wire real detectors and generators at startup:
//
//	rules, err := recognition.NewRulesRecognizer()
//	summarizer, err := llm.NewFromEnv()
//	opts := extensions.DefaultOptions().
//	    WithRecognizer(rules).
//	    WithSummarizer(summarizer)
//	svc, err := disclosure.New(cfg, &opts)
//
// # Thread Safety
//
// All interface implementations must be safe for concurrent use.
// Multiple goroutines may call methods simultaneously.
package extensions

// ServiceOptions groups all capability injection points.
//
// Pass this to service constructors. All fields are optional; nil
// values are replaced with no-op defaults when DefaultOptions() is
// called or when services check for nil.
//
// Example:
//
//	// Offline: use defaults
//	opts := extensions.DefaultOptions()
//
//	// Full deployment: inject implementations
//	opts := extensions.ServiceOptions{
//	    Recognizer:  regexEngine,
//	    Summarizer:  openaiSummarizer,
//	    AuditLogger: memoryAuditor,
//	}
type ServiceOptions struct {
	// Recognizer detects personal information in message text.
	// Default: NopRecognizer (detects nothing)
	Recognizer Recognizer

	// Summarizer generates natural-language inference text.
	// Default: NopSummarizer (reports unavailable)
	Summarizer Summarizer

	// AuditLogger records disclosure-relevant events.
	// Default: NopAuditLogger (discards all events)
	AuditLogger AuditLogger
}

// DefaultOptions returns ServiceOptions with no-op defaults.
//
// This is the configuration used when no detector or generator is
// wired: every operation succeeds, nothing is detected, and inference
// endpoints report the summarizer as unavailable.
//
// Returns:
//   - ServiceOptions with all fields set to no-op implementations
func DefaultOptions() ServiceOptions {
	return ServiceOptions{
		Recognizer:  &NopRecognizer{},
		Summarizer:  &NopSummarizer{},
		AuditLogger: &NopAuditLogger{},
	}
}

// WithRecognizer returns a copy of opts with the given Recognizer.
// Useful for fluent configuration.
func (opts ServiceOptions) WithRecognizer(r Recognizer) ServiceOptions {
	opts.Recognizer = r
	return opts
}

// WithSummarizer returns a copy of opts with the given Summarizer.
func (opts ServiceOptions) WithSummarizer(s Summarizer) ServiceOptions {
	opts.Summarizer = s
	return opts
}

// WithAudit returns a copy of opts with the given AuditLogger.
func (opts ServiceOptions) WithAudit(logger AuditLogger) ServiceOptions {
	opts.AuditLogger = logger
	return opts
}
