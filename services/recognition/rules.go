// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package recognition

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
)

// =============================================================================
// Rule File Types
// =============================================================================

// RuleFile is the root of a rules YAML document.
type RuleFile struct {
	Recognizers []RuleRecognizer `yaml:"recognizers"`
}

// RuleRecognizer groups the patterns that emit one entity type.
type RuleRecognizer struct {
	EntityType  string        `yaml:"entity_type"`
	Description string        `yaml:"description"`
	Patterns    []RulePattern `yaml:"patterns"`
}

// RulePattern is a single regex rule. The whole match becomes the entity
// text; capture groups exist only for alternation.
type RulePattern struct {
	ID          string  `yaml:"id"`
	Description string  `yaml:"description"`
	Regex       string  `yaml:"regex"`
	Confidence  float64 `yaml:"confidence"`

	compiled *regexp.Regexp `yaml:"-"`
}

// UnmarshalYAML validates the confidence while decoding so a malformed rules
// file is rejected at load, not at match time.
func (p *RulePattern) UnmarshalYAML(value *yaml.Node) error {
	type plain RulePattern
	var raw plain
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Confidence <= 0 || raw.Confidence > 1 {
		return fmt.Errorf("pattern %q: confidence %v outside (0, 1]", raw.ID, raw.Confidence)
	}
	*p = RulePattern(raw)
	return nil
}

// Compile compiles every pattern in the file. Returns an error naming the
// first pattern that fails, leaving none of the rules usable.
func (f *RuleFile) Compile() error {
	for i := range f.Recognizers {
		rec := &f.Recognizers[i]
		if rec.EntityType == "" {
			return fmt.Errorf("recognizer %d: missing entity_type", i)
		}
		for j := range rec.Patterns {
			pat := &rec.Patterns[j]
			re, err := regexp.Compile(pat.Regex)
			if err != nil {
				return fmt.Errorf("failed to compile the regex for %s/%s: %w",
					rec.EntityType, pat.ID, err)
			}
			pat.compiled = re
		}
	}
	return nil
}

// parseRules decodes and compiles a rules document.
func parseRules(raw []byte) (*RuleFile, error) {
	var file RuleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the rules file: %w", err)
	}
	if len(file.Recognizers) == 0 {
		return nil, fmt.Errorf("rules file declares no recognizers")
	}
	if err := file.Compile(); err != nil {
		return nil, err
	}
	return &file, nil
}

// =============================================================================
// Rules Recognizer
// =============================================================================

// RulesRecognizer detects entities with compiled regex rules. It is always
// part of the recognizer stack: regex rules need no model files and keep
// working when optional model inference is disabled.
//
// The active rule set swaps atomically under a lock, so Reload can replace
// rules while Recognize runs on other goroutines.
type RulesRecognizer struct {
	mu    sync.RWMutex
	rules *RuleFile
}

// NewRulesRecognizer loads the embedded default rule set.
func NewRulesRecognizer() (*RulesRecognizer, error) {
	file, err := parseRules(DefaultRules)
	if err != nil {
		return nil, fmt.Errorf("embedded rules: %w", err)
	}
	return &RulesRecognizer{rules: file}, nil
}

// NewRulesRecognizerFromFile loads an external rules file, replacing the
// embedded defaults entirely.
func NewRulesRecognizerFromFile(path string) (*RulesRecognizer, error) {
	r := &RulesRecognizer{}
	if err := r.Reload(path); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload parses and compiles the rules at path and swaps them in. On any
// failure the previously active rules stay in effect.
func (r *RulesRecognizer) Reload(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	file, err := parseRules(raw)
	if err != nil {
		return fmt.Errorf("rules file %s: %w", path, err)
	}

	r.mu.Lock()
	r.rules = file
	r.mu.Unlock()
	return nil
}

// RuleCount returns the number of compiled patterns, for logging.
func (r *RulesRecognizer) RuleCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.rules.Recognizers {
		n += len(rec.Patterns)
	}
	return n
}

// Name implements extensions.Recognizer.
func (r *RulesRecognizer) Name() string {
	return "rules"
}

// Recognize implements extensions.Recognizer. Every match of every pattern
// becomes a finding; overlap resolution happens later in the adapter.
// Offsets are rune offsets into text.
func (r *RulesRecognizer) Recognize(ctx context.Context, text string) ([]extensions.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	rules := r.rules
	r.mu.RUnlock()

	var findings []extensions.Finding
	for _, rec := range rules.Recognizers {
		for _, pat := range rec.Patterns {
			for _, loc := range pat.compiled.FindAllStringIndex(text, -1) {
				start := utf8.RuneCountInString(text[:loc[0]])
				length := utf8.RuneCountInString(text[loc[0]:loc[1]])
				findings = append(findings, extensions.Finding{
					Type:       rec.EntityType,
					Value:      text[loc[0]:loc[1]],
					Start:      start,
					End:        start + length,
					Confidence: pat.Confidence,
				})
			}
		}
	}
	return findings, nil
}

var _ extensions.Recognizer = (*RulesRecognizer)(nil)
