// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package recognition turns raw message text into typed entities.
//
// An Adapter composes an explicit list of extensions.Recognizer
// implementations; there is no global registry. Two kinds ship here: the
// regex rules engine (rules.go, always on) and an optional ONNX NER model
// (model.go). Findings from all recognizers are merged, filtered by
// confidence threshold, deduplicated by containment, colored, and sorted
// into a stable order.
//
// A failing recognizer fails the whole call. Detection that silently
// returns partial results would record a message as cleaner than it is,
// which is the one mistake this service must never make.
package recognition

import (
	"context"
	"fmt"
	"sort"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

// DefaultThreshold is the minimum confidence kept by Detect. Findings below
// it are discarded permanently and never reach a profile.
const DefaultThreshold = 0.4

// Config controls adapter behavior.
type Config struct {
	// Threshold overrides DefaultThreshold when positive.
	Threshold float64
}

// Adapter runs a fixed set of recognizers over message text.
type Adapter struct {
	recognizers []extensions.Recognizer
	threshold   float64
}

// New builds an adapter over the given recognizers. Order matters only for
// tie-breaking in the final sort; detection results are merged regardless.
func New(cfg Config, recognizers ...extensions.Recognizer) *Adapter {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Adapter{recognizers: recognizers, threshold: threshold}
}

// Detect runs all recognizers on text and returns post-processed entities
// with the adapter's configured threshold. messageIndex is stamped on every
// entity; the store re-stamps authoritatively at append time.
func (a *Adapter) Detect(ctx context.Context, text, lang string, messageIndex int) ([]datatypes.Entity, error) {
	return a.DetectWithThreshold(ctx, text, lang, messageIndex, a.threshold)
}

// DetectWithThreshold is Detect with an explicit confidence threshold.
func (a *Adapter) DetectWithThreshold(ctx context.Context, text, lang string, messageIndex int, threshold float64) ([]datatypes.Entity, error) {
	if lang != "" && lang != "en" {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}

	var all []extensions.Finding
	for _, r := range a.recognizers {
		findings, err := r.Recognize(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: recognizer %s: %w", datatypes.ErrDetectorUnavailable, r.Name(), err)
		}
		all = append(all, findings...)
	}

	kept := make([]extensions.Finding, 0, len(all))
	for _, f := range all {
		if f.Confidence >= threshold {
			kept = append(kept, f)
		}
	}
	kept = dropContained(kept)
	sortFindings(kept)

	entities := make([]datatypes.Entity, 0, len(kept))
	for _, f := range kept {
		entities = append(entities, datatypes.Entity{
			Text:         f.Value,
			Type:         f.Type,
			Confidence:   f.Confidence,
			Start:        f.Start,
			End:          f.End,
			Color:        datatypes.ColorFor(f.Type),
			MessageIndex: messageIndex,
		})
	}
	return entities, nil
}

// dropContained resolves overlaps. A finding wholly inside a strictly
// larger finding of equal or higher confidence is dropped, as are
// identical-span same-type duplicates (keeping the highest confidence,
// earliest on ties). Overlapping findings of different types survive.
func dropContained(findings []extensions.Finding) []extensions.Finding {
	out := make([]extensions.Finding, 0, len(findings))
	for i, f := range findings {
		drop := false
		for j, g := range findings {
			if i == j {
				continue
			}
			if g.Start > f.Start || f.End > g.End {
				continue
			}
			larger := (g.End - g.Start) > (f.End - f.Start)
			if larger && g.Confidence >= f.Confidence {
				drop = true
				break
			}
			sameSpan := g.Start == f.Start && g.End == f.End
			if sameSpan && g.Type == f.Type {
				if g.Confidence > f.Confidence || (g.Confidence == f.Confidence && j < i) {
					drop = true
					break
				}
			}
		}
		if !drop {
			out = append(out, f)
		}
	}
	return out
}

// sortFindings orders by start offset, then descending confidence, then
// descending span length, then type. Deterministic for identical input.
func sortFindings(findings []extensions.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.End != b.End {
			return a.End > b.End
		}
		return a.Type < b.Type
	})
}
