// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package profile derives disclosure profiles from detected entities.
//
// Everything here is a pure function of the entity list: the same entities
// always produce the same profile, score, summary, and fingerprint. Profiles
// are rebuilt on every read rather than stored, so they cannot drift from
// the conversation they describe.
package profile

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

// EmptyContext is returned by InferenceContext when nothing has been
// detected. The explanation adapter short-circuits on it instead of
// spending a model call on an empty profile.
const EmptyContext = "No personal information detected yet."

// categoryWeights drives the identifiability score. A category contributes
// weight * min(unique, 3) / 3, so the third unique value in a category
// saturates it.
var categoryWeights = map[datatypes.Category]float64{
	datatypes.CategoryIdentity:      25,
	datatypes.CategoryGovernmentID:  30,
	datatypes.CategoryContact:       20,
	datatypes.CategoryLocation:      15,
	datatypes.CategoryEmployment:    10,
	datatypes.CategoryEducation:     10,
	datatypes.CategoryHealth:        5,
	datatypes.CategoryDemographics:  5,
	datatypes.CategoryFinancial:     5,
	datatypes.CategoryRelationships: 3,
	datatypes.CategoryTemporal:      2,
	datatypes.CategoryVehicle:       2,
}

// defaultWeight applies to categories outside the weight table.
const defaultWeight = 1.0

// Build aggregates entities into a profile.
//
// Each entity is appended raw to its category bucket, and its normalized
// text (lowercased, trimmed) is recorded as a unique value in first
// insertion order. The identifiability score and summary are computed from
// the filled buckets. Entities are expected to carry MessageIndex already.
func Build(entities []datatypes.Entity) *datatypes.Profile {
	p := datatypes.NewProfile()
	p.TotalEntities = len(entities)

	seen := make(map[datatypes.Category]map[string]bool)
	for _, e := range entities {
		cat := datatypes.CategoryFor(e.Type)
		cd := p.Categories[cat]
		cd.Entities = append(cd.Entities, e)

		norm := strings.ToLower(strings.TrimSpace(e.Text))
		if seen[cat] == nil {
			seen[cat] = make(map[string]bool)
		}
		if !seen[cat][norm] {
			seen[cat][norm] = true
			cd.UniqueValues = append(cd.UniqueValues, norm)
			cd.Count = len(cd.UniqueValues)
		}
	}

	p.IdentifiabilityScore = score(p)
	p.Summary = summarize(p)
	return p
}

// score computes the 0-100 identifiability score from filled categories.
//
// Base contribution per non-empty category: weight * min(unique, 3) / 3.
// Combination bonuses apply when categories co-occur, because combined
// facts narrow a person down far more than either fact alone:
// location+education +10, location+employment +10, identity+location +15.
// The result is clamped at 100.
func score(p *datatypes.Profile) float64 {
	total := 0.0
	for _, cat := range datatypes.CategoryOrder {
		cd := p.Categories[cat]
		if len(cd.Entities) == 0 {
			continue
		}
		weight, ok := categoryWeights[cat]
		if !ok {
			weight = defaultWeight
		}
		unique := math.Min(float64(len(cd.UniqueValues)), 3)
		total += weight * unique / 3
	}

	if filled(p, datatypes.CategoryLocation) && filled(p, datatypes.CategoryEducation) {
		total += 10
	}
	if filled(p, datatypes.CategoryLocation) && filled(p, datatypes.CategoryEmployment) {
		total += 10
	}
	if filled(p, datatypes.CategoryIdentity) && filled(p, datatypes.CategoryLocation) {
		total += 15
	}

	return math.Min(100, total)
}

func filled(p *datatypes.Profile, cat datatypes.Category) bool {
	return len(p.Categories[cat].Entities) > 0
}

// summarize renders one line per non-empty category in canonical order:
// "<Name>: v1, v2, v3 (+N more)" with the first three unique values.
func summarize(p *datatypes.Profile) []string {
	lines := []string{}
	for _, cat := range datatypes.CategoryOrder {
		cd := p.Categories[cat]
		if len(cd.Entities) == 0 {
			continue
		}
		shown := cd.UniqueValues
		extra := 0
		if len(shown) > 3 {
			extra = len(shown) - 3
			shown = shown[:3]
		}
		line := fmt.Sprintf("%s: %s", cd.Name, strings.Join(shown, ", "))
		if extra > 0 {
			line += fmt.Sprintf(" (+%d more)", extra)
		}
		lines = append(lines, line)
	}
	return lines
}

// Fingerprint returns a stable md5 content hash over the profile's unique
// values. Values are sorted within each category before hashing, so
// detection order and duplicate raw texts never change the fingerprint.
// Used only as a cache key, never for security.
func Fingerprint(p *datatypes.Profile) string {
	var all []string
	for _, cat := range datatypes.CategoryOrder {
		cd := p.Categories[cat]
		vals := make([]string, len(cd.UniqueValues))
		copy(vals, cd.UniqueValues)
		sort.Strings(vals)
		all = append(all, vals...)
	}
	sum := md5.Sum([]byte(strings.Join(all, "|")))
	return hex.EncodeToString(sum[:])
}

// InferenceContext renders the profile as bullet lines for the explanation
// prompts, one "- <Name>: values" line per non-empty category in canonical
// order. Returns EmptyContext when nothing has been detected.
func InferenceContext(p *datatypes.Profile) string {
	var lines []string
	for _, cat := range datatypes.CategoryOrder {
		cd := p.Categories[cat]
		if len(cd.Entities) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", cd.Name, strings.Join(cd.UniqueValues, ", ")))
	}
	if len(lines) == 0 {
		return EmptyContext
	}
	return strings.Join(lines, "\n")
}
