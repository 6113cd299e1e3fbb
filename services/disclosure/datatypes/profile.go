// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// CategoryData is one category bucket inside a profile.
//
// UniqueValues holds normalized entity texts (lowercased, trimmed) in first
// insertion order; Count always equals len(UniqueValues). Entities keeps
// every raw detection including duplicates.
type CategoryData struct {
	Name         string   `json:"name"`
	Color        string   `json:"color"`
	Icon         string   `json:"icon"`
	Entities     []Entity `json:"entities"`
	UniqueValues []string `json:"unique_values"`
	Count        int      `json:"count"`
}

// Profile is the aggregate view of everything detected across a session.
// Profiles are derived from the entity list on every read, never stored, so
// they can never drift from the conversation they describe.
type Profile struct {
	Categories           map[Category]*CategoryData `json:"categories"`
	TotalEntities        int                        `json:"total_entities"`
	IdentifiabilityScore float64                    `json:"identifiability_score"`
	Summary              []string                   `json:"summary"`
}

// NewProfile returns a profile with all twelve categories initialized and
// empty. Every category serializes even when nothing was detected, so
// clients can render a stable layout.
func NewProfile() *Profile {
	cats := make(map[Category]*CategoryData, len(CategoryOrder))
	for _, c := range CategoryOrder {
		info := categoryInfo[c]
		cats[c] = &CategoryData{
			Name:         info.Name,
			Color:        info.Color,
			Icon:         info.Icon,
			Entities:     []Entity{},
			UniqueValues: []string{},
		}
	}
	return &Profile{
		Categories: cats,
		Summary:    []string{},
	}
}
