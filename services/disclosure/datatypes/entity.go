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

import "sort"

// Entity is a single piece of personal information detected in message text.
//
// # Fields
//
//   - Text: The exact substring that was detected.
//   - Type: The entity type, e.g. "PERSON", "EMAIL_ADDRESS", "AGE".
//   - Confidence: Detector confidence in [0, 1]. Entities below the service
//     threshold are discarded before they ever reach a profile.
//   - Start, End: Rune offsets of the match within the message content,
//     half-open [Start, End).
//   - Color: Display color for the entity type, stamped at detection time.
//   - MessageIndex: Zero-based index of the message the entity was found in.
type Entity struct {
	Text         string  `json:"text"`
	Type         string  `json:"entity_type"`
	Confidence   float64 `json:"score"`
	Start        int     `json:"start"`
	End          int     `json:"end"`
	Color        string  `json:"color"`
	MessageIndex int     `json:"message_index"`
}

// DefaultEntityColor is the display color for entity types missing from the
// color table.
const DefaultEntityColor = "#95A5A6"

var entityColors = map[string]string{
	"PERSON":                  "#FF7D63",
	"NRP":                     "#ADDFFF",
	"PHONE_NUMBER":            "#229954",
	"EMAIL_ADDRESS":           "#8E44AD",
	"URL":                     "#F6358A",
	"IP_ADDRESS":              "#E67E22",
	"LOCATION":                "#F1C40F",
	"DATE_TIME":               "#F67280",
	"CREDIT_CARD":             "#1569C7",
	"IBAN_CODE":               "#1589FF",
	"IN_PAN":                  "#14A3C7",
	"US_BANK_NUMBER":          "#6698FF",
	"CRYPTO":                  "#82CAFF",
	"US_ITIN":                 "#AFDCEC",
	"IN_AADHAAR":              "#34A56F",
	"IN_PASSPORT":             "#617C58",
	"AU_ABN":                  "#3A5F0B",
	"AU_ACN":                  "#228B22",
	"SG_NRIC_FIN":             "#355E3B",
	"AU_TFN":                  "#8A9A5B",
	"UK_NINO":                 "#3EA055",
	"US_SSN":                  "#2980B9",
	"US_PASSPORT":             "#85BB65",
	"IN_VOTER":                "#77DD77",
	"UK_NHS":                  "#872657",
	"AU_MEDICARE":             "#7F525D",
	"MEDICAL_LICENSE":         "#550A35",
	"IN_VEHICLE_REGISTRATION": "#FFBF00",
	"US_DRIVER_LICENSE":       "#F9DB24",
	"EDUCATION_LEVEL":         "#9B59B6",
	"SCHOOL_NAME":             "#8E44AD",
	"OCCUPATION":              "#3498DB",
	"EMPLOYER":                "#2980B9",
	"RELATIONSHIP":            "#E74C3C",
	"FAMILY_MEMBER":           "#C0392B",
	"AGE":                     "#1ABC9C",
	"AGE_GROUP":               "#16A085",
	"HEALTH_CONDITION":        "#E91E63",
	"MEDICAL_TERM":            "#C2185B",
}

// ColorFor returns the display color for an entity type, falling back to
// DefaultEntityColor for types outside the table.
func ColorFor(entityType string) string {
	if c, ok := entityColors[entityType]; ok {
		return c
	}
	return DefaultEntityColor
}

// KnownEntityTypes returns every entity type in the color table, sorted
// alphabetically. This is the catalog served by the entities endpoint.
func KnownEntityTypes() []string {
	types := make([]string, 0, len(entityColors))
	for t := range entityColors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
