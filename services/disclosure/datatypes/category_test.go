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

import (
	"encoding/json"
	"sort"
	"testing"
)

// =============================================================================
// Category Mapping Tests
// =============================================================================

func TestCategoryFor_KnownTypes(t *testing.T) {
	cases := map[string]Category{
		"PERSON":                  CategoryIdentity,
		"NRP":                     CategoryIdentity,
		"EMAIL_ADDRESS":           CategoryContact,
		"IP_ADDRESS":              CategoryContact,
		"LOCATION":                CategoryLocation,
		"DATE_TIME":               CategoryTemporal,
		"CREDIT_CARD":             CategoryFinancial,
		"US_ITIN":                 CategoryFinancial,
		"US_SSN":                  CategoryGovernmentID,
		"US_DRIVER_LICENSE":       CategoryGovernmentID,
		"HEALTH_CONDITION":        CategoryHealth,
		"UK_NHS":                  CategoryHealth,
		"IN_VEHICLE_REGISTRATION": CategoryVehicle,
		"SCHOOL_NAME":             CategoryEducation,
		"OCCUPATION":              CategoryEmployment,
		"FAMILY_MEMBER":           CategoryRelationships,
		"AGE":                     CategoryDemographics,
		"AGE_GROUP":               CategoryDemographics,
	}

	for entityType, want := range cases {
		if got := CategoryFor(entityType); got != want {
			t.Errorf("CategoryFor(%q) = %q, want %q", entityType, got, want)
		}
	}
}

func TestCategoryFor_UnknownTypeDefaultsToIdentity(t *testing.T) {
	if got := CategoryFor("SOMETHING_NEW"); got != CategoryIdentity {
		t.Errorf("expected identity fallback, got %q", got)
	}
	if got := CategoryFor(""); got != CategoryIdentity {
		t.Errorf("expected identity fallback for empty type, got %q", got)
	}
}

func TestCategoryOrder_Complete(t *testing.T) {
	if len(CategoryOrder) != 12 {
		t.Fatalf("expected 12 categories, got %d", len(CategoryOrder))
	}
	if CategoryOrder[0] != CategoryIdentity {
		t.Errorf("expected identity first, got %q", CategoryOrder[0])
	}
	if CategoryOrder[len(CategoryOrder)-1] != CategoryDemographics {
		t.Errorf("expected demographics last, got %q", CategoryOrder[len(CategoryOrder)-1])
	}

	seen := make(map[Category]bool)
	for _, c := range CategoryOrder {
		if seen[c] {
			t.Errorf("duplicate category %q in order", c)
		}
		seen[c] = true
		if _, ok := categoryInfo[c]; !ok {
			t.Errorf("category %q missing display info", c)
		}
	}
}

func TestCategoryFor_EveryMappedCategoryIsOrdered(t *testing.T) {
	ordered := make(map[Category]bool, len(CategoryOrder))
	for _, c := range CategoryOrder {
		ordered[c] = true
	}
	for entityType, c := range entityCategories {
		if !ordered[c] {
			t.Errorf("type %q maps to %q which is not in CategoryOrder", entityType, c)
		}
	}
}

func TestInfoFor_Known(t *testing.T) {
	info := InfoFor(CategoryContact)
	if info.Name != "Contact Info" {
		t.Errorf("expected Contact Info, got %q", info.Name)
	}
	if info.Color != "#8E44AD" {
		t.Errorf("expected #8E44AD, got %q", info.Color)
	}
	if info.Icon != "phone" {
		t.Errorf("expected phone, got %q", info.Icon)
	}
}

func TestInfoFor_UnknownFallsBack(t *testing.T) {
	info := InfoFor(Category("mystery"))
	if info.Name != "mystery" {
		t.Errorf("expected raw key as name, got %q", info.Name)
	}
	if info.Color != DefaultEntityColor {
		t.Errorf("expected default color, got %q", info.Color)
	}
}

// =============================================================================
// Color Table Tests
// =============================================================================

func TestColorFor_KnownTypes(t *testing.T) {
	cases := map[string]string{
		"PERSON":        "#FF7D63",
		"EMAIL_ADDRESS": "#8E44AD",
		"LOCATION":      "#F1C40F",
		"US_SSN":        "#2980B9",
		"AGE":           "#1ABC9C",
	}
	for entityType, want := range cases {
		if got := ColorFor(entityType); got != want {
			t.Errorf("ColorFor(%q) = %q, want %q", entityType, got, want)
		}
	}
}

func TestColorFor_UnknownType(t *testing.T) {
	if got := ColorFor("UNKNOWN_TYPE"); got != DefaultEntityColor {
		t.Errorf("expected default color, got %q", got)
	}
}

func TestKnownEntityTypes_SortedAndComplete(t *testing.T) {
	types := KnownEntityTypes()
	if len(types) != len(entityColors) {
		t.Fatalf("expected %d types, got %d", len(entityColors), len(types))
	}
	if !sort.StringsAreSorted(types) {
		t.Error("expected sorted output")
	}

	found := false
	for _, typ := range types {
		if typ == "PERSON" {
			found = true
		}
		if CategoryFor(typ) == CategoryIdentity && typ != "PERSON" && typ != "NRP" {
			t.Errorf("type %q in the color table is missing a category mapping", typ)
		}
	}
	if !found {
		t.Error("expected PERSON in the catalog")
	}
}

// =============================================================================
// Profile Initialization Tests
// =============================================================================

func TestNewProfile_AllCategoriesInitialized(t *testing.T) {
	p := NewProfile()

	if len(p.Categories) != 12 {
		t.Fatalf("expected 12 categories, got %d", len(p.Categories))
	}
	for _, c := range CategoryOrder {
		cd, ok := p.Categories[c]
		if !ok {
			t.Fatalf("missing category %q", c)
		}
		if cd.Entities == nil || cd.UniqueValues == nil {
			t.Errorf("category %q has nil slices", c)
		}
		if cd.Count != 0 {
			t.Errorf("category %q count = %d, want 0", c, cd.Count)
		}
		if cd.Name == "" || cd.Color == "" || cd.Icon == "" {
			t.Errorf("category %q missing display attributes", c)
		}
	}
	if p.TotalEntities != 0 {
		t.Errorf("expected 0 total entities, got %d", p.TotalEntities)
	}
	if p.IdentifiabilityScore != 0 {
		t.Errorf("expected score 0, got %f", p.IdentifiabilityScore)
	}
	if p.Summary == nil {
		t.Error("expected non-nil summary")
	}
}

func TestNewProfile_EmptySerializesCompletely(t *testing.T) {
	data, err := json.Marshal(NewProfile())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	var cats map[string]map[string]json.RawMessage
	if err := json.Unmarshal(m["categories"], &cats); err != nil {
		t.Fatalf("categories unmarshal failed: %v", err)
	}
	if len(cats) != 12 {
		t.Errorf("expected 12 serialized categories, got %d", len(cats))
	}
	for key, cat := range cats {
		if string(cat["entities"]) != "[]" {
			t.Errorf("category %q entities = %s, want []", key, cat["entities"])
		}
		if string(cat["unique_values"]) != "[]" {
			t.Errorf("category %q unique_values = %s, want []", key, cat["unique_values"])
		}
		if string(cat["count"]) != "0" {
			t.Errorf("category %q count = %s, want 0", key, cat["count"])
		}
	}
	if string(m["summary"]) != "[]" {
		t.Errorf("summary = %s, want []", m["summary"])
	}
}

// =============================================================================
// Session Tests
// =============================================================================

func TestNewSession_GeneratesID(t *testing.T) {
	s := NewSession("")
	if s.ID == "" {
		t.Error("expected generated session id")
	}
	if s.Messages == nil {
		t.Error("expected non-nil messages slice")
	}
	if s.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	other := NewSession("")
	if other.ID == s.ID {
		t.Error("expected distinct generated ids")
	}
}

func TestNewSession_KeepsProvidedID(t *testing.T) {
	s := NewSession("my-session")
	if s.ID != "my-session" {
		t.Errorf("expected provided id, got %q", s.ID)
	}
}

func TestSession_FingerprintNotSerialized(t *testing.T) {
	s := NewSession("fp-test")
	s.LastFingerprint = "abc123"

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := m["LastFingerprint"]; ok {
		t.Error("fingerprint must not serialize")
	}
	for _, key := range []string{"session_id", "messages", "created_at", "last_inference"} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %q in session JSON", key)
		}
	}
}
