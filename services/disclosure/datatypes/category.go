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

// Category groups related entity types for profile aggregation and scoring.
type Category string

// The closed set of profile categories.
const (
	CategoryIdentity      Category = "identity"
	CategoryContact       Category = "contact"
	CategoryLocation      Category = "location"
	CategoryTemporal      Category = "temporal"
	CategoryFinancial     Category = "financial"
	CategoryGovernmentID  Category = "government_id"
	CategoryHealth        Category = "health"
	CategoryVehicle       Category = "vehicle"
	CategoryEducation     Category = "education"
	CategoryEmployment    Category = "employment"
	CategoryRelationships Category = "relationships"
	CategoryDemographics  Category = "demographics"
)

// CategoryOrder is the canonical iteration order for categories. Profile
// summaries, fingerprints, and explanation context all walk categories in
// this order so output stays deterministic across runs.
var CategoryOrder = []Category{
	CategoryIdentity,
	CategoryContact,
	CategoryLocation,
	CategoryTemporal,
	CategoryFinancial,
	CategoryGovernmentID,
	CategoryHealth,
	CategoryVehicle,
	CategoryEducation,
	CategoryEmployment,
	CategoryRelationships,
	CategoryDemographics,
}

// CategoryInfo carries the display attributes for one category.
type CategoryInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var categoryInfo = map[Category]CategoryInfo{
	CategoryIdentity:      {Name: "Identity", Color: "#FF7D63", Icon: "user"},
	CategoryContact:       {Name: "Contact Info", Color: "#8E44AD", Icon: "phone"},
	CategoryLocation:      {Name: "Location", Color: "#F1C40F", Icon: "map-marker"},
	CategoryTemporal:      {Name: "Dates & Times", Color: "#F67280", Icon: "calendar"},
	CategoryFinancial:     {Name: "Financial", Color: "#1569C7", Icon: "credit-card"},
	CategoryGovernmentID:  {Name: "Government IDs", Color: "#2980B9", Icon: "id-card"},
	CategoryHealth:        {Name: "Health", Color: "#872657", Icon: "heart"},
	CategoryVehicle:       {Name: "Vehicle", Color: "#FFBF00", Icon: "car"},
	CategoryEducation:     {Name: "Education", Color: "#9B59B6", Icon: "graduation-cap"},
	CategoryEmployment:    {Name: "Employment", Color: "#3498DB", Icon: "briefcase"},
	CategoryRelationships: {Name: "Relationships", Color: "#E74C3C", Icon: "users"},
	CategoryDemographics:  {Name: "Demographics", Color: "#1ABC9C", Icon: "info-circle"},
}

// entityCategories maps entity types to their profile category. Types
// absent from this table fall back to CategoryIdentity in CategoryFor.
var entityCategories = map[string]Category{
	// identity
	"PERSON": CategoryIdentity,
	"NRP":    CategoryIdentity,

	// contact
	"PHONE_NUMBER":  CategoryContact,
	"EMAIL_ADDRESS": CategoryContact,
	"URL":           CategoryContact,
	"IP_ADDRESS":    CategoryContact,

	// location
	"LOCATION": CategoryLocation,

	// temporal
	"DATE_TIME": CategoryTemporal,

	// financial
	"CREDIT_CARD":    CategoryFinancial,
	"IBAN_CODE":      CategoryFinancial,
	"IN_PAN":         CategoryFinancial,
	"US_BANK_NUMBER": CategoryFinancial,
	"CRYPTO":         CategoryFinancial,
	"US_ITIN":        CategoryFinancial,

	// government ids
	"IN_AADHAAR":        CategoryGovernmentID,
	"IN_PASSPORT":       CategoryGovernmentID,
	"AU_ABN":            CategoryGovernmentID,
	"AU_ACN":            CategoryGovernmentID,
	"SG_NRIC_FIN":       CategoryGovernmentID,
	"AU_TFN":            CategoryGovernmentID,
	"UK_NINO":           CategoryGovernmentID,
	"US_SSN":            CategoryGovernmentID,
	"US_PASSPORT":       CategoryGovernmentID,
	"IN_VOTER":          CategoryGovernmentID,
	"US_DRIVER_LICENSE": CategoryGovernmentID,

	// health
	"UK_NHS":           CategoryHealth,
	"AU_MEDICARE":      CategoryHealth,
	"MEDICAL_LICENSE":  CategoryHealth,
	"HEALTH_CONDITION": CategoryHealth,
	"MEDICAL_TERM":     CategoryHealth,

	// vehicle
	"IN_VEHICLE_REGISTRATION": CategoryVehicle,

	// education
	"EDUCATION_LEVEL": CategoryEducation,
	"SCHOOL_NAME":     CategoryEducation,

	// employment
	"OCCUPATION": CategoryEmployment,
	"EMPLOYER":   CategoryEmployment,

	// relationships
	"RELATIONSHIP":  CategoryRelationships,
	"FAMILY_MEMBER": CategoryRelationships,

	// demographics
	"AGE":       CategoryDemographics,
	"AGE_GROUP": CategoryDemographics,
}

// CategoryFor returns the profile category for an entity type.
//
// Unknown types land in CategoryIdentity so unrecognized detector output
// stays visible in the profile instead of vanishing. Callers that need to
// distinguish a real identity entity from a fallback should check the type
// against KnownEntityTypes.
func CategoryFor(entityType string) Category {
	if c, ok := entityCategories[entityType]; ok {
		return c
	}
	return CategoryIdentity
}

// InfoFor returns the display attributes for a category. Categories outside
// the closed set get a neutral entry named after the raw key.
func InfoFor(c Category) CategoryInfo {
	if info, ok := categoryInfo[c]; ok {
		return info
	}
	return CategoryInfo{Name: string(c), Color: DefaultEntityColor, Icon: "info-circle"}
}
