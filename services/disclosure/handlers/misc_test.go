// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for miscellaneous handlers

package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheck_ReturnsHealthy(t *testing.T) {
	svc := newTestService(&fakeDetector{}, &fakeSummarizer{available: true})
	router := gin.New()
	router.GET("/healthz", HealthCheck(svc))

	w := performRequest(router, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, true, response["inference_available"])
}

func TestHealthCheck_ReportsMissingBackend(t *testing.T) {
	svc := newTestService(&fakeDetector{}, &fakeSummarizer{available: false})
	router := gin.New()
	router.GET("/healthz", HealthCheck(svc))

	w := performRequest(router, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"inference_available":false`)
}

// =============================================================================
// Entity Catalog Tests
// =============================================================================

func TestListEntities_ServesCatalog(t *testing.T) {
	router := gin.New()
	router.GET("/v1/entities", ListEntities())

	w := performRequest(router, "GET", "/v1/entities", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		EntityTypes []struct {
			Type     string `json:"type"`
			Category string `json:"category"`
			Color    string `json:"color"`
			Icon     string `json:"icon"`
		} `json:"entity_types"`
		Categories map[string]datatypes.CategoryInfo `json:"categories"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Len(t, response.EntityTypes, len(datatypes.KnownEntityTypes()))
	assert.Len(t, response.Categories, len(datatypes.CategoryOrder))

	byType := make(map[string]string)
	for _, e := range response.EntityTypes {
		assert.NotEmpty(t, e.Category, "type %s has no category", e.Type)
		assert.NotEmpty(t, e.Color, "type %s has no color", e.Type)
		assert.NotEmpty(t, e.Icon, "type %s has no icon", e.Type)
		byType[e.Type] = e.Category
	}
	assert.Equal(t, "contact", byType["EMAIL_ADDRESS"])
	assert.Equal(t, "government_id", byType["US_SSN"])
	assert.Equal(t, "Contact Info", response.Categories["contact"].Name)
}
