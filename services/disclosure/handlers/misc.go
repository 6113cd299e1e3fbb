// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/services"
)

func HealthCheck(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":              "healthy",
			"inference_available": svc.InferenceAvailable(),
		})
	}
}

// ListEntities serves the detection catalog: every entity type the service
// can recognize with its display metadata. The catalog is static, so it is
// built once at route setup.
func ListEntities() gin.HandlerFunc {
	type entityInfo struct {
		Type     string             `json:"type"`
		Category datatypes.Category `json:"category"`
		Color    string             `json:"color"`
		Icon     string             `json:"icon"`
	}

	types := datatypes.KnownEntityTypes()
	entities := make([]entityInfo, 0, len(types))
	for _, t := range types {
		cat := datatypes.CategoryFor(t)
		entities = append(entities, entityInfo{
			Type:     t,
			Category: cat,
			Color:    datatypes.ColorFor(t),
			Icon:     datatypes.InfoFor(cat).Icon,
		})
	}
	categories := make(map[datatypes.Category]datatypes.CategoryInfo, len(datatypes.CategoryOrder))
	for _, cat := range datatypes.CategoryOrder {
		categories[cat] = datatypes.InfoFor(cat)
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"entity_types": entities,
			"categories":   categories,
		})
	}
}
