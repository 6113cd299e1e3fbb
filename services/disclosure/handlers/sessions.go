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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/services"
)

func CreateSession(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := svc.CreateSession(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"session_id": sess.ID,
			"created_at": sess.CreatedAt,
		})
	}
}

func DeleteSession(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		slog.Info("Received a request to reset a session", "sessionId", sessionID)
		svc.ResetSession(c.Request.Context(), sessionID)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// GetProfile serves the current aggregate profile. Unknown session ids get
// an empty profile rather than a 404; the client treats both the same.
func GetProfile(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		prof, count := svc.ProfileView(sessionID)
		c.JSON(http.StatusOK, gin.H{
			"profile":             prof,
			"message_count":       count,
			"inference_available": svc.InferenceAvailable(),
		})
	}
}

func ListMessages(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		msgs := svc.Messages(sessionID)
		if msgs == nil {
			msgs = []datatypes.Message{}
		}
		c.JSON(http.StatusOK, gin.H{
			"messages":   msgs,
			"session_id": sessionID,
		})
	}
}
