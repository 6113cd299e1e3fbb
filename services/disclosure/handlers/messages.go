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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/services"
)

var handlersTracer = otel.Tracer("mirror.disclosure.handlers")

// detectorDownMessage is the client-facing body for a failed detection.
// The message is refused rather than stored unanalyzed.
const detectorDownMessage = "Entity detection is unavailable. Message not recorded."

func AddMessage(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlersTracer.Start(c.Request.Context(), "AddMessage")
		defer span.End()

		sessionID := c.Param("sessionId")
		var req datatypes.AddMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the message request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		result, err := svc.Ingest(ctx, sessionID, req.Role, req.Content)
		if err != nil {
			if datatypes.IsValidation(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "ingest failed")
			slog.Error("Message ingest failed", "sessionId", sessionID, "error", err)
			if errors.Is(err, datatypes.ErrDetectorUnavailable) {
				c.JSON(http.StatusBadGateway, gin.H{"error": detectorDownMessage})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record message."})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":         result.Message,
			"profile":         result.Profile,
			"quick_inference": result.QuickInference,
			"session_id":      result.SessionID,
		})
	}
}
