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
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/services"
)

// Client-facing bodies for the two explain failure modes. A summarizer
// timeout surfaces as unavailability, so it gets the configuration hint too.
const (
	summarizerUnavailableMessage = "OpenAI API key not configured. Set OPENAI_API_KEY environment variable."
	explainFailedMessage         = "Failed to generate inference. Please try again."
)

// HandleExplain serves the deep explanation. Empty and entity-free sessions
// answer with canned text and never need a summarizer backend, so the 503
// only fires when a real generation was required and none is configured.
func HandleExplain(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := handlersTracer.Start(c.Request.Context(), "HandleExplain")
		defer span.End()

		sessionID := c.Param("sessionId")
		result, err := svc.Explain(ctx, sessionID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "explanation failed")
			if errors.Is(err, extensions.ErrSummarizerUnavailable) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": summarizerUnavailableMessage})
				return
			}
			slog.Error("Explanation failed", "sessionId", sessionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": explainFailedMessage})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"inference":    result.Inference,
			"profile_hash": result.ProfileHash,
			"cached":       result.Cached,
		})
	}
}
