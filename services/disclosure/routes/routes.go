// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/handlers"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/services"
)

func SetupRoutes(router *gin.Engine, svc *services.AnalysisService) {
	router.GET("/healthz", handlers.HealthCheck(svc))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/entities", handlers.ListEntities())
		// Session conversation routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(svc))
			sessions.POST("/:sessionId/messages", handlers.AddMessage(svc))
			sessions.GET("/:sessionId/profile", handlers.GetProfile(svc))
			sessions.GET("/:sessionId/messages", handlers.ListMessages(svc))
			sessions.POST("/:sessionId/explain", handlers.HandleExplain(svc))
			sessions.DELETE("/:sessionId", handlers.DeleteSession(svc))
			sessions.GET("/:sessionId/watch", handlers.HandleWatchSocket(svc))
		}
	}
}
