// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package highlight provides the stateless highlight demo service.
//
// The service exposes one operation: POST /v1/highlight takes a text and
// answers with the detected entities and an HTML rendering of the text,
// each detected span wrapped in a <mark> tag colored by entity type.
// Nothing is stored between requests; there are no sessions, no cache,
// and no summarizer. Detection runs through the same recognition adapter
// the disclosure service uses.
package highlight

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
	"github.com/AleutianAI/AleutianMirror/services/recognition"
)

// Service defines the contract for the highlight service.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// Config holds highlight service configuration options.
type Config struct {
	// Port is the HTTP server port. Default: 12241
	Port int

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// DetectionThreshold is the minimum confidence a finding needs to be
	// returned. Non-positive values use recognition.DefaultThreshold.
	DetectionThreshold float64
}

type service struct {
	config   Config
	detector *recognition.Adapter
	router   *gin.Engine
}

// New creates a highlight Service over the injected recognizer. If opts
// is nil, DefaultOptions() is used and the service marks nothing.
func New(cfg Config, opts *extensions.ServiceOptions) Service {
	if cfg.Port == 0 {
		cfg.Port = 12241
	}

	recognizer := extensions.Recognizer(&extensions.NopRecognizer{})
	if opts != nil && opts.Recognizer != nil {
		recognizer = opts.Recognizer
	}

	s := &service{
		config: cfg,
		detector: recognition.New(
			recognition.Config{Threshold: cfg.DetectionThreshold},
			recognizer,
		),
	}
	s.initRouter()
	return s
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting highlight server", "port", s.config.Port)
	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(cors.Default())

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API version 1 group
	v1 := s.router.Group("/v1")
	{
		v1.POST("/highlight", s.handleHighlight)
	}
}

type highlightRequest struct {
	Text string `json:"text"`
}

func (s *service) handleHighlight(c *gin.Context) {
	var req highlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("Failed to parse the highlight request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entities, err := s.detector.Detect(c.Request.Context(), req.Text, "en", 0)
	if err != nil {
		slog.Error("Highlight detection failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Entity detection is unavailable."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entities": entities,
		"html":     Markup(req.Text, entities),
	})
}

var _ Service = (*service)(nil)
