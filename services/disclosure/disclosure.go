// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package disclosure provides the core disclosure-analysis service for
// AleutianMirror.
//
// This package contains the main Service type that coordinates all
// components of the mirror: HTTP routing, the detection adapter, the
// session store, the explanation pipeline, and observability
// infrastructure.
//
// # Capability Injection
//
// The service supports dependency injection via extensions.ServiceOptions,
// enabling deployments to provide real implementations of:
//   - Recognizer: Entity detection backends (rules, ONNX models)
//   - Summarizer: Inference text generation (OpenAI, Ollama)
//   - AuditLogger: Disclosure event logging
//
// # Usage
//
// Offline (uses no-op defaults, detects nothing):
//
//	cfg := disclosure.Config{Port: 12240}
//	svc, err := disclosure.New(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
//
// Full deployment (with real backends):
//
//	opts := extensions.DefaultOptions().
//	    WithRecognizer(recognition.Multi(rules, model)).
//	    WithSummarizer(summarizer)
//	svc, err := disclosure.New(cfg, &opts)
package disclosure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/observability"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/routes"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/services"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/store"
	"github.com/AleutianAI/AleutianMirror/services/recognition"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the disclosure service.
//
// # Description
//
// Service abstracts the service lifecycle, enabling testing and
// alternative implementations. Only essential lifecycle methods are
// exposed.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
//
// # Assumptions
//
//   - Service is fully initialized before Run() is called
//   - Run() is called at most once per Service instance
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	//
	// # Outputs
	//
	//   - error: Non-nil if the server fails to start or encounters a
	//     fatal error
	//
	// # Examples
	//
	//   if err := svc.Run(); err != nil {
	//       log.Fatalf("server error: %v", err)
	//   }
	Run() error

	// Router returns the underlying Gin engine for testing.
	//
	// # Outputs
	//
	//   - *gin.Engine: The configured router with all routes registered
	//
	// # Assumptions
	//
	//   - Caller will not modify the router
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds disclosure service configuration options.
//
// # Description
//
// Config centralizes configuration for the disclosure service. Values can
// be populated from environment variables or programmatically for testing.
//
// # Required Fields
//
// None - all fields have sensible defaults.
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Custom port and stricter detection
//	cfg := Config{
//	    Port:               8080,
//	    DetectionThreshold: 0.6,
//	}
type Config struct {
	// Port is the HTTP server port. Default: 12240
	Port int

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "mirror-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables recording to the Prometheus collectors.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// DetectionThreshold is the minimum confidence a finding needs to be
	// recorded. Non-positive values use recognition.DefaultThreshold.
	DetectionThreshold float64
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Description
//
// service is the main implementation that coordinates:
//   - HTTP routing via Gin
//   - The detection adapter over the injected recognizer
//   - The in-memory session store
//   - The analysis pipeline (ingest, profile, explain)
//   - OpenTelemetry tracing and Prometheus metrics
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config        Config
	opts          extensions.ServiceOptions
	router        *gin.Engine
	store         *store.Store
	analysis      *services.AnalysisService
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new disclosure Service with the given configuration.
//
// # Description
//
// New initializes all service components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Builds the detection adapter over the injected recognizer
//  5. Creates the session store and the analysis pipeline
//  6. Sets up HTTP routes
//
// If opts is nil, DefaultOptions() is used (no-op implementations). Nil
// fields inside a non-nil opts are individually replaced with no-ops.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//   - opts: Capability injection points. May be nil.
//
// # Outputs
//
//   - Service: Ready-to-run disclosure service
//   - error: Non-nil if initialization fails
//
// # Examples
//
//	opts := extensions.DefaultOptions().
//	    WithRecognizer(recognition.NewRulesRecognizer(ruleset))
//	svc, err := New(Config{}, &opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
func New(cfg Config, opts *extensions.ServiceOptions) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	// Apply capability options (use defaults if nil)
	if opts != nil {
		s.opts = *opts
	} else {
		s.opts = extensions.DefaultOptions()
	}
	if s.opts.Recognizer == nil {
		s.opts.Recognizer = &extensions.NopRecognizer{}
	}
	if s.opts.Summarizer == nil {
		s.opts.Summarizer = &extensions.NopSummarizer{}
	}
	if s.opts.AuditLogger == nil {
		s.opts.AuditLogger = &extensions.NopAuditLogger{}
	}

	// Initialize OpenTelemetry tracer
	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	// Initialize Prometheus metrics
	if s.config.EnableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for disclosure tracking")
	}

	// Build the analysis pipeline over the injected capabilities
	detector := recognition.New(
		recognition.Config{Threshold: s.config.DetectionThreshold},
		s.opts.Recognizer,
	)
	s.store = store.New()
	s.analysis = services.NewAnalysisService(s.store, detector, s.opts.Summarizer, s.opts.AuditLogger)

	// Setup HTTP router
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
//
// # Description
//
// Starts the Gin HTTP server on the configured port. This method blocks
// until the server stops due to error or shutdown signal. Cleanup is
// automatic on return.
//
// # Outputs
//
//   - error: Non-nil if the server fails to start or encounters a fatal
//     error
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting disclosure server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
//
// # Outputs
//
//   - *gin.Engine: The configured router
//
// # Assumptions
//
//   - Caller will not modify the router
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12240
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "mirror-otel-collector:4317"
	}
	// A false EnableMetrics cannot be told apart from an unset field, so
	// metrics are always on.
	cfg.EnableMetrics = true

	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// Sets up an OTLP trace exporter sending spans to the configured
// collector over an insecure gRPC connection (appropriate for internal
// networks).
//
// # Outputs
//
//   - func(context.Context): Cleanup function to call on shutdown
//   - error: Non-nil if tracer setup fails
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("disclosure-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initRouter sets up the Gin HTTP router with all routes.
//
// # Description
//
// Creates the Gin engine, applies middleware, and registers all routes.
// CORS is wide open because the mirror UI is served from arbitrary local
// origins.
//
// # Assumptions
//
//   - The analysis pipeline is initialized
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("disclosure-service"))
	s.router.Use(cors.Default())

	routes.SetupRoutes(s.router, s.analysis)
}

// cleanup releases all resources held by the service.
//
// # Description
//
// Called when Run() exits or on initialization failure. Shuts down the
// tracer exporter.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
