// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command mirror starts the AleutianMirror disclosure HTTP server.
//
// This is the main entry point for the mirror service. It reads
// configuration from environment variables (and a best-effort .env file),
// wires the detection and summarization backends, and starts the server.
//
// # Environment Variables
//
//   - MIRROR_PORT: HTTP server port (default: 12240)
//   - MIRROR_DETECTION_THRESHOLD: minimum finding confidence (default: 0.4)
//   - RULES_PATH: external rules file replacing the embedded set,
//     hot-reloaded on change (optional)
//   - MIRROR_NER_MODEL: hugot NER model directory or Hugging Face id (optional)
//   - MIRROR_MODEL_DIR: download directory for model ids (default: ./models)
//   - MIRROR_SUMMARIZER_BACKEND: openai, ollama, none (default: auto-select)
//   - OPENAI_API_KEY, OPENAI_MODEL: OpenAI summarization backend
//   - OLLAMA_BASE_URL, OLLAMA_MODEL: Ollama summarization backend
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: mirror-otel-collector:4317)
//   - MIRROR_LOG_LEVEL: debug, info, warn, error (default: info)
//   - MIRROR_LOG_DIR: log file directory (optional)
//
// # Usage
//
//	# Build
//	go build -o mirror ./cmd/mirror
//
//	# Run
//	./mirror
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/awnumar/memguard"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
	"github.com/AleutianAI/AleutianMirror/pkg/logging"
	"github.com/AleutianAI/AleutianMirror/services/disclosure"
	"github.com/AleutianAI/AleutianMirror/services/llm"
	"github.com/AleutianAI/AleutianMirror/services/recognition"
)

func main() {
	// Best effort; the container passes real environment variables.
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	// The summarizer API key lives in an enclave; purge it on interrupt
	// and on normal shutdown.
	memguard.CatchInterrupt()
	defer memguard.Purge()

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(getEnvString("MIRROR_LOG_LEVEL", "info")),
		LogDir:  os.Getenv("MIRROR_LOG_DIR"),
		Service: "mirror",
		JSON:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	recognizer, cleanupRecognizers, err := buildRecognizer(logger)
	if err != nil {
		log.Fatalf("Failed to configure detection: %v", err)
	}
	defer cleanupRecognizers()

	summarizer, err := llm.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to configure the summarizer: %v", err)
	}

	opts := extensions.DefaultOptions().
		WithRecognizer(recognizer).
		WithSummarizer(summarizer).
		WithAudit(extensions.NewMemoryAuditLogger(1024))

	cfg := disclosure.Config{
		Port:               getEnvInt("MIRROR_PORT", 12240),
		OTelEndpoint:       getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "mirror-otel-collector:4317"),
		DetectionThreshold: getEnvFloat("MIRROR_DETECTION_THRESHOLD", 0),
	}

	slog.Info("Starting mirror",
		"port", cfg.Port,
		"detector", recognizer.Name(),
		"summarizer_available", summarizer.Available(),
	)

	svc, err := disclosure.New(cfg, &opts)
	if err != nil {
		log.Fatalf("Failed to create the disclosure service: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("Mirror server error: %v", err)
	}
}

// buildRecognizer assembles the recognizer stack: the rules engine, always,
// plus the optional NER model. The returned cleanup releases the model
// session and the rules watcher.
func buildRecognizer(logger *logging.Logger) (extensions.Recognizer, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var rules *recognition.RulesRecognizer
	var err error
	if path := os.Getenv("RULES_PATH"); path != "" {
		rules, err = recognition.NewRulesRecognizerFromFile(path)
		if err != nil {
			return nil, cleanup, err
		}
		slog.Info("Loaded external detection rules", "path", path)

		watcher, werr := recognition.NewRulesWatcher(path, rules, logger)
		if werr != nil {
			slog.Warn("Rules hot-reload unavailable", "error", werr)
		} else if werr := watcher.Start(context.Background()); werr != nil {
			slog.Warn("Rules hot-reload unavailable", "error", werr)
		} else {
			cleanups = append(cleanups, watcher.Stop)
		}
	} else {
		rules, err = recognition.NewRulesRecognizer()
		if err != nil {
			return nil, cleanup, err
		}
	}

	recognizers := []extensions.Recognizer{rules}

	if ref := os.Getenv("MIRROR_NER_MODEL"); ref != "" {
		model, merr := recognition.NewModelRecognizer(ref, getEnvString("MIRROR_MODEL_DIR", "./models"))
		if merr != nil {
			// A configured model that cannot load is a deployment error,
			// not a silent downgrade to rules-only detection.
			return nil, cleanup, merr
		}
		cleanups = append(cleanups, func() {
			if cerr := model.Close(); cerr != nil {
				slog.Warn("NER model close error", "error", cerr)
			}
		})
		recognizers = append(recognizers, model)
		slog.Info("NER model loaded", "model", ref)
	}

	return recognition.Multi(recognizers...), cleanup, nil
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
