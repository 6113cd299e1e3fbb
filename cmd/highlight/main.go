// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command highlight starts the stateless highlight demo server.
//
// The demo detects entities in a posted text and answers with colored
// HTML markup. It runs rules-only detection; the full mirror server is
// the one that wires the optional NER model.
//
// # Environment Variables
//
//   - HIGHLIGHT_PORT: HTTP server port (default: 12241)
//   - RULES_PATH: external rules file replacing the embedded set (optional)
//   - MIRROR_DETECTION_THRESHOLD: minimum finding confidence (default: 0.4)
//   - MIRROR_LOG_LEVEL: debug, info, warn, error (default: info)
//
// # Usage
//
//	go build -o highlight ./cmd/highlight
//	./highlight
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
	"github.com/AleutianAI/AleutianMirror/pkg/logging"
	"github.com/AleutianAI/AleutianMirror/services/highlight"
	"github.com/AleutianAI/AleutianMirror/services/recognition"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(getEnvString("MIRROR_LOG_LEVEL", "info")),
		Service: "highlight",
		JSON:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	var rules *recognition.RulesRecognizer
	var err error
	if path := os.Getenv("RULES_PATH"); path != "" {
		rules, err = recognition.NewRulesRecognizerFromFile(path)
	} else {
		rules, err = recognition.NewRulesRecognizer()
	}
	if err != nil {
		log.Fatalf("Failed to load detection rules: %v", err)
	}

	opts := extensions.DefaultOptions().WithRecognizer(rules)

	svc := highlight.New(highlight.Config{
		Port:               getEnvInt("HIGHLIGHT_PORT", 12241),
		DetectionThreshold: getEnvFloat("MIRROR_DETECTION_THRESHOLD", 0),
	}, &opts)

	slog.Info("Starting highlight demo", "rules_path", os.Getenv("RULES_PATH"))

	if err := svc.Run(); err != nil {
		log.Fatalf("Highlight server error: %v", err)
	}
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
