// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_rules_docs generates a markdown reference table from a recognition
// rules file.
//
// Usage:
//
//	go run scripts/generate_rules_docs.go [rules.yaml] > docs/rules_reference.md
//
// Without an argument it documents the embedded default rule set at
// services/recognition/rules_default.yaml. The file is decoded and compiled
// through the same types the server loads it with, so a file this script
// accepts is a file the server accepts.
//
// The generated documentation includes:
//   - Summary statistics over recognizers and patterns
//   - A quick reference table mapping entity types to profile categories
//   - Per-category pattern detail with confidences and regexes
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
	"github.com/AleutianAI/AleutianMirror/services/recognition"
)

func main() {
	path := "services/recognition/rules_default.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	var file recognition.RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing YAML: %v\n", err)
		os.Exit(1)
	}
	if err := file.Compile(); err != nil {
		fmt.Fprintf(os.Stderr, "Error compiling rules: %v\n", err)
		os.Exit(1)
	}

	generateMarkdown(path, &file)
}

// byCategory groups recognizers under their profile category, keyed for
// iteration in canonical category order.
func byCategory(file *recognition.RuleFile) map[datatypes.Category][]recognition.RuleRecognizer {
	grouped := make(map[datatypes.Category][]recognition.RuleRecognizer)
	for _, rec := range file.Recognizers {
		cat := datatypes.CategoryFor(rec.EntityType)
		grouped[cat] = append(grouped[cat], rec)
	}
	return grouped
}

func patternCount(file *recognition.RuleFile) int {
	n := 0
	for _, rec := range file.Recognizers {
		n += len(rec.Patterns)
	}
	return n
}

// confidenceRange renders "0.60" or "0.40-0.85" for a recognizer's patterns.
func confidenceRange(rec recognition.RuleRecognizer) string {
	if len(rec.Patterns) == 0 {
		return "-"
	}
	lo, hi := rec.Patterns[0].Confidence, rec.Patterns[0].Confidence
	for _, pat := range rec.Patterns[1:] {
		if pat.Confidence < lo {
			lo = pat.Confidence
		}
		if pat.Confidence > hi {
			hi = pat.Confidence
		}
	}
	if lo == hi {
		return fmt.Sprintf("%.2f", lo)
	}
	return fmt.Sprintf("%.2f-%.2f", lo, hi)
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(path string, file *recognition.RuleFile) {
	fmt.Println("# Recognition Rules Reference")
	fmt.Println()
	fmt.Println("## Overview")
	fmt.Println()
	fmt.Println("This document describes every regex recognizer the mirror server loads.")
	fmt.Printf("The rule set is defined in `%s` and can be replaced at\n", path)
	fmt.Println("runtime via the `RULES_PATH` environment variable.")
	fmt.Println()
	fmt.Printf("**Generated:** %s\n", time.Now().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()

	grouped := byCategory(file)

	// Statistics
	fmt.Println("## Summary Statistics")
	fmt.Println()
	fmt.Println("| Metric | Count |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| Recognizers | %d |\n", len(file.Recognizers))
	fmt.Printf("| Patterns | %d |\n", patternCount(file))
	fmt.Printf("| Profile Categories Covered | %d |\n", len(grouped))
	fmt.Println()

	// Quick reference table (all recognizers)
	fmt.Println("---")
	fmt.Println()
	fmt.Println("## Quick Reference")
	fmt.Println()
	fmt.Println("| Entity Type | Profile Category | Patterns | Confidence |")
	fmt.Println("|-------------|------------------|----------|------------|")
	for _, cat := range datatypes.CategoryOrder {
		for _, rec := range grouped[cat] {
			fmt.Printf("| `%s` | %s | %d | %s |\n",
				rec.EntityType, cat, len(rec.Patterns), confidenceRange(rec))
		}
	}
	fmt.Println()

	// Detailed sections per category, titled with the profile display names.
	names := datatypes.NewProfile().Categories
	fmt.Println("---")
	fmt.Println()
	for _, cat := range datatypes.CategoryOrder {
		recs := grouped[cat]
		if len(recs) == 0 {
			continue
		}
		fmt.Printf("## %s\n", names[cat].Name)
		fmt.Println()

		for _, rec := range recs {
			fmt.Printf("### `%s`\n", rec.EntityType)
			fmt.Println()
			if rec.Description != "" {
				fmt.Println(rec.Description)
				fmt.Println()
			}
			fmt.Println("| ID | Confidence | Regex |")
			fmt.Println("|----|------------|-------|")
			for _, pat := range rec.Patterns {
				fmt.Printf("| `%s` | %.2f | `%s` |\n",
					pat.ID, pat.Confidence, escapePipes(pat.Regex))
			}
			fmt.Println()
		}
	}
}

// escapePipes keeps regex alternation from breaking the markdown table.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
