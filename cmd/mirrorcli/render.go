// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	mirrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	inferenceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	scoreLowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	scoreMidStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	scoreHighStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("75")).
			Padding(0, 1)
)

// =============================================================================
// Score Meter
// =============================================================================

// scoreStyle picks the meter color for a score. The bands step at 30 and
// 70 so the bar shifts green to amber to red as a profile fills in.
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 70:
		return scoreHighStyle
	case score >= 30:
		return scoreMidStyle
	default:
		return scoreLowStyle
	}
}

// scoreMeter renders the identifiability score as a fixed-width bar.
// Scores outside 0..100 are clamped before filling.
func scoreMeter(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	filled := int(score / 100 * float64(width))
	empty := width - filled

	bar := scoreStyle(score).Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", empty))
	return fmt.Sprintf("%s %5.1f/100", bar, score)
}

// =============================================================================
// Profile Pane
// =============================================================================

// maxValuesPerCategory bounds how many unique values a category line shows
// before collapsing the rest into a "+n more" suffix.
const maxValuesPerCategory = 3

// profileLines renders the profile as one line per populated category,
// preceded by the score meter and a count line. Categories render in
// canonical order so the pane layout is stable across refreshes.
func profileLines(p *datatypes.Profile, messageCount int) []string {
	lines := []string{titleStyle.Render("Disclosure Profile")}

	if p == nil || p.TotalEntities == 0 {
		lines = append(lines,
			scoreMeter(0, 20),
			mutedStyle.Render(fmt.Sprintf("messages %d", messageCount)),
			mutedStyle.Render("Nothing disclosed yet."),
		)
		return lines
	}

	lines = append(lines,
		scoreMeter(p.IdentifiabilityScore, 20),
		mutedStyle.Render(fmt.Sprintf("messages %d, entities %d", messageCount, p.TotalEntities)),
	)

	for _, cat := range datatypes.CategoryOrder {
		data := p.Categories[cat]
		if data == nil || data.Count == 0 {
			continue
		}
		values := strings.Join(firstN(data.UniqueValues, maxValuesPerCategory), ", ")
		if extra := len(data.UniqueValues) - maxValuesPerCategory; extra > 0 {
			values += fmt.Sprintf(" (+%d more)", extra)
		}
		name := lipgloss.NewStyle().Foreground(lipgloss.Color(data.Color)).Render(data.Name)
		lines = append(lines, fmt.Sprintf("%s %s: %s", data.Icon, name, values))
	}
	return lines
}

// renderProfileBox renders the full profile inside a rounded border, used
// by the one-shot profile command.
func renderProfileBox(p *datatypes.Profile, messageCount int) string {
	return paneStyle.Render(strings.Join(profileLines(p, messageCount), "\n"))
}

// renderProfilePane renders the profile at a fixed height for the chat
// TUI. Content beyond rows collapses into a final "+n more" line; shorter
// content is padded so the viewport above never shifts.
func renderProfilePane(p *datatypes.Profile, messageCount, rows, width int) string {
	lines := profileLines(p, messageCount)
	if len(lines) > rows {
		hidden := len(lines) - rows + 1
		lines = append(lines[:rows-1], mutedStyle.Render(fmt.Sprintf("+%d more categories", hidden)))
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}

	style := paneStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func firstN(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

// =============================================================================
// Transcript Lines
// =============================================================================

// entityLine renders one detection for the transcript.
func entityLine(e datatypes.Entity) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Render(e.Type)
	return fmt.Sprintf("  %s %s %q (%.2f)", mutedStyle.Render("detected"), label, e.Text, e.Confidence)
}

// resultLines renders everything the transcript shows for one analyzed
// message: the detections, then the short inference when the server
// produced one.
func resultLines(res *MessageResult) []string {
	var lines []string
	for _, e := range res.Message.Entities {
		lines = append(lines, entityLine(e))
	}
	if len(res.Message.Entities) == 0 {
		lines = append(lines, mutedStyle.Render("  nothing detected"))
	}
	if res.QuickInference != nil && *res.QuickInference != "" {
		lines = append(lines, mirrorStyle.Render("mirror: ")+inferenceStyle.Render(*res.QuickInference))
	}
	return lines
}
