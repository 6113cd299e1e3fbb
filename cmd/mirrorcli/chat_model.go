// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package main contains the bubbletea chat model.
//
// The layout is a scrolling transcript viewport over a fixed-height
// disclosure profile pane, with a textinput prompt at the bottom. Every
// server response refreshes the pane, so the user watches their profile
// fill in as they type.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

// =============================================================================
// Messages
// =============================================================================

// sendResultMsg carries the server's analysis of a posted message.
type sendResultMsg struct {
	result *MessageResult
	err    error
}

// explainResultMsg carries the deep explanation response.
type explainResultMsg struct {
	result *ExplainResult
	err    error
}

// resetDoneMsg signals that the session reset finished.
type resetDoneMsg struct {
	err error
}

// =============================================================================
// Model
// =============================================================================

// profilePaneRows is the content height of the profile pane. The pane is
// padded to this height so the transcript viewport never shifts.
const profilePaneRows = 8

// chatModel is the bubbletea model for the interactive chat session.
//
// # Thread Safety
//
// Single-threaded use within the bubbletea event loop only. Server calls
// run as tea commands and report back through the message types above.
type chatModel struct {
	ctx       context.Context
	client    *Client
	sessionID string

	// Widgets
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	// Conversation state
	transcript   []string
	profile      *datatypes.Profile
	messageCount int

	// State flags
	waiting  bool
	ready    bool
	quitting bool

	// Terminal dimensions
	width  int
	height int
}

// newChatModel creates the model for an already-created session.
func newChatModel(ctx context.Context, client *Client, sessionID string) chatModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Tell the mirror something..."
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = mirrorStyle

	return chatModel{
		ctx:       ctx,
		client:    client,
		sessionID: sessionID,
		input:     ti,
		spin:      sp,
	}
}

// Init implements tea.Model.
func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		paneHeight := profilePaneRows + 2
		footerHeight := 2
		viewportHeight := m.height - headerHeight - paneHeight - footerHeight
		if viewportHeight < 3 {
			viewportHeight = 3
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.input.Width = m.width - 4
		m.updateViewportContent()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			return m.submitLine()

		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		// Everything else edits the input line.
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case sendResultMsg:
		m.waiting = false
		if msg.err != nil {
			m.appendLines(errorStyle.Render(fmt.Sprintf("error: %v", msg.err)))
			return m, nil
		}
		m.messageCount++
		m.profile = msg.result.Profile
		m.appendLines(resultLines(msg.result)...)
		return m, nil

	case explainResultMsg:
		m.waiting = false
		if msg.err != nil {
			m.appendLines(errorStyle.Render(fmt.Sprintf("error: %v", msg.err)))
			return m, nil
		}
		text := msg.result.Inference
		if msg.result.Cached {
			text = "(cached) " + text
		}
		m.appendLines(mirrorStyle.Render("mirror: ") + inferenceStyle.Render(text))
		return m, nil

	case resetDoneMsg:
		m.waiting = false
		if msg.err != nil {
			m.appendLines(errorStyle.Render(fmt.Sprintf("error: %v", msg.err)))
			return m, nil
		}
		m.transcript = nil
		m.profile = nil
		m.messageCount = 0
		m.appendLines(mutedStyle.Render("Session cleared. The profile starts over."))
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// submitLine handles Enter: exit words quit, slash commands dispatch,
// anything else posts to the server. One request in flight at a time;
// the input stays editable while waiting.
func (m *chatModel) submitLine() (chatModel, tea.Cmd) {
	if m.waiting {
		return *m, nil
	}
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return *m, nil
	}
	m.input.SetValue("")

	if isExitCommand(line) {
		m.quitting = true
		return *m, tea.Quit
	}

	switch {
	case line == "/reset":
		m.waiting = true
		return *m, tea.Batch(m.resetSession(), m.spin.Tick)

	case line == "/explain":
		m.waiting = true
		return *m, tea.Batch(m.requestExplanation(), m.spin.Tick)

	case strings.HasPrefix(line, "/"):
		m.appendLines(errorStyle.Render(fmt.Sprintf("Unknown command %q. Available: /reset, /explain.", line)))
		return *m, nil
	}

	m.appendLines(userStyle.Render("you: ") + line)
	m.waiting = true
	return *m, tea.Batch(m.sendMessage(line), m.spin.Tick)
}

// =============================================================================
// Server Commands
// =============================================================================

func (m chatModel) sendMessage(content string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.client.SendMessage(m.ctx, m.sessionID, content)
		return sendResultMsg{result: res, err: err}
	}
}

func (m chatModel) requestExplanation() tea.Cmd {
	return func() tea.Msg {
		res, err := m.client.Explain(m.ctx, m.sessionID)
		return explainResultMsg{result: res, err: err}
	}
}

func (m chatModel) resetSession() tea.Cmd {
	return func() tea.Msg {
		return resetDoneMsg{err: m.client.ResetSession(m.ctx, m.sessionID)}
	}
}

// =============================================================================
// Viewport Content
// =============================================================================

func (m *chatModel) appendLines(lines ...string) {
	m.transcript = append(m.transcript, lines...)
	m.updateViewportContent()
}

func (m *chatModel) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

// =============================================================================
// View
// =============================================================================

// View implements tea.Model.
func (m chatModel) View() string {
	if m.quitting {
		return fmt.Sprintf("Session %s ended.\n", m.sessionID)
	}
	if !m.ready {
		return "Connecting...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(renderProfilePane(m.profile, m.messageCount, profilePaneRows, m.width))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m chatModel) renderHeader() string {
	title := titleStyle.Render("mirror chat")
	session := mutedStyle.Render(fmt.Sprintf("session %s", shortID(m.sessionID)))
	rule := m.width
	if rule < 0 {
		rule = 0
	}
	return title + "  " + session + "\n" + mutedStyle.Render(strings.Repeat("─", rule))
}

func (m chatModel) renderFooter() string {
	help := mutedStyle.Render("enter to send, /reset /explain, exit or ctrl+c to quit")
	if m.waiting {
		return m.spin.View() + mutedStyle.Render(" analyzing...") + "\n" + help
	}
	return m.input.View() + "\n" + help
}

// shortID trims a session id to its leading segment for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
