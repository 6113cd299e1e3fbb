// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

// readyModel returns a model that has received its first window size, so
// the viewport exists and View renders the full layout. The client points
// at an unroutable address; these tests never invoke the returned
// commands, so nothing is dialed.
func readyModel(t *testing.T) chatModel {
	t.Helper()
	m := newChatModel(context.Background(), NewClient("http://127.0.0.1:0"), "sess-model-test")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(chatModel)
}

func transcriptText(m chatModel) string {
	return strings.Join(m.transcript, "\n")
}

func TestNewChatModel_InitialState(t *testing.T) {
	m := newChatModel(context.Background(), NewClient("http://127.0.0.1:0"), "sess-model-test")

	if !m.input.Focused() {
		t.Error("input should start focused")
	}
	if m.waiting {
		t.Error("model should not start waiting")
	}
	if m.ready {
		t.Error("model should not be ready before the first window size")
	}
}

func TestChatModel_WindowSizeMakesReady(t *testing.T) {
	m := readyModel(t)

	if !m.ready {
		t.Fatal("model not ready after window size message")
	}
	if m.viewport.Width != 80 {
		t.Errorf("viewport width = %d, want 80", m.viewport.Width)
	}
	if !strings.Contains(m.View(), "mirror chat") {
		t.Errorf("View() missing header, got: %s", m.View())
	}
}

func TestChatModel_SendResultUpdatesProfileAndTranscript(t *testing.T) {
	m := readyModel(t)
	m.waiting = true

	result := &MessageResult{
		Message: datatypes.Message{
			Role:    datatypes.RoleUser,
			Content: "I'm Bob",
			Entities: []datatypes.Entity{
				{Text: "Bob", Type: "PERSON", Confidence: 0.85, Color: "#FF7D63"},
			},
		},
		Profile: &datatypes.Profile{TotalEntities: 1, IdentifiabilityScore: 8.3},
	}

	updated, _ := m.Update(sendResultMsg{result: result})
	cm := updated.(chatModel)

	if cm.waiting {
		t.Error("waiting should clear after a result")
	}
	if cm.messageCount != 1 {
		t.Errorf("messageCount = %d, want 1", cm.messageCount)
	}
	if cm.profile == nil || cm.profile.TotalEntities != 1 {
		t.Errorf("profile not updated from result: %+v", cm.profile)
	}
	if !strings.Contains(transcriptText(cm), "PERSON") {
		t.Errorf("transcript missing detection line, got: %s", transcriptText(cm))
	}
}

func TestChatModel_SendResultError(t *testing.T) {
	m := readyModel(t)
	m.waiting = true

	updated, _ := m.Update(sendResultMsg{err: errors.New("server exploded")})
	cm := updated.(chatModel)

	if cm.waiting {
		t.Error("waiting should clear after an error")
	}
	if cm.messageCount != 0 {
		t.Errorf("messageCount = %d, want 0 after a failed send", cm.messageCount)
	}
	if !strings.Contains(transcriptText(cm), "server exploded") {
		t.Errorf("transcript missing error line, got: %s", transcriptText(cm))
	}
}

func TestChatModel_ExplainResultCachedPrefix(t *testing.T) {
	m := readyModel(t)
	m.waiting = true

	updated, _ := m.Update(explainResultMsg{
		result: &ExplainResult{Inference: "You are in Albany.", Cached: true},
	})
	cm := updated.(chatModel)

	text := transcriptText(cm)
	if !strings.Contains(text, "(cached)") {
		t.Errorf("transcript missing cached marker, got: %s", text)
	}
	if !strings.Contains(text, "You are in Albany.") {
		t.Errorf("transcript missing inference, got: %s", text)
	}
}

func TestChatModel_ResetClearsState(t *testing.T) {
	m := readyModel(t)
	m.transcript = []string{"you: hello", "  detected PERSON"}
	m.profile = &datatypes.Profile{TotalEntities: 2}
	m.messageCount = 2
	m.waiting = true

	updated, _ := m.Update(resetDoneMsg{})
	cm := updated.(chatModel)

	if cm.profile != nil {
		t.Error("profile should clear on reset")
	}
	if cm.messageCount != 0 {
		t.Errorf("messageCount = %d, want 0", cm.messageCount)
	}
	if strings.Contains(transcriptText(cm), "hello") {
		t.Errorf("old transcript survived the reset: %s", transcriptText(cm))
	}
	if !strings.Contains(transcriptText(cm), "Session cleared") {
		t.Errorf("transcript missing reset confirmation, got: %s", transcriptText(cm))
	}
}

func TestChatModel_EnterSendsMessage(t *testing.T) {
	m := readyModel(t)
	m.input.SetValue("hello there")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cm := updated.(chatModel)

	if !cm.waiting {
		t.Error("model should wait while the message is in flight")
	}
	if cmd == nil {
		t.Error("Enter should produce a send command")
	}
	if cm.input.Value() != "" {
		t.Errorf("input not cleared, got %q", cm.input.Value())
	}
	if !strings.Contains(transcriptText(cm), "you:") {
		t.Errorf("transcript missing the user's line, got: %s", transcriptText(cm))
	}
}

func TestChatModel_EnterExitQuits(t *testing.T) {
	m := readyModel(t)
	m.input.SetValue("exit")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cm := updated.(chatModel)

	if !cm.quitting {
		t.Error("exit should set quitting")
	}
	if cmd == nil {
		t.Fatal("exit should produce a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("exit command did not produce tea.QuitMsg")
	}
}

func TestChatModel_UnknownSlashCommand(t *testing.T) {
	m := readyModel(t)
	m.input.SetValue("/bogus")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cm := updated.(chatModel)

	if cm.waiting {
		t.Error("unknown command should not wait on the server")
	}
	if cmd != nil {
		t.Error("unknown command should not produce a server command")
	}
	if !strings.Contains(transcriptText(cm), "Unknown command") {
		t.Errorf("transcript missing the usage hint, got: %s", transcriptText(cm))
	}
}

func TestChatModel_EnterWhileWaitingIgnored(t *testing.T) {
	m := readyModel(t)
	m.waiting = true
	m.input.SetValue("queued up")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cm := updated.(chatModel)

	if cmd != nil {
		t.Error("Enter while waiting should not produce a command")
	}
	// The typed line stays in the input for the next Enter.
	if cm.input.Value() != "queued up" {
		t.Errorf("input value = %q, want it retained", cm.input.Value())
	}
	if len(cm.transcript) != 0 {
		t.Errorf("transcript grew while waiting: %v", cm.transcript)
	}
}

func TestChatModel_CtrlCQuits(t *testing.T) {
	m := readyModel(t)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	cm := updated.(chatModel)

	if !cm.quitting {
		t.Error("ctrl+c should set quitting")
	}
	if cmd == nil {
		t.Error("ctrl+c should produce a quit command")
	}
	if !strings.Contains(cm.View(), "ended") {
		t.Errorf("quitting View() should show the end line, got: %s", cm.View())
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"abcdefghij", "abcdefgh"},
		{"short", "short"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := shortID(tt.id); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
