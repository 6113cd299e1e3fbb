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
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func runChatCommand(cmd *cobra.Command, args []string) {
	baseURL := getMirrorBaseURL()
	client := NewClient(baseURL)

	// Set up graceful shutdown with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	sess, err := client.CreateSession(ctx)
	if err != nil {
		log.Fatalf("Failed to create a session on %s: %v", baseURL, err)
	}

	// Piped stdout gets the line-based loop; a real terminal gets the TUI.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		runner := NewPlainChatRunner(client, sess.SessionID, NewStdinReader(), os.Stdout)
		if err := runner.Run(ctx); err != nil && err != context.Canceled {
			log.Fatalf("Chat error: %v", err)
		}
		return
	}

	m := newChatModel(ctx, client, sess.SessionID)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Chat error: %v", err)
	}
}
