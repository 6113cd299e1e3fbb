// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package main contains the PlainChatRunner implementation.
//
// This file implements the line-oriented chat loop used when stdout is
// not a terminal (piped input, scripts, CI). The full-screen TUI lives
// in chat_model.go; both speak to the server through the same Client.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// =============================================================================
// Input Readers
// =============================================================================

// InputReader abstracts reading a line of user input, injectable for
// testing.
type InputReader interface {
	// ReadLine reads one line. Returns io.EOF when input is exhausted.
	ReadLine() (string, error)
}

// StdinReader reads lines from standard input.
type StdinReader struct {
	reader *bufio.Reader
}

// NewStdinReader creates an InputReader over os.Stdin.
func NewStdinReader() *StdinReader {
	return &StdinReader{reader: bufio.NewReader(os.Stdin)}
}

// ReadLine reads one line from stdin, trimming the trailing newline and
// surrounding whitespace.
func (r *StdinReader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// MockInputReader returns a fixed sequence of inputs, then io.EOF.
// Used by tests to drive the chat loop without a terminal.
type MockInputReader struct {
	inputs []string
	index  int
}

// NewMockInputReader creates a reader over the given inputs.
func NewMockInputReader(inputs []string) *MockInputReader {
	return &MockInputReader{inputs: inputs}
}

// ReadLine returns the next queued input, or io.EOF when exhausted.
func (r *MockInputReader) ReadLine() (string, error) {
	if r.index >= len(r.inputs) {
		return "", io.EOF
	}
	input := r.inputs[r.index]
	r.index++
	return input, nil
}

// isExitCommand reports whether the input ends the chat session.
// Matching is exact and case-sensitive.
func isExitCommand(input string) bool {
	return input == "exit" || input == "quit"
}

// =============================================================================
// PlainChatRunner
// =============================================================================

// PlainChatRunner runs the chat loop with line-based output.
//
// # Description
//
// Each user line is posted to the server and the analysis is printed as
// plain lines: detections, the score meter, and the short inference when
// one was generated. The /reset and /explain slash commands work the
// same as in the TUI.
//
// # Thread Safety
//
// Not safe for concurrent Run calls. Single use.
type PlainChatRunner struct {
	client    *Client
	sessionID string
	input     InputReader
	out       io.Writer
}

// NewPlainChatRunner creates a runner for an already-created session.
func NewPlainChatRunner(client *Client, sessionID string, input InputReader, out io.Writer) *PlainChatRunner {
	return &PlainChatRunner{
		client:    client,
		sessionID: sessionID,
		input:     input,
		out:       out,
	}
}

// Run executes the chat loop until "exit", "quit", end of input, or
// context cancellation. Server errors on a single message are printed
// and the loop continues; only input failures end the session early.
func (r *PlainChatRunner) Run(ctx context.Context) error {
	fmt.Fprintf(r.out, "Connected to %s (session %s)\n", r.client.BaseURL(), r.sessionID)
	fmt.Fprintln(r.out, "Type a message, /reset, /explain, or exit.")

	for {
		// Check for cancellation before blocking on input.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(r.out, "> ")
		input, err := r.input.ReadLine()
		if err != nil {
			if err == io.EOF {
				fmt.Fprintf(r.out, "Session %s ended.\n", r.sessionID)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		if input == "" {
			continue
		}
		if isExitCommand(input) {
			fmt.Fprintf(r.out, "Session %s ended.\n", r.sessionID)
			return nil
		}
		if strings.HasPrefix(input, "/") {
			r.handleSlashCommand(ctx, input)
			continue
		}

		res, err := r.client.SendMessage(ctx, r.sessionID, input)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(r.out, "error: %v\n", err)
			continue
		}
		r.printResult(res)
	}
}

// handleSlashCommand dispatches /reset and /explain. Anything else gets
// a usage line.
func (r *PlainChatRunner) handleSlashCommand(ctx context.Context, input string) {
	switch input {
	case "/reset":
		if err := r.client.ResetSession(ctx, r.sessionID); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			return
		}
		fmt.Fprintln(r.out, "Session cleared. The profile starts over.")
	case "/explain":
		res, err := r.client.Explain(ctx, r.sessionID)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			return
		}
		if res.Cached {
			fmt.Fprintln(r.out, "(cached)")
		}
		fmt.Fprintf(r.out, "mirror: %s\n", res.Inference)
	default:
		fmt.Fprintf(r.out, "Unknown command %q. Available: /reset, /explain.\n", input)
	}
}

// printResult renders one message analysis as plain lines.
func (r *PlainChatRunner) printResult(res *MessageResult) {
	for _, line := range resultLines(res) {
		fmt.Fprintln(r.out, line)
	}
	if res.Profile != nil {
		fmt.Fprintf(r.out, "identifiability %s\n", scoreMeter(res.Profile.IdentifiabilityScore, 20))
	}
}
