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
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// oneShotTimeout bounds the profile and reset commands, which should
// answer immediately from a healthy server.
const oneShotTimeout = 30 * time.Second

func runProfileCommand(cmd *cobra.Command, args []string) {
	sessionID := args[0]
	client := NewClient(getMirrorBaseURL())

	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	res, err := client.GetProfile(ctx, sessionID)
	if err != nil {
		log.Fatalf("Failed to fetch the profile: %v", err)
	}

	fmt.Println(renderProfileBox(res.Profile, res.MessageCount))
	if !res.InferenceAvailable {
		fmt.Println("(no summarizer configured on the server; /explain answers are canned)")
	}
}

func runResetCommand(cmd *cobra.Command, args []string) {
	sessionID := args[0]

	if !resetYes {
		fmt.Printf("Clear all recorded messages for session %s? [y/N]: ", sessionID)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	client := NewClient(getMirrorBaseURL())
	ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
	defer cancel()

	if err := client.ResetSession(ctx, sessionID); err != nil {
		log.Fatalf("Failed to reset the session: %v", err)
	}
	fmt.Printf("Session %s cleared.\n", sessionID)
}
