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

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// --- Global Command Variables ---
var (
	serverAddr string
	resetYes   bool

	rootCmd = &cobra.Command{
		Use:   "mirrorcli",
		Short: "A cli to chat against a running mirror disclosure server",
		Long: `mirrorcli connects to a mirror server and shows you, message by
				message, what personal information you are disclosing and how
				identifiable the conversation has become.`,
	}

	// --- Chat ---
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Starts an interactive chat session with live disclosure tracking",
		Run:   runChatCommand, // Defined in cmd_chat.go
	}

	// --- Sessions ---
	profileCmd = &cobra.Command{
		Use:   "profile [session_id]",
		Short: "Fetch and render the disclosure profile for a session",
		Args:  cobra.ExactArgs(1),
		Run:   runProfileCommand, // Defined in cmd_session.go
	}
	resetCmd = &cobra.Command{
		Use:   "reset [session_id]",
		Short: "Clear all recorded messages and entities for a session",
		Args:  cobra.ExactArgs(1),
		Run:   runResetCommand, // Defined in cmd_session.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the mirrorcli version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mirrorcli %s\n", version)
		},
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "",
		"Mirror server address (overrides MIRROR_SERVER; default http://localhost:12240)")

	rootCmd.AddCommand(chatCmd)

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(versionCmd)
}
