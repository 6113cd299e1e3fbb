// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command mirrorcli is the terminal client for a running mirror server.
//
// It talks to the disclosure service over its HTTP API and shows, after
// every message, what the server detected and how identifiable the
// conversation has become.
//
// # Subcommands
//
//   - chat: interactive session with a live disclosure profile pane
//   - profile: fetch and render the profile for an existing session
//   - reset: clear all recorded messages for a session
//   - version: print the client version
//
// # Environment Variables
//
//   - MIRROR_SERVER: server address when --server is not given
//     (default http://localhost:12240)
//
// # Usage
//
//	mirrorcli chat
//	mirrorcli chat --server http://mirror.internal:12240
//	mirrorcli profile 9f3c21aa-...
//	mirrorcli reset 9f3c21aa-... --yes
package main

import "log"

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
