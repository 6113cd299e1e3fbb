// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
This file bridges the build system and the runtime rules engine. It uses the
Go embed package to bake rules_default.yaml directly into the compiled
binary, so a deployment with no rules file on disk still detects entities.
*/

package recognition

import (
	_ "embed"
)

// DefaultRules holds the raw byte content of rules_default.yaml.
//
// Populated at compile time via the Go embed directive. The embedded set is
// the fallback whenever RULES_PATH is unset; an external file replaces it
// entirely rather than merging.
//
//go:embed rules_default.yaml
var DefaultRules []byte
