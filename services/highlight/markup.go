// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package highlight

import (
	"fmt"
	"html"
	"strings"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

// Markup renders text as HTML, wrapping each detected span in a <mark>
// tag with the entity's background color and the entity type as the
// title. Entity offsets are rune offsets; the adapter delivers them
// sorted and non-overlapping. Text outside the marks is HTML-escaped.
func Markup(text string, entities []datatypes.Entity) string {
	runes := []rune(text)

	var b strings.Builder
	prev := 0
	for _, e := range entities {
		// A span behind the cursor or outside the text cannot be sliced.
		if e.Start < prev || e.End < e.Start || e.End > len(runes) {
			continue
		}
		b.WriteString(html.EscapeString(string(runes[prev:e.Start])))
		fmt.Fprintf(&b, `<mark style="background-color: %s" title="%s">%s</mark>`,
			e.Color,
			html.EscapeString(e.Type),
			html.EscapeString(string(runes[e.Start:e.End])))
		prev = e.End
	}
	b.WriteString(html.EscapeString(string(runes[prev:])))

	return b.String()
}
