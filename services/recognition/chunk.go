// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package recognition

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// modelChunkSize bounds the text handed to the NER model per call,
	// measured in runes to match the splitter's length function.
	modelChunkSize = 2000

	// modelChunkOverlap keeps entities that straddle a chunk boundary
	// intact in at least one chunk. Duplicates from the overlap collapse
	// in the adapter's containment dedup.
	modelChunkOverlap = 200
)

// chunk is a piece of the input with its rune offset in the original text.
type chunk struct {
	text  string
	start int
}

// splitForModel breaks long text into overlapping chunks sized for model
// inference and maps each chunk back to its rune offset. Short inputs pass
// through as a single chunk at offset zero.
func splitForModel(text string, size, overlap int) ([]chunk, error) {
	if utf8.RuneCountInString(text) <= size {
		return []chunk{{text: text}}, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	chunks := make([]chunk, 0, len(parts))
	searchFrom := 0
	for _, part := range parts {
		idx := strings.Index(text[searchFrom:], part)
		if idx < 0 {
			// The splitter only ever emits substrings; failing to find one
			// means offsets cannot be trusted, so detection must not proceed.
			return nil, fmt.Errorf("could not align chunk with source text")
		}
		byteStart := searchFrom + idx
		chunks = append(chunks, chunk{
			text:  part,
			start: utf8.RuneCountInString(text[:byteStart]),
		})
		searchFrom = byteStart + 1
	}
	return chunks, nil
}
