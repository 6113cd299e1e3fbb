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
	"context"
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
)

// Multi composes recognizers into one. Recognize runs each part in order
// and concatenates the findings; the Adapter's post-processing handles
// overlap between parts, so concatenation loses nothing. The first part
// to fail aborts the scan with its name in the error.
//
// Zero parts degrade to the nop recognizer. A single part is returned
// unwrapped.
func Multi(recognizers ...extensions.Recognizer) extensions.Recognizer {
	switch len(recognizers) {
	case 0:
		return &extensions.NopRecognizer{}
	case 1:
		return recognizers[0]
	}
	return &multiRecognizer{parts: recognizers}
}

type multiRecognizer struct {
	parts []extensions.Recognizer
}

func (m *multiRecognizer) Recognize(ctx context.Context, text string) ([]extensions.Finding, error) {
	var all []extensions.Finding
	for _, r := range m.parts {
		findings, err := r.Recognize(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name(), err)
		}
		all = append(all, findings...)
	}
	return all, nil
}

// Name joins the part names, e.g. "rules+ner-model".
func (m *multiRecognizer) Name() string {
	names := make([]string, len(m.parts))
	for i, r := range m.parts {
		names[i] = r.Name()
	}
	return strings.Join(names, "+")
}

var _ extensions.Recognizer = (*multiRecognizer)(nil)
