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
	"os"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
)

// DefaultModelID is the token classification model pulled when the
// configured model is an id rather than a local directory.
const DefaultModelID = "KnightsAnalytics/distilbert-NER"

// modelLabels maps aggregated NER labels onto entity types. Labels absent
// from the table (ORG in particular) are discarded rather than guessed
// into a category.
var modelLabels = map[string]string{
	"PER":  "PERSON",
	"LOC":  "LOCATION",
	"MISC": "NRP",
}

// ModelRecognizer finds proper-noun entities with an ONNX token
// classification pipeline. It is optional: the service runs on rules alone
// when no model is configured, and construction fails loudly when a model
// is configured but unusable.
//
// The recognizer is safe for concurrent use and must be closed to release
// the ONNX session.
type ModelRecognizer struct {
	session   *hugot.Session
	pipeline  *pipelines.TokenClassificationPipeline
	chunkSize int
}

// NewModelRecognizer loads the model named by ref. A ref that exists on
// disk is used as a local model directory; a Hugging Face id is downloaded
// under modelDir first.
func NewModelRecognizer(ref, modelDir string) (*ModelRecognizer, error) {
	modelPath, err := resolveModelPath(ref, modelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "mirror-ner",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}

	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (session cleanup also failed: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return &ModelRecognizer{
		session:   session,
		pipeline:  pipeline,
		chunkSize: modelChunkSize,
	}, nil
}

// resolveModelPath turns a model reference into a directory hugot can
// load, downloading by id when no local path exists.
func resolveModelPath(ref, modelDir string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("no NER model configured")
	}
	if _, err := os.Stat(ref); err == nil {
		return ref, nil
	}
	if !strings.Contains(ref, "/") {
		return "", fmt.Errorf("NER model %q is neither a local path nor a model id", ref)
	}

	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory %s: %w", modelDir, err)
	}

	downloadOptions := hugot.NewDownloadOptions()
	downloadOptions.OnnxFilePath = "model.onnx"
	modelPath, err := hugot.DownloadModel(ref, modelDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model %s: %w", ref, err)
	}
	return modelPath, nil
}

// Name identifies the recognizer in wrapped detection errors.
func (m *ModelRecognizer) Name() string {
	return "ner-model"
}

// Close releases the underlying ONNX session.
func (m *ModelRecognizer) Close() error {
	return m.session.Destroy()
}

// Recognize runs the pipeline over the text, chunking long inputs and
// translating token spans back to offsets in the original text.
func (m *ModelRecognizer) Recognize(ctx context.Context, text string) ([]extensions.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	chunks, err := splitForModel(text, m.chunkSize, modelChunkOverlap)
	if err != nil {
		return nil, err
	}

	inputs := make([]string, len(chunks))
	for i, c := range chunks {
		inputs[i] = c.text
	}

	result, err := m.pipeline.RunPipeline(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to run NER pipeline: %w", err)
	}

	var findings []extensions.Finding
	for i, chunkEntities := range result.Entities {
		if i >= len(chunks) {
			break
		}
		base := chunks[i].start
		for _, entity := range chunkEntities {
			entityType, ok := modelLabels[normalizeLabel(entity.Entity)]
			if !ok {
				continue
			}
			value := strings.TrimSpace(entity.Word)
			if value == "" {
				continue
			}
			findings = append(findings, extensions.Finding{
				Type:       entityType,
				Value:      value,
				Start:      base + int(entity.Start),
				End:        base + int(entity.End),
				Confidence: float64(entity.Score),
			})
		}
	}
	return findings, nil
}

// normalizeLabel strips BIO prefixes the aggregator may leave on labels.
func normalizeLabel(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}
