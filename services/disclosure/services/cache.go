// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
	"github.com/AleutianAI/AleutianMirror/services/disclosure/profile"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// explainResult carries a computed explanation through the singleflight
// group.
type explainResult struct {
	text string
	hash string
}

// ExplainCached returns the deep explanation for the given profile, serving
// the stored text when its fingerprint still matches.
//
// Coherence: every append clears the session's stored fingerprint, so a
// stale explanation can never be served as current. Concurrent calls for
// the same session and fingerprint collapse into one summarizer call. The
// summarizer runs outside all store locks, and results are stored only on
// success; a failed call leaves the previous cache state untouched.
//
// The cached return is true only when the stored text was served without
// waiting on a compute.
func (s *AnalysisService) ExplainCached(ctx context.Context, sessionID string, prof *datatypes.Profile) (text, hash string, cached bool, err error) {
	ctx, span := analysisTracer.Start(ctx, "AnalysisService.ExplainCached")
	defer span.End()

	hash = profile.Fingerprint(prof)
	span.SetAttributes(attribute.String("session.id", sessionID))

	if storedText, storedHash := s.store.CachedExplanation(sessionID); storedHash != "" && storedHash == hash {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return storedText, hash, true, nil
	}

	// Collapse concurrent computes for the same profile state.
	key := sessionID + ":" + hash
	resultI, err, _ := s.explainGroup.Do(key, func() (any, error) {
		// Double-check inside singleflight: a racing caller may have
		// stored the result while this one waited for the group.
		if storedText, storedHash := s.store.CachedExplanation(sessionID); storedHash != "" && storedHash == hash {
			return &explainResult{text: storedText, hash: hash}, nil
		}

		generated, genErr := s.deepExplain(ctx, profile.InferenceContext(prof))
		if genErr != nil {
			return nil, genErr
		}

		// The session may have been reset while generating; then the
		// result is served to this caller but not cached.
		if storeErr := s.store.StoreExplanation(sessionID, generated, hash); storeErr != nil {
			slog.Debug("Explanation not cached",
				"sessionId", sessionID,
				"error", storeErr,
			)
		}
		return &explainResult{text: generated, hash: hash}, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "explanation generation failed")
		return "", "", false, err
	}

	// Use comma-ok idiom for safer type assertion
	result, ok := resultI.(*explainResult)
	if !ok {
		err := fmt.Errorf("unexpected type from singleflight group 'explainGroup': got %T", resultI)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", "", false, err
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))
	return result.text, result.hash, false, nil
}
