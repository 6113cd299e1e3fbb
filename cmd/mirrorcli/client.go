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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianMirror/services/disclosure/datatypes"
)

// Constants for default connection settings
const (
	DefaultMirrorPort = 12240
	DefaultMirrorHost = "localhost"
)

// getMirrorBaseURL returns the address of the disclosure server.
func getMirrorBaseURL() string {
	// 1. Priority: --server flag
	if serverAddr != "" {
		return strings.TrimRight(serverAddr, "/")
	}
	// 2. Environment variable (used by tests and scripted runs)
	if url := os.Getenv("MIRROR_SERVER"); url != "" {
		return strings.TrimRight(url, "/")
	}
	// 3. Default: standard host/port
	return fmt.Sprintf("http://%s:%d", DefaultMirrorHost, DefaultMirrorPort)
}

// SessionResult is the body returned when a session is created.
type SessionResult struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageResult is the analysis returned for every posted message.
// QuickInference is nil when the server has no summarizer configured or
// the session has not disclosed anything yet.
type MessageResult struct {
	Message        datatypes.Message  `json:"message"`
	Profile        *datatypes.Profile `json:"profile"`
	QuickInference *string            `json:"quick_inference"`
	SessionID      string             `json:"session_id"`
}

// ProfileResult is the body of a profile fetch.
type ProfileResult struct {
	Profile            *datatypes.Profile `json:"profile"`
	MessageCount       int                `json:"message_count"`
	InferenceAvailable bool               `json:"inference_available"`
}

// ExplainResult is the body of a deep explanation request.
type ExplainResult struct {
	Inference   string `json:"inference"`
	ProfileHash string `json:"profile_hash"`
	Cached      bool   `json:"cached"`
}

// Client is a thin HTTP client for the disclosure server's v1 API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given server base URL. The timeout
// covers the explain endpoint, which may wait on a summarizer backend.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// BaseURL returns the server address this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateSession asks the server for a fresh session.
func (c *Client) CreateSession(ctx context.Context) (*SessionResult, error) {
	var out SessionResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage posts one message and returns the server's analysis of it.
func (c *Client) SendMessage(ctx context.Context, sessionID, content string) (*MessageResult, error) {
	body := map[string]string{
		"role":    datatypes.RoleUser,
		"content": content,
	}
	var out MessageResult
	path := fmt.Sprintf("/v1/sessions/%s/messages", sessionID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile fetches the aggregate disclosure profile for a session.
func (c *Client) GetProfile(ctx context.Context, sessionID string) (*ProfileResult, error) {
	var out ProfileResult
	path := fmt.Sprintf("/v1/sessions/%s/profile", sessionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Explain requests the deep explanation for the session's profile.
func (c *Client) Explain(ctx context.Context, sessionID string) (*ExplainResult, error) {
	var out ExplainResult
	path := fmt.Sprintf("/v1/sessions/%s/explain", sessionID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetSession deletes every recorded message and entity for the session.
func (c *Client) ResetSession(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/v1/sessions/%s", sessionID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// doJSON sends one request and decodes the response into out. Non-200
// answers become errors carrying the server's client-facing message.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to create request body: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach the mirror server: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mirror server returned an error (status %d): %s",
			resp.StatusCode, serverErrorText(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to parse response from the mirror server: %w", err)
	}
	return nil
}

// serverErrorText pulls the "error" field out of an error body, falling
// back to the raw body when the server answered with something else.
func serverErrorText(body []byte) string {
	var er struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return er.Error
	}
	return strings.TrimSpace(string(body))
}
