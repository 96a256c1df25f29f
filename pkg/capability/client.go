// Copyright (C) 2025 sgpt-tools contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package capability talks to the remote model API: it validates
// credentials and fetches the model catalog.
//
// Both operations ride the same authenticated model-listing request.
// Transport and HTTP failures never escape this package as errors;
// they are classified into a Failure the caller can print, and the
// operation result collapses to false / an empty catalog.
package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// BaseURL is the fixed API endpoint. There is exactly one remote
	// service; it is not configurable at runtime.
	BaseURL = "https://api.siliconflow.cn"

	// modelsPath lists available models and doubles as the credential
	// validation endpoint.
	modelsPath = "/v1/models"

	// requestTimeout bounds the single attempt. No automatic retry.
	requestTimeout = 10 * time.Second
)

// =============================================================================
// FAILURE CLASSIFICATION
// =============================================================================

// FailureKind classifies why a capability request failed.
type FailureKind string

const (
	FailureInvalidKey  FailureKind = "invalid_key"  // HTTP 401
	FailureForbidden   FailureKind = "forbidden"    // HTTP 403
	FailureRateLimited FailureKind = "rate_limited" // HTTP 429
	FailureRemote      FailureKind = "remote"       // other non-2xx
	FailureUnreachable FailureKind = "unreachable"  // connection-level
	FailureTimeout     FailureKind = "timeout"      // deadline exceeded
	FailureMalformed   FailureKind = "malformed"    // unexpected body
)

// Failure describes a classified request failure. It is informational:
// callers print Diagnostic() and carry on with the degraded result.
type Failure struct {
	Kind   FailureKind
	Status int
	Err    error
}

// Diagnostic renders the human-readable explanation with remediation
// hints, one line per hint.
func (f *Failure) Diagnostic() string {
	switch f.Kind {
	case FailureInvalidKey:
		return "API key rejected (authentication failed)\n" +
			"Hint: check the key is complete, has no stray whitespace, and has not expired\n" +
			"Expected format: sk-xxxxxxxxxxxxxxxxxxxxxxxx\n" +
			"Get a key at: https://cloud.siliconflow.cn"
	case FailureForbidden:
		return "API key lacks permission (403)\nHint: check account quota and permissions"
	case FailureRateLimited:
		return "Too many requests (429 rate limited), try again shortly"
	case FailureRemote:
		return fmt.Sprintf("API request failed (HTTP %d)", f.Status)
	case FailureUnreachable:
		return "Cannot reach the SiliconFlow API server\n" +
			"Hint: check network connectivity and firewall settings\n" +
			"Troubleshoot: ping api.siliconflow.cn or open cloud.siliconflow.cn in a browser"
	case FailureTimeout:
		return "Request timed out, try again later"
	case FailureMalformed:
		return fmt.Sprintf("Unexpected response from the API server: %v", f.Err)
	default:
		return fmt.Sprintf("API request failed: %v", f.Err)
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// HTTPDoer abstracts the HTTP client for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues authenticated requests against the fixed API endpoint.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// NewClient creates a client against the production endpoint.
func NewClient() *Client {
	return &Client{
		baseURL: BaseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// NewClientWith creates a client with an injected base URL and HTTP
// client. Used by tests with httptest servers.
func NewClientWith(baseURL string, client HTTPDoer) *Client {
	return &Client{baseURL: baseURL, client: client}
}

// Validate checks that the credential is accepted by the remote
// service. Any classified failure yields false, never an error.
func (c *Client) Validate(ctx context.Context, apiKey string) (bool, *Failure) {
	_, failure := c.FetchCatalog(ctx, apiKey)
	return failure == nil, failure
}

// FetchCatalog returns the server-ordered list of model identifiers, or
// an empty list with a classified Failure. Ordering is preserved
// verbatim for the curator.
func (c *Client) FetchCatalog(ctx context.Context, apiKey string) ([]string, *Failure) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelsPath, nil)
	if err != nil {
		return nil, &Failure{Kind: FailureMalformed, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode)
	}

	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&body); err != nil {
		return nil, &Failure{Kind: FailureMalformed, Err: err}
	}

	models := make([]string, 0, len(body.Data))
	for _, m := range body.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// classifyStatus maps a non-2xx status to its failure kind.
func classifyStatus(status int) *Failure {
	f := &Failure{Status: status}
	switch status {
	case http.StatusUnauthorized:
		f.Kind = FailureInvalidKey
	case http.StatusForbidden:
		f.Kind = FailureForbidden
	case http.StatusTooManyRequests:
		f.Kind = FailureRateLimited
	default:
		f.Kind = FailureRemote
	}
	return f
}

// classifyTransport distinguishes timeouts from other connection-level
// failures.
func classifyTransport(err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: FailureTimeout, Err: err}
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return &Failure{Kind: FailureTimeout, Err: err}
	}
	return &Failure{Kind: FailureUnreachable, Err: err}
}
