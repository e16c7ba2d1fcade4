// Package client is the SDK for the railguard daemon HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBody bounds a daemon response.
const maxResponseBody = 4 << 20

// Client talks to railguard-d.
type Client struct {
	endpoint    string
	http        *http.Client
	backoff     BackoffStrategy
	maxAttempts int
}

// NewClient creates a daemon client.
// endpoint defaults to "http://127.0.0.1:8790" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8790"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
		backoff:     DefaultBackoff(),
		maxAttempts: 3,
	}
}

// Generate submits an assessment and returns the guardrail artifact.
// Transient failures (network errors, 5xx) are retried with backoff;
// client errors are returned immediately.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if len(req.Assessment) == 0 {
		return GenerateResult{}, fmt.Errorf("invalid request: missing assessment")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff.Next(attempt - 1)):
			case <-ctx.Done():
				return GenerateResult{}, ctx.Err()
			}
		}

		result, retry, err := c.tryGenerate(ctx, body)
		if err == nil {
			return result, nil
		}
		if !retry {
			return GenerateResult{}, err
		}
		lastErr = err
	}
	return GenerateResult{}, fmt.Errorf("daemon unreachable after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) tryGenerate(ctx context.Context, body []byte) (GenerateResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/guardrails", bytes.NewReader(body))
	if err != nil {
		return GenerateResult{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return GenerateResult{}, true, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return GenerateResult{}, true, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return GenerateResult{}, true, fmt.Errorf("upstream error: status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return GenerateResult{}, false, fmt.Errorf("unusable assessment: %s", errorDetails(raw))
	case resp.StatusCode != http.StatusOK:
		return GenerateResult{}, false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, errorDetails(raw))
	}

	var result GenerateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return GenerateResult{}, false, fmt.Errorf("failed to parse artifact: %w", err)
	}
	result.Raw = raw
	return result, false, nil
}

// Ping checks daemon health.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	var status Status
	if err := c.getJSON(ctx, "/v1/health", &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// Runs fetches recent run trace events.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []RunEvent
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/runs?limit=%d", limit), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// RunEvents fetches the full trace of one run.
func (c *Client) RunEvents(ctx context.Context, runID string) ([]RunEvent, error) {
	if runID == "" {
		return nil, fmt.Errorf("missing run id")
	}
	var events []RunEvent
	if err := c.getJSON(ctx, "/v1/runs/"+runID, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out)
}

func errorDetails(raw []byte) string {
	var e struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		if e.Details != "" {
			return e.Error + ": " + e.Details
		}
		return e.Error
	}
	return string(raw)
}
