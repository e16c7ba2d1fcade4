package client

import (
	"encoding/json"
	"time"
)

// GenerateRequest is the body of POST /v1/guardrails. Both fields pass
// through to the daemon untouched.
type GenerateRequest struct {
	Assessment json.RawMessage `json:"assessment"`
	Policies   json.RawMessage `json:"policies,omitempty"`
}

// GenerateResult carries the fields callers branch on plus the raw
// body, so the artifact can be persisted exactly as the daemon produced
// it.
type GenerateResult struct {
	RunID           string          `json:"runId"`
	ConfidenceScore confidenceScore `json:"confidenceScore"`
	Raw             json.RawMessage `json:"-"`
}

type confidenceScore struct {
	Overall float64 `json:"overall"`
}

// Status is the health response of the daemon.
type Status struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RunEvent mirrors one trace event as served by the daemon.
type RunEvent struct {
	EventID string          `json:"event_id"`
	RunID   string          `json:"run_id"`
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
