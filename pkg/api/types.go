package api

import (
	"encoding/json"

	"github.com/railguard-ai/railguard/pkg/policy"
)

// GenerateRequest is the body of POST /v1/guardrails. Assessment is the
// raw questionnaire payload, passed through to normalization untouched.
type GenerateRequest struct {
	Assessment json.RawMessage    `json:"assessment"`
	Policies   policy.OrgPolicies `json:"policies,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
