// Package reasoning talks to the external reasoning service. The service
// is untrusted: its responses should be JSON but frequently are not, so
// all decoding goes through a fixed recovery ladder that never fails.
package reasoning

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/railguard-ai/railguard/pkg/specialist"
)

// Stance selects the perspective the reasoning service argues from.
type Stance string

const (
	StanceConservative Stance = "conservative_safety"
	StanceBalanced     Stance = "balanced_practical"
	StanceInnovation   Stance = "innovation_focused"
)

// Stances is the fixed set queried on every run.
var Stances = []Stance{StanceConservative, StanceBalanced, StanceInnovation}

// DefaultCacheTTL bounds how long a cached stance response stays valid.
const DefaultCacheTTL = time.Hour

// Cache stores raw stance responses keyed by request content.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Client calls the reasoning service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables content-keyed response caching.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.ttl = ttl
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(cl *Client) { cl.http = h }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a reasoning client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// stanceRequest is the wire request for one stance call.
type stanceRequest struct {
	Stance   Stance              `json:"stance"`
	Context  *specialist.Context `json:"context"`
	Policies any                 `json:"orgPolicies"`
}

// Propose queries one stance and returns its proposal. A transport error
// is returned to the caller (the aggregator substitutes a degraded
// proposal); a malformed body is not an error, the recovery ladder
// always yields a proposal.
func (c *Client) Propose(ctx context.Context, ec *specialist.Context, stance Stance) (specialist.Proposal, error) {
	source := SourceName(stance)

	body, err := json.Marshal(stanceRequest{Stance: stance, Context: ec, Policies: ec.Policies})
	if err != nil {
		return specialist.Proposal{}, fmt.Errorf("encode stance request: %w", err)
	}
	key := cacheKey(body)

	raw, cached := c.cachedResponse(ctx, key)
	if !cached {
		raw, err = c.post(ctx, body)
		if err != nil {
			return specialist.Proposal{}, err
		}
		if c.cache != nil {
			c.cache.Set(ctx, key, raw, c.ttl)
		}
	}

	resp, notes := decode(raw)
	for _, n := range notes {
		c.logger.Warn("reasoning response recovered", "stance", stance, "note", n)
	}

	p := specialist.Proposal{
		Source:     source,
		Guardrails: toGuardrails(source, resp),
		Confidence: resp.Confidence * 100,
		Concerns:   notes,
	}
	if resp.Reasoning != "" {
		p.Insights = []string{resp.Reasoning}
	}
	return p, nil
}

func (c *Client) cachedResponse(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(ctx, key)
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/reason", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build reasoning request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reasoning service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reasoning service: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read reasoning response: %w", err)
	}
	return raw, nil
}

// SourceName is the proposal source label for a stance.
func SourceName(s Stance) string {
	return "reasoning:" + string(s)
}

func cacheKey(body []byte) string {
	sum := sha256.Sum256(body)
	return "railguard:reasoning:" + hex.EncodeToString(sum[:])
}
