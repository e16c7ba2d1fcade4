// Package api exposes the guardrail synthesis pipeline over HTTP.
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/railguard-ai/railguard/pkg/assessment"
	"github.com/railguard-ai/railguard/pkg/engine"
	"github.com/railguard-ai/railguard/pkg/policy"
	"github.com/railguard-ai/railguard/pkg/trace"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// maxRequestBody bounds an assessment payload.
const maxRequestBody = 1 << 20

// Generator is the server's view of the pipeline engine.
type Generator interface {
	Generate(ctx context.Context, rawAssessment []byte, pol policy.OrgPolicies) (*engine.Config, error)
}

// TraceReader is the server's view of the run trace store.
type TraceReader interface {
	Recent(limit int) ([]trace.Event, error)
	ByRun(runID string) ([]trace.Event, error)
}

// Server encapsulates the HTTP API.
type Server struct {
	engine Generator
	traces TraceReader
	logger *slog.Logger
	server *http.Server

	tlsCertFile string
	tlsKeyFile  string
}

// NewServer wires routes and middleware. traces may be nil; the runs
// endpoints then return 503. addr defaults to ":8790".
func NewServer(gen Generator, traces TraceReader, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: gen,
		traces: traces,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/guardrails", s.handleGenerate)
	mux.HandleFunc("/v1/runs", s.handleRuns)
	mux.HandleFunc("/v1/runs/", s.handleRunByID)

	handler := s.withLogging(withRecovery(s.logger, withSecureHeaders(mux)))

	if addr == "" {
		addr = ":8790"
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	return s
}

// SetTLS configures the server to use TLS.
func (s *Server) SetTLS(certFile, keyFile string) {
	s.tlsCertFile = certFile
	s.tlsKeyFile = keyFile
}

// Handler returns the fully wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server (blocking).
func (s *Server) Start() error {
	if s.tlsCertFile != "" && s.tlsKeyFile != "" {
		s.logger.Info("server starting", "addr", s.server.Addr, "tls", true)
		if err := s.server.ListenAndServeTLS(s.tlsCertFile, s.tlsKeyFile); err != http.ErrServerClosed {
			return err
		}
		return nil
	}
	s.logger.Info("server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("server stopping")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json_body", err.Error())
		return
	}
	if len(req.Assessment) == 0 {
		writeError(w, http.StatusBadRequest, "missing_assessment", "")
		return
	}

	cfg, err := s.engine.Generate(r.Context(), req.Assessment, req.Policies)
	if err != nil {
		if errors.Is(err, assessment.ErrUnusable) {
			writeError(w, http.StatusUnprocessableEntity, "unusable_assessment", err.Error())
			return
		}
		s.logger.Error("generation failed", "trace_id", getTraceID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_server_error", "")
		return
	}

	writeJSON(w, s.logger, http.StatusOK, cfg)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if s.traces == nil {
		writeError(w, http.StatusServiceUnavailable, "trace_store_not_configured", "")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}

	events, err := s.traces.Recent(limit)
	if err != nil {
		s.logger.Error("failed to read run events", "trace_id", getTraceID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_server_error", "")
		return
	}
	if events == nil {
		events = []trace.Event{}
	}
	writeJSON(w, s.logger, http.StatusOK, events)
}

func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if s.traces == nil {
		writeError(w, http.StatusServiceUnavailable, "trace_store_not_configured", "")
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_run_id", "")
		return
	}

	events, err := s.traces.ByRun(runID)
	if err != nil {
		s.logger.Error("failed to read run events", "trace_id", getTraceID(r.Context()), "run", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_server_error", "")
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusNotFound, "run_not_found", "")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, events)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, HealthResponse{Status: "ok", Version: engine.Version})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Details: details})
}

// withLogging injects a trace id and logs one line per request.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = generateTraceID()
		}
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)
		r = r.WithContext(ctx)

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"trace_id", traceID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func withRecovery(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "internal_server_error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withSecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func generateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func getTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
