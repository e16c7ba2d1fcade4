package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/railguard-ai/railguard/pkg/assessment"
	"github.com/railguard-ai/railguard/pkg/contextgraph"
	"github.com/railguard-ai/railguard/pkg/policy"
	"github.com/railguard-ai/railguard/pkg/risk"
	"github.com/railguard-ai/railguard/pkg/specialist"
	"github.com/railguard-ai/railguard/pkg/trace"
	"github.com/railguard-ai/railguard/pkg/validation"
)

// Version is stamped into artifact metadata.
const Version = "1.0.0"

// Tracer receives run trace events. Appends are best effort; a tracer
// error is logged and ignored.
type Tracer interface {
	Append(e trace.Event) error
}

// Engine runs the guardrail synthesis pipeline.
type Engine struct {
	registry    *specialist.Registry
	reasoner    Reasoner
	tracer      Tracer
	logger      *slog.Logger
	taskTimeout time.Duration
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithReasoner wires the reasoning-service client. Without one, all
// three stances degrade.
func WithReasoner(r Reasoner) Option {
	return func(e *Engine) { e.reasoner = r }
}

// WithTracer wires the run trace store.
func WithTracer(t Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTaskTimeout sets the per-proposal-task deadline.
func WithTaskTimeout(d time.Duration) Option {
	return func(e *Engine) { e.taskTimeout = d }
}

// New creates an engine with the given specialist registry.
func New(reg *specialist.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:    reg,
		logger:      slog.Default(),
		taskTimeout: defaultTaskTimeout,
		now:         time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Generate runs the full pipeline for one assessment payload. It fails
// only when the assessment is unusable; every other condition degrades
// and still yields a structurally valid artifact.
func (e *Engine) Generate(ctx context.Context, rawAssessment []byte, pol policy.OrgPolicies) (*Config, error) {
	runID := uuid.NewString()
	started := e.now()
	e.trace(runID, trace.EventRunStarted, nil)

	// CONTEXT_ANALYSIS
	e.enterPhase(runID, PhaseContextAnalysis)
	a, err := assessment.Normalize(rawAssessment)
	if err != nil {
		e.trace(runID, trace.EventRunFailed, map[string]any{"error": err.Error()})
		runsTotal.WithLabelValues(string(PhaseFailed)).Inc()
		return nil, fmt.Errorf("context analysis: %w", err)
	}
	graph := contextgraph.Build(a)
	profile := risk.BuildProfile(a)
	mapping := risk.BuildRegulatoryMapping(a)
	temporal := risk.AnalyzeTemporal(a)
	ec := specialist.Enrich(a, graph, profile, mapping, temporal, pol)
	e.logger.Info("context analysis complete",
		"run", runID,
		"overall_risk", profile.Overall,
		"eu_classification", mapping.EUClassification,
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges))

	// PROPOSAL_GATHERING
	e.enterPhase(runID, PhaseProposalGathering)
	proposals := GatherProposals(ctx, e.registry, e.reasoner, ec, e.taskTimeout, e.logger)
	for _, p := range proposals {
		if p.Confidence == 0 && len(p.Guardrails) == 0 {
			e.trace(runID, trace.EventSourceDegraded, map[string]any{"source": p.Source, "concerns": p.Concerns})
		}
	}

	// CONFLICT_DETECTION
	e.enterPhase(runID, PhaseConflictDetection)
	conflicts := DetectConflicts(proposals)
	for _, c := range conflicts {
		conflictsDetected.WithLabelValues(string(c.Kind)).Inc()
	}
	e.trace(runID, trace.EventConflictSummary, map[string]any{"count": len(conflicts)})

	// CONFLICT_RESOLUTION
	e.enterPhase(runID, PhaseConflictResolution)
	strategy := SelectStrategy(ec)
	resolutions := ResolveConflicts(conflicts, strategy)
	e.logger.Info("conflicts resolved", "run", runID, "strategy", strategy, "conflicts", len(conflicts))

	// SYNTHESIS
	e.enterPhase(runID, PhaseSynthesis)
	synthesized := Synthesize(ec, proposals, resolutions)

	// VALIDATION
	e.enterPhase(runID, PhaseValidation)
	report := validation.Validate(a, synthesized.All())
	e.trace(runID, trace.EventValidation, map[string]any{"score": report.Score, "issues": len(report.Issues)})

	// CONFIG_BUILD
	e.enterPhase(runID, PhaseConfigBuild)
	score := ScoreConfidence(proposals)
	cfg := &Config{
		RunID:                runID,
		ImplementationConfig: BuildImplementationConfig(ec, synthesized),
		ReasoningTrace:       buildTrace(proposals, resolutions, a),
		ConfidenceScore:      score,
		Validation:           report,
		Metadata: Metadata{
			GeneratedAt:       started.UTC(),
			Version:           Version,
			Sources:           sourceNames(proposals),
			ContextComplexity: ContextComplexity(ec),
		},
	}

	e.enterPhase(runID, PhaseDone)
	e.trace(runID, trace.EventRunCompleted, map[string]any{
		"rules":      len(synthesized.All()),
		"confidence": score.Overall,
		"score":      report.Score,
	})
	runsTotal.WithLabelValues(string(PhaseDone)).Inc()
	runDuration.Observe(e.now().Sub(started).Seconds())
	confidenceScore.Set(score.Overall)
	return cfg, nil
}

func buildTrace(proposals []specialist.Proposal, resolutions []Resolution, a *assessment.Assessment) ReasoningTrace {
	t := ReasoningTrace{}
	for _, p := range proposals {
		t.Contributions = append(t.Contributions, SourceContribution{
			Source:     p.Source,
			RuleCount:  len(p.Guardrails),
			Confidence: p.Confidence,
			Insights:   p.Insights,
			Concerns:   p.Concerns,
		})
	}
	for _, r := range resolutions {
		t.Resolutions = append(t.Resolutions, ResolutionRecord{
			Description: r.Conflict.Description,
			Approach:    r.Approach,
			Tradeoffs:   r.Tradeoffs,
		})
	}
	if !a.SectionPresent("ethical") {
		t.Assumptions = append(t.Assumptions, "no ethical section provided; defaults assumed")
	}
	if !a.SectionPresent("data") {
		t.Assumptions = append(t.Assumptions, "no data section provided; no data footprint assumed")
	}
	if a.Business.SystemCriticality == assessment.CriticalityOperational {
		t.Assumptions = append(t.Assumptions, "system treated as operational criticality")
	}
	return t
}

func sourceNames(proposals []specialist.Proposal) []string {
	names := make([]string, 0, len(proposals))
	for _, p := range proposals {
		names = append(names, p.Source)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) enterPhase(runID string, p Phase) {
	e.logger.Debug("phase entered", "run", runID, "phase", p)
	e.trace(runID, trace.EventPhaseEntered, map[string]any{"phase": string(p)})
}

func (e *Engine) trace(runID string, t trace.EventType, payload map[string]any) {
	if e.tracer == nil {
		return
	}
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	if err := e.tracer.Append(trace.Event{RunID: runID, Type: t, At: e.now().UTC(), Payload: raw}); err != nil {
		e.logger.Warn("trace append failed", "run", runID, "type", t, "error", err)
	}
}
