package engine

import (
	"time"

	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/validation"
)

// Phase is one state of the pipeline state machine. Phases advance
// strictly forward; FAILED is reachable only from an unusable assessment
// before context analysis completes.
type Phase string

const (
	PhaseContextAnalysis    Phase = "CONTEXT_ANALYSIS"
	PhaseProposalGathering  Phase = "PROPOSAL_GATHERING"
	PhaseConflictDetection  Phase = "CONFLICT_DETECTION"
	PhaseConflictResolution Phase = "CONFLICT_RESOLUTION"
	PhaseSynthesis          Phase = "SYNTHESIS"
	PhaseValidation         Phase = "VALIDATION"
	PhaseConfigBuild        Phase = "CONFIG_BUILD"
	PhaseDone               Phase = "DONE"
	PhaseFailed             Phase = "FAILED"
)

// ConflictKind tags what two guardrails disagree about.
type ConflictKind string

const (
	KindParameterMismatch  ConflictKind = "parameter_mismatch"
	KindTradeoffConflict   ConflictKind = "tradeoff_conflict"
	KindEfficiencyConflict ConflictKind = "efficiency_conflict"
	KindGeneralConflict    ConflictKind = "general_conflict"
)

// Conflict is one detected incompatibility between two proposed
// guardrails from different sources.
type Conflict struct {
	Participants []string            `json:"participants"`
	Kind         ConflictKind        `json:"kind"`
	Description  string              `json:"description"`
	A            guardrail.Guardrail `json:"a"`
	B            guardrail.Guardrail `json:"b"`
	Severity     guardrail.Severity  `json:"severity"`
}

// Strategy is the per-run conflict resolution strategy.
type Strategy string

const (
	StrategyConservative Strategy = "conservative_safety"
	StrategyCompliance   Strategy = "compliance_focused"
	StrategyBalanced     Strategy = "balanced_practical"
)

// Resolution is the deterministic answer to one conflict. Exactly one
// resolution exists per conflict.
type Resolution struct {
	Conflict  Conflict              `json:"conflict"`
	Approach  Strategy              `json:"approach"`
	Resolved  []guardrail.Guardrail `json:"resolvedGuardrails"`
	Rationale string                `json:"rationale"`
	Tradeoffs []string              `json:"tradeoffs,omitempty"`
}

// Synthesized is the four-tier merged rule set. Tiers are disjoint on
// (type, rule): a key claimed by an earlier tier is dropped from later
// ones.
type Synthesized struct {
	Critical   []guardrail.Guardrail `json:"critical"`
	Consensus  []guardrail.Guardrail `json:"consensus"`
	Resolved   []guardrail.Guardrail `json:"resolved"`
	Contextual []guardrail.Guardrail `json:"contextual"`
}

// All returns the tiers concatenated in tier order.
func (s Synthesized) All() []guardrail.Guardrail {
	out := make([]guardrail.Guardrail, 0, len(s.Critical)+len(s.Consensus)+len(s.Resolved)+len(s.Contextual))
	out = append(out, s.Critical...)
	out = append(out, s.Consensus...)
	out = append(out, s.Resolved...)
	out = append(out, s.Contextual...)
	return out
}

// RuleSet is the deployment-facing grouping of the final rules.
type RuleSet struct {
	Critical     []guardrail.Guardrail `json:"critical"`
	Operational  []guardrail.Guardrail `json:"operational"`
	Ethical      []guardrail.Guardrail `json:"ethical"`
	Economic     []guardrail.Guardrail `json:"economic"`
	Evolutionary []guardrail.Guardrail `json:"evolutionary"`
}

// ImplementationConfig is the deployment-ready rule grouping.
type ImplementationConfig struct {
	Platform string  `json:"platform"`
	Rules    RuleSet `json:"rules"`
}

// SourceContribution summarises what one source added to the run.
type SourceContribution struct {
	Source     string   `json:"source"`
	RuleCount  int      `json:"ruleCount"`
	Confidence float64  `json:"confidence"`
	Insights   []string `json:"insights,omitempty"`
	Concerns   []string `json:"concerns,omitempty"`
}

// ResolutionRecord documents one conflict resolution for the trace.
type ResolutionRecord struct {
	Description string   `json:"description"`
	Approach    Strategy `json:"approach"`
	Tradeoffs   []string `json:"tradeoffs,omitempty"`
}

// ReasoningTrace explains how the final rule set came to be.
type ReasoningTrace struct {
	Contributions []SourceContribution `json:"contributions"`
	Resolutions   []ResolutionRecord   `json:"resolutions,omitempty"`
	Assumptions   []string             `json:"assumptions,omitempty"`
}

// ConfidenceScore aggregates per-source confidence.
type ConfidenceScore struct {
	Overall        float64  `json:"overall"` // 0..1
	SpecialistMean float64  `json:"specialistMean"`
	ReasoningMean  float64  `json:"reasoningMean"`
	Uncertainties  []string `json:"uncertainties,omitempty"`
}

// Metadata describes the run that produced an artifact.
type Metadata struct {
	GeneratedAt       time.Time `json:"generatedAt"`
	Version           string    `json:"version"`
	Sources           []string  `json:"sources"`
	ContextComplexity float64   `json:"contextComplexity"` // 0..10
}

// Config is the terminal artifact of a run. It is immutable once
// produced and is always structurally valid, even when every source
// degraded and the tiers are empty.
type Config struct {
	RunID                string               `json:"runId"`
	ImplementationConfig ImplementationConfig `json:"implementationConfig"`
	ReasoningTrace       ReasoningTrace       `json:"reasoningTrace"`
	ConfidenceScore      ConfidenceScore      `json:"confidenceScore"`
	Validation           validation.Report    `json:"validation"`
	Metadata             Metadata             `json:"metadata"`
}
