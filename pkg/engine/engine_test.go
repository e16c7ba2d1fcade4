package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/railguard-ai/railguard/pkg/assessment"
	"github.com/railguard-ai/railguard/pkg/contextgraph"
	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/policy"
	"github.com/railguard-ai/railguard/pkg/reasoning"
	"github.com/railguard-ai/railguard/pkg/risk"
	"github.com/railguard-ai/railguard/pkg/specialist"
)

func enrich(a *assessment.Assessment) *specialist.Context {
	return specialist.Enrich(a, contextgraph.Build(a), risk.BuildProfile(a), risk.BuildRegulatoryMapping(a), risk.AnalyzeTemporal(a), policy.OrgPolicies{})
}

func rail(source string, t guardrail.Type, rule string, sev guardrail.Severity, cfg map[string]any) guardrail.Guardrail {
	return guardrail.Guardrail{
		ID:       guardrail.SourceID(source, t, rule),
		Type:     t,
		Severity: sev,
		Rule:     rule,
		Implementation: guardrail.Implementation{
			Platforms:     []string{"api-gateway"},
			Configuration: cfg,
		},
	}
}

func proposal(source string, gs ...guardrail.Guardrail) specialist.Proposal {
	return specialist.Proposal{Source: source, Guardrails: gs, Confidence: 80}
}

type stubSpecialist struct {
	name string
	p    specialist.Proposal
}

func (s stubSpecialist) Name() string { return s.name }
func (s stubSpecialist) Analyze(context.Context, *specialist.Context) specialist.Proposal {
	return s.p
}

type stubReasoner struct {
	err error
	p   specialist.Proposal
}

func (r stubReasoner) Propose(_ context.Context, _ *specialist.Context, stance reasoning.Stance) (specialist.Proposal, error) {
	if r.err != nil {
		return specialist.Proposal{}, r.err
	}
	p := r.p
	p.Source = reasoning.SourceName(stance)
	return p, nil
}

func TestDetectParameterMismatchNumeric(t *testing.T) {
	a := rail("s1", guardrail.TypeCostControl, "RATE_CAP", guardrail.SeverityHigh, map[string]any{"requestsPerMinute": 100.0})
	b := rail("s2", guardrail.TypeCostControl, "RATE_CAP", guardrail.SeverityHigh, map[string]any{"requestsPerMinute": 400.0})
	conflicts := DetectConflicts([]specialist.Proposal{proposal("s1", a), proposal("s2", b)})
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(conflicts))
	}
	if conflicts[0].Kind != KindParameterMismatch {
		t.Errorf("kind = %v, want parameter_mismatch", conflicts[0].Kind)
	}
}

func TestDetectNumericWithinTolerance(t *testing.T) {
	// 100 vs 140 is a 40% gap, below the 50% divergence threshold.
	a := rail("s1", guardrail.TypeCostControl, "RATE_CAP", guardrail.SeverityHigh, map[string]any{"requestsPerMinute": 100.0})
	b := rail("s2", guardrail.TypeCostControl, "RATE_CAP", guardrail.SeverityHigh, map[string]any{"requestsPerMinute": 140.0})
	conflicts := DetectConflicts([]specialist.Proposal{proposal("s1", a), proposal("s2", b)})
	if len(conflicts) != 0 {
		t.Errorf("conflicts = %d, want 0 within tolerance", len(conflicts))
	}
}

func TestDetectCrossTypeTension(t *testing.T) {
	a := rail("s1", guardrail.TypePerformance, "THROUGHPUT_FLOOR", guardrail.SeverityCritical, nil)
	b := rail("s2", guardrail.TypeCostControl, "SPEND_CEILING", guardrail.SeverityCritical, nil)
	conflicts := DetectConflicts([]specialist.Proposal{proposal("s1", a), proposal("s2", b)})
	if len(conflicts) != 1 || conflicts[0].Kind != KindEfficiencyConflict {
		t.Fatalf("conflicts = %+v, want one efficiency_conflict", conflicts)
	}

	// The same pair below critical severity is not a conflict.
	b.Severity = guardrail.SeverityHigh
	conflicts = DetectConflicts([]specialist.Proposal{proposal("s1", a), proposal("s2", b)})
	if len(conflicts) != 0 {
		t.Errorf("non-critical tension pair must not conflict")
	}
}

func TestDetectSameSourceNoConflict(t *testing.T) {
	a := rail("s1", guardrail.TypeCostControl, "RATE_CAP", guardrail.SeverityHigh, map[string]any{"requestsPerMinute": 100.0})
	b := rail("s1", guardrail.TypeCostControl, "RATE_CAP2", guardrail.SeverityHigh, map[string]any{"requestsPerMinute": 400.0})
	conflicts := DetectConflicts([]specialist.Proposal{proposal("s1", a, b)})
	if len(conflicts) != 0 {
		t.Errorf("guardrails within one proposal must not conflict with each other")
	}
}

func TestConflictSeverityPolicy(t *testing.T) {
	cases := []struct {
		count            int
		tradeoff         bool
		touchesProtected bool
		want             guardrail.Severity
	}{
		{0, false, false, guardrail.SeverityLow},
		{1, false, false, guardrail.SeverityLow},
		{2, false, false, guardrail.SeverityMedium},
		{4, false, false, guardrail.SeverityHigh},
		{1, true, false, guardrail.SeverityHigh},
		{1, false, true, guardrail.SeverityCritical},
	}
	for _, c := range cases {
		if got := ConflictSeverity(c.count, c.tradeoff, c.touchesProtected); got != c.want {
			t.Errorf("ConflictSeverity(%d, %v, %v) = %v, want %v", c.count, c.tradeoff, c.touchesProtected, got, c.want)
		}
	}
}

func TestResolutionInvariants(t *testing.T) {
	pairs := []specialist.Proposal{
		proposal("s1",
			rail("s1", guardrail.TypeHumanOversight, "OVERSIGHT", guardrail.SeverityCritical, map[string]any{"oversightLevel": "high"}),
			rail("s1", guardrail.TypeCostControl, "RATE_CAP", guardrail.SeverityHigh, map[string]any{"requestsPerMinute": 100.0})),
		proposal("s2",
			rail("s2", guardrail.TypeHumanOversight, "OVERSIGHT", guardrail.SeverityHigh, map[string]any{"oversightLevel": "active-monitoring"}),
			rail("s2", guardrail.TypeCostControl, "RATE_CAP", guardrail.SeverityMedium, map[string]any{"requestsPerMinute": 400.0})),
	}
	conflicts := DetectConflicts(pairs)
	if len(conflicts) == 0 {
		t.Fatalf("expected conflicts")
	}
	for _, strategy := range []Strategy{StrategyConservative, StrategyCompliance, StrategyBalanced} {
		resolutions := ResolveConflicts(conflicts, strategy)
		if len(resolutions) != len(conflicts) {
			t.Fatalf("%s: resolutions = %d, conflicts = %d", strategy, len(resolutions), len(conflicts))
		}
		for _, r := range resolutions {
			if len(r.Resolved) == 0 {
				t.Errorf("%s: empty resolution for %s", strategy, r.Conflict.Description)
			}
			floor := guardrail.MaxSeverity(r.Conflict.A.Severity, r.Conflict.B.Severity)
			for _, g := range r.Resolved {
				if g.Severity.Rank() < floor.Rank() {
					t.Errorf("%s: resolved severity %v below pair floor %v", strategy, g.Severity, floor)
				}
				if g.Rationale == "" {
					t.Errorf("%s: resolved guardrail must record its method", strategy)
				}
			}
		}
	}
}

func TestPriorityMonotonicity(t *testing.T) {
	compliance := rail("s1", guardrail.TypeCompliance, "AUDIT_CADENCE", guardrail.SeverityHigh, map[string]any{"intervalDays": 30.0})
	performance := rail("s2", guardrail.TypePerformance, "AUDIT_CADENCE", guardrail.SeverityCritical, map[string]any{"intervalDays": 90.0})
	conflict := Conflict{A: performance, B: compliance, Kind: KindGeneralConflict, Description: "test"}

	for _, strategy := range []Strategy{StrategyBalanced, StrategyCompliance} {
		rs := ResolveConflicts([]Conflict{conflict}, strategy)
		g := rs[0].Resolved[0]
		if g.Type != guardrail.TypeCompliance {
			t.Errorf("%s: resolved type = %v, compliance must survive", strategy, g.Type)
		}
		if g.Severity != guardrail.SeverityCritical {
			t.Errorf("%s: severity floor not applied, got %v", strategy, g.Severity)
		}
	}
}

func TestBalancedMergeEqualPriority(t *testing.T) {
	// content_safety and data_protection share priority 9.
	a := rail("s1", guardrail.TypeDataProtection, "SCRUB", guardrail.SeverityHigh, map[string]any{"batchSize": 10.0})
	b := rail("s2", guardrail.TypeDataProtection, "SCRUB", guardrail.SeverityCritical, map[string]any{"batchSize": 100.0})
	conflict := Conflict{A: a, B: b, Kind: KindParameterMismatch}
	rs := ResolveConflicts([]Conflict{conflict}, StrategyBalanced)
	g := rs[0].Resolved[0]
	if g.Severity != guardrail.SeverityCritical {
		t.Errorf("merged severity = %v, want critical", g.Severity)
	}
	if got := g.Implementation.Configuration["batchSize"]; got != 100.0 {
		t.Errorf("merged batchSize = %v, want larger value 100", got)
	}
}

func TestResolutionDeterministic(t *testing.T) {
	a := rail("s1", guardrail.TypeSecurity, "X", guardrail.SeverityHigh, map[string]any{"n": 1.0})
	b := rail("s2", guardrail.TypeSecurity, "Y", guardrail.SeverityHigh, map[string]any{"n": 10.0})
	c := Conflict{A: a, B: b, Kind: KindParameterMismatch}
	first := ResolveConflicts([]Conflict{c}, StrategyConservative)[0].Resolved[0]
	second := ResolveConflicts([]Conflict{c}, StrategyConservative)[0].Resolved[0]
	if first.ID != second.ID {
		t.Errorf("identical inputs must resolve to identical ids: %s vs %s", first.ID, second.ID)
	}
}

func TestSynthesizeTiers(t *testing.T) {
	ec := enrich(&assessment.Assessment{})
	proposals := []specialist.Proposal{
		proposal("alpha",
			rail("alpha", guardrail.TypeSecurity, "OUTPUT_VALIDATION", guardrail.SeverityCritical, nil),
			rail("alpha", guardrail.TypeDataProtection, "DATA_ENCRYPTION", guardrail.SeverityHigh, nil)),
		proposal("beta",
			rail("beta", guardrail.TypeDataProtection, "DATA_ENCRYPTION", guardrail.SeverityHigh, nil)),
	}
	s := Synthesize(ec, proposals, nil)

	if len(s.Critical) != 1 || s.Critical[0].Rule != "OUTPUT_VALIDATION" {
		t.Errorf("critical tier = %+v", s.Critical)
	}
	if len(s.Consensus) != 1 || s.Consensus[0].Rule != "DATA_ENCRYPTION" {
		t.Errorf("consensus tier = %+v", s.Consensus)
	}
}

// Three independent sources proposing the same rule with different
// descriptions must collapse to one consensus instance.
func TestConsensusThreeSources(t *testing.T) {
	ec := enrich(&assessment.Assessment{})
	mk := func(src, desc string) specialist.Proposal {
		g := rail(src, guardrail.TypeDataProtection, "DATA_ENCRYPTION", guardrail.SeverityHigh, nil)
		g.Description = desc
		return proposal(src, g)
	}
	s := Synthesize(ec, []specialist.Proposal{mk("gamma", "one"), mk("alpha", "two"), mk("beta", "three")}, nil)

	if len(s.Consensus) != 1 {
		t.Fatalf("consensus tier = %d entries, want 1", len(s.Consensus))
	}
	if s.Consensus[0].Description != "two" {
		t.Errorf("representative must come from the lexicographically smallest source, got %q", s.Consensus[0].Description)
	}
	count := 0
	for _, g := range s.All() {
		if g.Rule == "DATA_ENCRYPTION" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("final set has %d DATA_ENCRYPTION entries, want 1", count)
	}
}

func TestConsensusSingleSourceExcluded(t *testing.T) {
	ec := enrich(&assessment.Assessment{})
	s := Synthesize(ec, []specialist.Proposal{
		proposal("alpha", rail("alpha", guardrail.TypeSecurity, "ONLY_ONE", guardrail.SeverityHigh, nil)),
		proposal("beta"),
	}, nil)
	if len(s.Consensus) != 0 {
		t.Errorf("single-source rule must not reach consensus: %+v", s.Consensus)
	}
}

func TestContextualGuardrails(t *testing.T) {
	ec := enrich(&assessment.Assessment{
		Business: assessment.Business{
			UserCategories: []string{"Healthcare Providers", "General Public"},
			FailureImpact:  assessment.ImpactCatastrophic,
		},
		Data:    assessment.Data{DataTypes: []string{"Personal Data"}, Jurisdictions: []string{"European Union"}},
		Roadmap: assessment.Roadmap{ProjectStage: assessment.StageDiscovery},
	})
	gs := ContextualGuardrails(ec)

	rules := map[string]bool{}
	for _, g := range gs {
		rules[g.Rule] = true
	}
	for _, want := range []string{"ENHANCED_MONITORING", "HIGH_RISK_COMPLIANCE_REVIEW", "EARLY_PHASE_OVERSIGHT", "STAGED_ROLLOUT"} {
		if !rules[want] {
			t.Errorf("missing contextual rule %s (got %v)", want, rules)
		}
	}
}

func TestScoreConfidence(t *testing.T) {
	proposals := []specialist.Proposal{
		{Source: "a", Confidence: 80},
		{Source: "b", Confidence: 60},
		{Source: "reasoning:conservative_safety", Confidence: 90},
		{Source: "reasoning:balanced_practical", Confidence: 0},
	}
	s := ScoreConfidence(proposals)
	if !approx(s.SpecialistMean, 0.7) {
		t.Errorf("specialist mean = %v, want 0.7", s.SpecialistMean)
	}
	if !approx(s.ReasoningMean, 0.45) {
		t.Errorf("reasoning mean = %v, want 0.45", s.ReasoningMean)
	}
	if !approx(s.Overall, 0.575) {
		t.Errorf("overall = %v, want 0.575", s.Overall)
	}
	if len(s.Uncertainties) != 1 {
		t.Errorf("uncertainties = %v, want one degraded note", s.Uncertainties)
	}
}

func TestScoreConfidenceEmpty(t *testing.T) {
	s := ScoreConfidence(nil)
	if s.Overall != 0 {
		t.Errorf("overall = %v, want 0 with no sources", s.Overall)
	}
}

func TestContextComplexity(t *testing.T) {
	low := ContextComplexity(enrich(&assessment.Assessment{Technical: assessment.Technical{Complexity: 3}}))
	if low != 1 {
		t.Errorf("low-context complexity = %v, want 1 (complexity 3/3)", low)
	}

	high := ContextComplexity(enrich(&assessment.Assessment{
		Technical: assessment.Technical{Complexity: 9, ModelTypes: []string{"Generative AI"}},
		Business: assessment.Business{
			SystemCriticality: assessment.CriticalityMissionCritical,
			UserCategories:    []string{"General Public"},
			FailureImpact:     assessment.ImpactCatastrophic,
		},
		Data: assessment.Data{
			DataTypes:     []string{"Personal Data", "Health Records", "Financial Records"},
			Jurisdictions: []string{"European Union", "United States"},
		},
		Stakeholders: assessment.Stakeholders{Groups: []string{"legal", "eng", "product", "exec"}},
	}))
	if high < 9 || high > 10 {
		t.Errorf("high-context complexity = %v, want within [9,10]", high)
	}
}

func TestBuildImplementationConfigBuckets(t *testing.T) {
	ec := enrich(&assessment.Assessment{})
	s := Synthesized{
		Critical:  []guardrail.Guardrail{rail("x", guardrail.TypeSecurity, "PROMPT_INJECTION_DEFENSE", guardrail.SeverityCritical, nil)},
		Consensus: []guardrail.Guardrail{rail("x", guardrail.TypeBiasMitigation, "BIAS_DETECTION_TESTING", guardrail.SeverityHigh, nil)},
		Resolved:  []guardrail.Guardrail{rail("x", guardrail.TypeCostControl, "BUDGET_CAP", guardrail.SeverityMedium, nil)},
		Contextual: []guardrail.Guardrail{
			rail("x", guardrail.TypeAgentBehavior, "STAGED_ROLLOUT", guardrail.SeverityMedium, nil),
			rail("x", guardrail.TypePerformance, "RESPONSE_TIME_SLA", guardrail.SeverityHigh, nil),
		},
	}
	cfg := BuildImplementationConfig(ec, s)

	if len(cfg.Rules.Critical) != 1 || cfg.Rules.Critical[0].Rule != "PROMPT_INJECTION_DEFENSE" {
		t.Errorf("critical bucket = %+v", cfg.Rules.Critical)
	}
	if len(cfg.Rules.Ethical) != 1 || cfg.Rules.Ethical[0].Rule != "BIAS_DETECTION_TESTING" {
		t.Errorf("ethical bucket = %+v", cfg.Rules.Ethical)
	}
	if len(cfg.Rules.Economic) != 1 || cfg.Rules.Economic[0].Rule != "BUDGET_CAP" {
		t.Errorf("economic bucket = %+v", cfg.Rules.Economic)
	}
	if len(cfg.Rules.Evolutionary) != 1 || cfg.Rules.Evolutionary[0].Rule != "STAGED_ROLLOUT" {
		t.Errorf("evolutionary bucket = %+v", cfg.Rules.Evolutionary)
	}
	if len(cfg.Rules.Operational) != 1 || cfg.Rules.Operational[0].Rule != "RESPONSE_TIME_SLA" {
		t.Errorf("operational bucket = %+v", cfg.Rules.Operational)
	}
}

func TestGatherProposalsIsolation(t *testing.T) {
	reg := specialist.NewRegistry()
	good := rail("good", guardrail.TypeSecurity, "OUTPUT_VALIDATION", guardrail.SeverityHigh, nil)
	reg.Register(stubSpecialist{name: "good", p: specialist.Proposal{Source: "good", Guardrails: []guardrail.Guardrail{good}, Confidence: 80}})
	reg.Register(panickySpecialist{})

	ec := enrich(&assessment.Assessment{})
	results := GatherProposals(context.Background(), reg, stubReasoner{err: fmt.Errorf("unreachable")}, ec, 0, discardLogger())

	if len(results) != 2+len(reasoning.Stances) {
		t.Fatalf("results = %d, want %d", len(results), 2+len(reasoning.Stances))
	}
	if results[0].Source != "good" || len(results[0].Guardrails) != 1 {
		t.Errorf("healthy specialist disturbed by failing siblings: %+v", results[0])
	}
	if results[1].Confidence != 0 {
		t.Errorf("panicking specialist must degrade, got %+v", results[1])
	}
	for i := 2; i < len(results); i++ {
		if results[i].Confidence != 0 || len(results[i].Guardrails) != 0 {
			t.Errorf("unreachable reasoner stance %d must degrade: %+v", i, results[i])
		}
	}
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type panickySpecialist struct{}

func (panickySpecialist) Name() string { return "panicky" }
func (panickySpecialist) Analyze(context.Context, *specialist.Context) specialist.Proposal {
	panic("boom")
}
