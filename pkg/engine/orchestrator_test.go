package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/railguard-ai/railguard/pkg/assessment"
	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/policy"
	"github.com/railguard-ai/railguard/pkg/specialist"
	"github.com/railguard-ai/railguard/pkg/trace"
)

type memTracer struct {
	mu     sync.Mutex
	events []trace.Event
}

func (m *memTracer) Append(e trace.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memTracer) byType(t trace.EventType) []trace.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []trace.Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// A mission critical system with two sources disagreeing on the human
// oversight level must resolve conservatively, keeping the stricter
// configuration.
func TestMissionCriticalOversightDisagreement(t *testing.T) {
	a := &assessment.Assessment{
		Business: assessment.Business{SystemCriticality: assessment.CriticalityMissionCritical},
	}
	ec := enrich(a)

	if got := SelectStrategy(ec); got != StrategyConservative {
		t.Fatalf("strategy = %v, want conservative_safety", got)
	}

	strict := rail("ethics", guardrail.TypeHumanOversight, "HUMAN_OVERSIGHT_REQUIRED", guardrail.SeverityCritical,
		map[string]any{"oversightLevel": "high"})
	loose := rail("performance", guardrail.TypeHumanOversight, "HUMAN_OVERSIGHT_REQUIRED", guardrail.SeverityHigh,
		map[string]any{"oversightLevel": "active-monitoring"})

	conflicts := DetectConflicts([]specialist.Proposal{proposal("ethics", strict), proposal("performance", loose)})
	if len(conflicts) != 1 || conflicts[0].Kind != KindParameterMismatch {
		t.Fatalf("conflicts = %+v, want one parameter_mismatch", conflicts)
	}

	resolutions := ResolveConflicts(conflicts, StrategyConservative)
	g := resolutions[0].Resolved[0]
	if got := g.Implementation.Configuration["oversightLevel"]; got != "high" {
		t.Errorf("resolved oversightLevel = %v, the stricter value must win", got)
	}
	if g.Severity != guardrail.SeverityCritical {
		t.Errorf("resolved severity = %v, want critical", g.Severity)
	}
}

func TestSelectStrategy(t *testing.T) {
	cases := []struct {
		name string
		a    *assessment.Assessment
		want Strategy
	}{
		{
			name: "mission critical wins over EU classification",
			a: &assessment.Assessment{
				Business: assessment.Business{
					SystemCriticality: assessment.CriticalityMissionCritical,
					UserCategories:    []string{"Healthcare Providers"},
				},
				Data: assessment.Data{Jurisdictions: []string{"European Union"}},
			},
			want: StrategyConservative,
		},
		{
			name: "EU high risk",
			a: &assessment.Assessment{
				Business: assessment.Business{UserCategories: []string{"Healthcare Providers"}},
				Data:     assessment.Data{Jurisdictions: []string{"European Union"}},
			},
			want: StrategyCompliance,
		},
		{
			name: "EU limited risk stays balanced",
			a: &assessment.Assessment{
				Technical: assessment.Technical{ModelTypes: []string{"Generative AI"}},
				Data:      assessment.Data{Jurisdictions: []string{"European Union"}},
			},
			want: StrategyBalanced,
		},
		{
			name: "default",
			a:    &assessment.Assessment{},
			want: StrategyBalanced,
		},
	}
	for _, c := range cases {
		if got := SelectStrategy(enrich(c.a)); got != c.want {
			t.Errorf("%s: strategy = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestGenerateUnusableAssessment(t *testing.T) {
	e := New(specialist.NewRegistry())
	for _, raw := range [][]byte{nil, []byte("{}"), []byte(`"just a string"`), []byte(`{"unrelated": 1}`)} {
		_, err := e.Generate(context.Background(), raw, policy.OrgPolicies{})
		if !errors.Is(err, assessment.ErrUnusable) {
			t.Errorf("Generate(%s) error = %v, want ErrUnusable", raw, err)
		}
	}
}

// With no specialists and no reasoner every source degrades, yet the run
// must still complete with a structurally valid artifact and zero
// confidence.
func TestGenerateAllSourcesDegraded(t *testing.T) {
	tracer := &memTracer{}
	e := New(specialist.NewRegistry(), WithTracer(tracer), WithLogger(discardLogger()))

	cfg, err := e.Generate(context.Background(), []byte(`{"technical":{"complexity":5}}`), policy.OrgPolicies{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if cfg.RunID == "" {
		t.Errorf("missing run id")
	}
	if cfg.ConfidenceScore.Overall != 0 {
		t.Errorf("overall confidence = %v, want 0", cfg.ConfidenceScore.Overall)
	}
	if len(cfg.ConfidenceScore.Uncertainties) == 0 {
		t.Errorf("degraded sources must be listed as uncertainties")
	}
	if len(cfg.Metadata.Sources) != 3 {
		t.Errorf("sources = %v, want the three reasoning stances", cfg.Metadata.Sources)
	}
	if len(tracer.byType(trace.EventSourceDegraded)) != 3 {
		t.Errorf("degraded trace events = %d, want 3", len(tracer.byType(trace.EventSourceDegraded)))
	}
	if n := len(tracer.byType(trace.EventRunCompleted)); n != 1 {
		t.Errorf("completed events = %d, want 1", n)
	}
}

func TestGenerateFullRun(t *testing.T) {
	tracer := &memTracer{}
	reasoner := stubReasoner{p: specialist.Proposal{
		Guardrails: []guardrail.Guardrail{rail("", guardrail.TypeSecurity, "OUTPUT_VALIDATION", guardrail.SeverityHigh, nil)},
		Confidence: 85,
	}}
	e := New(specialist.DefaultRegistry(),
		WithReasoner(reasoner),
		WithTracer(tracer),
		WithLogger(discardLogger()))

	raw := []byte(`{
		"technical": {
			"complexity": 8,
			"modelTypes": ["Generative AI"],
			"monthlyTokenVolume": 2000000,
			"latencyRequirementMs": 500,
			"availabilityTarget": "99.99%"
		},
		"business": {
			"systemCriticality": "Mission Critical",
			"userCategories": ["General Public"],
			"failureImpact": "Major"
		},
		"ethical": {"biasTesting": "None", "oversightLevel": "high"},
		"data": {
			"dataTypes": ["Personal Data"],
			"jurisdictions": ["European Union"]
		},
		"roadmap": {"projectStage": "discovery"}
	}`)

	cfg, err := e.Generate(context.Background(), raw, policy.OrgPolicies{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(cfg.Metadata.Sources) != 10 {
		t.Errorf("sources = %d, want 7 specialists + 3 stances", len(cfg.Metadata.Sources))
	}
	for i := 1; i < len(cfg.Metadata.Sources); i++ {
		if cfg.Metadata.Sources[i-1] > cfg.Metadata.Sources[i] {
			t.Errorf("sources not sorted: %v", cfg.Metadata.Sources)
		}
	}
	if cfg.Metadata.Version != Version {
		t.Errorf("version = %q", cfg.Metadata.Version)
	}
	if cfg.ConfidenceScore.Overall <= 0 {
		t.Errorf("confidence = %v, want positive with healthy sources", cfg.ConfidenceScore.Overall)
	}

	rules := cfg.ImplementationConfig.Rules
	total := len(rules.Critical) + len(rules.Operational) + len(rules.Ethical) + len(rules.Economic) + len(rules.Evolutionary)
	if total == 0 {
		t.Fatalf("no rules produced for a high-risk assessment")
	}
	seen := map[guardrail.Key]bool{}
	for _, bucket := range [][]guardrail.Guardrail{rules.Critical, rules.Operational, rules.Ethical, rules.Economic, rules.Evolutionary} {
		for _, g := range bucket {
			if g.ID == "" || g.Rule == "" {
				t.Errorf("structurally incomplete rule: %+v", g)
			}
			if seen[g.Key()] {
				t.Errorf("duplicate rule across buckets: %v", g.Key())
			}
			seen[g.Key()] = true
		}
	}

	phases := tracer.byType(trace.EventPhaseEntered)
	if len(phases) != 8 {
		t.Errorf("phase events = %d, want 8", len(phases))
	}
	if n := len(tracer.byType(trace.EventRunStarted)); n != 1 {
		t.Errorf("started events = %d, want 1", n)
	}
	if n := len(tracer.byType(trace.EventRunCompleted)); n != 1 {
		t.Errorf("completed events = %d, want 1", n)
	}
	if n := len(tracer.byType(trace.EventValidation)); n != 1 {
		t.Errorf("validation events = %d, want 1", n)
	}
	for _, ev := range tracer.events {
		if ev.RunID != cfg.RunID {
			t.Errorf("event run id %q does not match artifact %q", ev.RunID, cfg.RunID)
		}
	}

	if len(cfg.ReasoningTrace.Contributions) != 10 {
		t.Errorf("contributions = %d, want one per source", len(cfg.ReasoningTrace.Contributions))
	}
	if cfg.Validation.Score < 0 || cfg.Validation.Score > 100 {
		t.Errorf("validation score %d outside [0,100]", cfg.Validation.Score)
	}
	if cfg.Metadata.ContextComplexity < 5 {
		t.Errorf("context complexity = %v, want elevated for this assessment", cfg.Metadata.ContextComplexity)
	}
}
