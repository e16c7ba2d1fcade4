package specialist

import (
	"context"
	"strings"
	"testing"

	"github.com/railguard-ai/railguard/pkg/assessment"
	"github.com/railguard-ai/railguard/pkg/contextgraph"
	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/policy"
	"github.com/railguard-ai/railguard/pkg/risk"
)

func enriched(t *testing.T, a *assessment.Assessment) *Context {
	t.Helper()
	g := contextgraph.Build(a)
	profile := risk.BuildProfile(a)
	rm := risk.BuildRegulatoryMapping(a)
	ta := risk.AnalyzeTemporal(a)
	return Enrich(a, g, profile, rm, ta, policy.OrgPolicies{})
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }
func (panicky) Analyze(context.Context, *Context) Proposal {
	panic("boom")
}

func TestRegistryRunContainsPanic(t *testing.T) {
	r := NewRegistry()
	ec := enriched(t, &assessment.Assessment{})
	p := r.Run(context.Background(), panicky{}, ec)
	if p.Confidence != 0 {
		t.Errorf("degraded proposal confidence = %v, want 0", p.Confidence)
	}
	if len(p.Guardrails) != 0 {
		t.Errorf("degraded proposal must carry no guardrails")
	}
	if len(p.Concerns) != 1 || !strings.HasPrefix(p.Concerns[0], "analysis failed:") {
		t.Errorf("concerns = %v, want analysis-failed diagnostic", p.Concerns)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	all := r.All()
	if len(all) != 7 {
		t.Fatalf("default registry has %d specialists, want 7", len(all))
	}
	seen := map[string]bool{}
	for _, s := range all {
		if seen[s.Name()] {
			t.Errorf("duplicate specialist %s", s.Name())
		}
		seen[s.Name()] = true
	}
}

func findRule(gs []guardrail.Guardrail, rule string) *guardrail.Guardrail {
	for i := range gs {
		if gs[i].Rule == rule {
			return &gs[i]
		}
	}
	return nil
}

func TestCostOptimization(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{
		Technical: assessment.Technical{
			MonthlyTokenVolume: 2_000_000,
			AvgInputTokens:     3000,
			AvgOutputTokens:    1500,
		},
		Budget: assessment.Budget{MaxBudget: 150_000},
	})
	p := (&CostOptimization{}).Analyze(context.Background(), ec)

	g := findRule(p.Guardrails, "TOKEN_BUDGET_MONITORING")
	if g == nil {
		t.Fatalf("TOKEN_BUDGET_MONITORING missing")
	}
	if g.Severity != guardrail.SeverityCritical {
		t.Errorf("volume above one million must be critical, got %v", g.Severity)
	}
	if findRule(p.Guardrails, "CONTEXT_OPTIMIZATION") == nil {
		t.Errorf("CONTEXT_OPTIMIZATION missing for long inputs")
	}
	if findRule(p.Guardrails, "OUTPUT_LENGTH_CONTROL") == nil {
		t.Errorf("OUTPUT_LENGTH_CONTROL missing for long outputs")
	}
	if findRule(p.Guardrails, "BUDGET_ENFORCEMENT") == nil {
		t.Errorf("BUDGET_ENFORCEMENT missing despite a declared budget")
	}
	if len(p.Concerns) == 0 {
		t.Errorf("budget above 100k must raise a concern")
	}
}

func TestCostOptimizationModestUsage(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{
		Technical: assessment.Technical{MonthlyTokenVolume: 50_000},
	})
	p := (&CostOptimization{}).Analyze(context.Background(), ec)
	g := findRule(p.Guardrails, "TOKEN_BUDGET_MONITORING")
	if g == nil || g.Severity != guardrail.SeverityHigh {
		t.Errorf("modest volume must yield a high-severity budget monitor, got %+v", g)
	}
}

func TestCostOptimizationPolicyCap(t *testing.T) {
	a := &assessment.Assessment{Budget: assessment.Budget{MaxBudget: 50_000}}
	ec := enriched(t, a)
	ec.Policies = policy.OrgPolicies{MaxMonthlySpendUSD: 5_000}
	p := (&CostOptimization{}).Analyze(context.Background(), ec)
	g := findRule(p.Guardrails, "BUDGET_ENFORCEMENT")
	if g == nil {
		t.Fatalf("BUDGET_ENFORCEMENT missing")
	}
	if got := g.Implementation.Configuration["maxMonthlySpendUSD"]; got != 5_000.0 {
		t.Errorf("org policy cap must win over the larger declared budget, got %v", got)
	}
}

func TestPerformanceMissionCritical(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{
		Technical: assessment.Technical{LatencyRequirementMs: 50, ModelTypes: []string{"LLM"}, AvailabilityTarget: "99.99%"},
		Business:  assessment.Business{SystemCriticality: assessment.CriticalityMissionCritical},
	})
	p := (&Performance{}).Analyze(context.Background(), ec)

	g := findRule(p.Guardrails, "ULTRA_LOW_LATENCY_ENFORCEMENT")
	if g == nil || g.Severity != guardrail.SeverityCritical {
		t.Errorf("sub-100ms requirement must yield critical latency enforcement")
	}
	if len(p.Concerns) == 0 {
		t.Errorf("sub-100ms with an LLM must raise a feasibility concern")
	}
	for _, rule := range []string{"AUTOMATIC_FAILOVER", "CIRCUIT_BREAKER", "HEALTH_CHECK", "HIGH_AVAILABILITY_CONFIGURATION"} {
		if findRule(p.Guardrails, rule) == nil {
			t.Errorf("%s missing for a mission critical system", rule)
		}
	}
}

func TestDataGovernanceSensitive(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{
		Data: assessment.Data{
			DataTypes:           []string{"Personal Data", "Health Records"},
			CrossBorderTransfer: true,
			Jurisdictions:       []string{"European Union", "United States"},
		},
	})
	p := (&DataGovernance{}).Analyze(context.Background(), ec)

	g := findRule(p.Guardrails, "DATA_ENCRYPTION")
	if g == nil || g.Severity != guardrail.SeverityCritical {
		t.Errorf("sensitive records must force critical encryption, got %+v", g)
	}
	for _, rule := range []string{"PII_DETECTION_MASKING", "DATA_MINIMIZATION_POLICY", "DATA_RETENTION_POLICY", "CROSS_BORDER_DATA_CONTROL"} {
		if findRule(p.Guardrails, rule) == nil {
			t.Errorf("%s missing", rule)
		}
	}
}

func TestSecurityGenerative(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{
		Technical: assessment.Technical{ModelTypes: []string{"Generative AI"}},
		Business:  assessment.Business{UserCategories: []string{"General Public"}},
	})
	p := (&Security{}).Analyze(context.Background(), ec)
	for _, rule := range []string{"PROMPT_INJECTION_DEFENSE", "JAILBREAK_PREVENTION", "HALLUCINATION_DETECTION", "ADVERSARIAL_INPUT_DETECTION", "OUTPUT_VALIDATION"} {
		if findRule(p.Guardrails, rule) == nil {
			t.Errorf("%s missing", rule)
		}
	}
}

func TestSecurityNonGenerative(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{})
	p := (&Security{}).Analyze(context.Background(), ec)
	if findRule(p.Guardrails, "PROMPT_INJECTION_DEFENSE") != nil {
		t.Errorf("injection defense only applies to generative models")
	}
	if findRule(p.Guardrails, "OUTPUT_VALIDATION") == nil {
		t.Errorf("OUTPUT_VALIDATION applies unconditionally")
	}
}

func TestComplianceEUHighRisk(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{
		Business: assessment.Business{UserCategories: []string{"Healthcare Providers"}},
		Data: assessment.Data{
			DataTypes:     []string{"Personal Data"},
			Jurisdictions: []string{"European Union"},
		},
	})
	p := (&Compliance{}).Analyze(context.Background(), ec)
	for _, rule := range []string{"GDPR_COMPLIANCE", "EU_AI_ACT_CONFORMITY", "AUDIT_TRAIL_LOGGING"} {
		g := findRule(p.Guardrails, rule)
		if g == nil {
			t.Errorf("%s missing", rule)
			continue
		}
		if rule != "AUDIT_TRAIL_LOGGING" && g.Severity != guardrail.SeverityCritical {
			t.Errorf("%s severity = %v, want critical", rule, g.Severity)
		}
	}
}

func TestComplianceMandatoryOrgRules(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{})
	ec.Policies = policy.OrgPolicies{MandatoryRules: []string{"DATA_ENCRYPTION"}}
	p := (&Compliance{}).Analyze(context.Background(), ec)
	if findRule(p.Guardrails, "DATA_ENCRYPTION") == nil {
		t.Errorf("mandatory org rules must be emitted")
	}
}

func TestEthics(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{
		Business: assessment.Business{UserCategories: []string{"General Public", "Minors"}},
		Ethical:  assessment.Ethical{BiasTesting: "None", FullyAutomated: true},
	})
	p := (&Ethics{}).Analyze(context.Background(), ec)

	g := findRule(p.Guardrails, "BIAS_DETECTION_TESTING")
	if g == nil || g.Severity != guardrail.SeverityCritical {
		t.Errorf("no bias testing on a public system must be critical, got %+v", g)
	}
	oversight := findRule(p.Guardrails, "HUMAN_OVERSIGHT_REQUIRED")
	if oversight == nil || oversight.Type != guardrail.TypeHumanOversight {
		t.Errorf("HUMAN_OVERSIGHT_REQUIRED missing or mistyped: %+v", oversight)
	}
	cf := findRule(p.Guardrails, "CONTENT_FILTERING")
	if cf == nil || cf.Type != guardrail.TypeContentSafety || cf.Severity != guardrail.SeverityCritical {
		t.Errorf("minors require critical content filtering, got %+v", cf)
	}
	if findRule(p.Guardrails, "EXPLAINABILITY_REQUIREMENT") == nil {
		t.Errorf("fully automated systems require explainability")
	}
}

func TestRiskAnalyst(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{
		Technical: assessment.Technical{Complexity: 9},
		Business: assessment.Business{
			SystemCriticality: assessment.CriticalityMissionCritical,
			UserCategories:    []string{"General Public"},
			FailureImpact:     assessment.ImpactCatastrophic,
		},
		Ethical: assessment.Ethical{BiasTesting: "None"},
	})
	p := (&RiskAnalyst{}).Analyze(context.Background(), ec)

	drift := findRule(p.Guardrails, "MODEL_DRIFT_MONITORING")
	if drift == nil {
		t.Fatalf("MODEL_DRIFT_MONITORING missing")
	}
	if drift.Severity != guardrail.SeverityCritical {
		t.Errorf("drift severity = %v, want critical at overall %v", drift.Severity, ec.Risk.Overall)
	}
	if findRule(p.Guardrails, "INCIDENT_RESPONSE_PLAN") == nil {
		t.Errorf("INCIDENT_RESPONSE_PLAN missing for catastrophic impact")
	}
	// Complexity, criticality and missing bias testing each raise risk, so
	// the cascading-failure requirement fires.
	if findRule(p.Guardrails, "CASCADING_FAILURE_PROTECTION") == nil {
		t.Errorf("CASCADING_FAILURE_PROTECTION missing, emergent requirements: %v", ec.Requirements.Emergent)
	}
}

func TestEnrichRequirements(t *testing.T) {
	a := &assessment.Assessment{
		Technical: assessment.Technical{Complexity: 9, LatencyRequirementMs: 200},
		Business: assessment.Business{
			SystemCriticality: assessment.CriticalityMissionCritical,
			UserCategories:    []string{"General Public"},
		},
		Ethical: assessment.Ethical{OversightLevel: "high", BiasTesting: "None"},
		Data:    assessment.Data{DataTypes: []string{"Personal Data"}, Jurisdictions: []string{"European Union"}},
	}
	ec := enriched(t, a)

	if len(ec.Requirements.Explicit) == 0 {
		t.Errorf("expected explicit requirements")
	}
	if len(ec.Requirements.Implicit) == 0 {
		t.Errorf("high-weight risk edges must yield implicit requirements")
	}
	if len(ec.Requirements.Emergent) == 0 {
		t.Errorf("multiple risk-raising areas must yield the cascading-failure requirement")
	}
}

func TestPlatformsOverride(t *testing.T) {
	ec := enriched(t, &assessment.Assessment{})
	if got := ec.Platforms("fallback"); len(got) != 1 || got[0] != "fallback" {
		t.Errorf("Platforms without policy = %v", got)
	}
	ec.Policies = policy.OrgPolicies{ApprovedPlatforms: []string{"edge"}}
	if got := ec.Platforms("fallback"); len(got) != 1 || got[0] != "edge" {
		t.Errorf("Platforms with policy = %v", got)
	}
}
