package specialist

import (
	"context"

	"github.com/railguard-ai/railguard/pkg/guardrail"
)

// Ethics proposes bias, fairness, oversight and content-safety guardrails.
type Ethics struct{}

func (s *Ethics) Name() string { return "ethics" }

func (s *Ethics) Analyze(_ context.Context, ec *Context) Proposal {
	p := Proposal{Source: s.Name(), Confidence: 80}
	a := ec.Assessment
	platforms := ec.Platforms("model-serving", "review-queue")
	public := a.HasUserCategory("General Public")

	if a.Ethical.BiasTesting == "None" || public {
		sev := guardrail.SeverityHigh
		if a.Ethical.BiasTesting == "None" && public {
			sev = guardrail.SeverityCritical
		}
		p.Guardrails = append(p.Guardrails, s.rail(guardrail.TypeBiasMitigation, "BIAS_DETECTION_TESTING", sev,
			"Run bias test suites across protected attributes before each release.",
			"no bias testing declared for an exposed system", platforms,
			map[string]any{"cadence": "per-release"}, nil))
	}
	if public {
		p.Guardrails = append(p.Guardrails, s.rail(guardrail.TypeBiasMitigation, "FAIRNESS_METRICS_MONITORING", guardrail.SeverityHigh,
			"Track outcome parity across demographic segments in production.",
			"public-facing deployment", platforms, nil,
			[]guardrail.Monitor{{Metric: "demographic_parity_gap", Threshold: "0.1", Frequency: "daily"}}))
	}
	if a.Ethical.FullyAutomated || a.Ethical.OversightLevel == "" || a.Ethical.OversightLevel == "none" {
		sev := guardrail.SeverityHigh
		if a.Ethical.FullyAutomated && public {
			sev = guardrail.SeverityCritical
		}
		level := a.Ethical.OversightLevel
		if level == "" || level == "none" {
			level = "high"
		}
		p.Guardrails = append(p.Guardrails, s.rail(guardrail.TypeHumanOversight, "HUMAN_OVERSIGHT_REQUIRED", sev,
			"Route consequential decisions through human review.",
			"automated decisions without declared oversight", platforms,
			map[string]any{"oversightLevel": level}, nil))
	}
	if a.Ethical.FullyAutomated {
		p.Guardrails = append(p.Guardrails, s.rail(guardrail.TypeEthical, "EXPLAINABILITY_REQUIREMENT", guardrail.SeverityHigh,
			"Produce a human-readable rationale for every automated decision.",
			"fully automated decision-making", platforms, nil, nil))
	}
	if a.HasUserCategory("Minors") {
		p.Guardrails = append(p.Guardrails, s.rail(guardrail.TypeContentSafety, "CONTENT_FILTERING", guardrail.SeverityCritical,
			"Filter age-inappropriate content on every response.",
			"minors among declared users", platforms,
			map[string]any{"filterLevel": "strict"},
			[]guardrail.Monitor{{Metric: "content_filter_bypasses", Threshold: "0", Frequency: "1h"}}))
	}
	if len(a.Ethical.HarmAreas) > 0 {
		p.Concerns = append(p.Concerns, "declared harm areas require a documented harm mitigation plan")
	}
	return p
}

func (s *Ethics) rail(t guardrail.Type, rule string, sev guardrail.Severity, desc, rationale string, platforms []string, cfg map[string]any, mon []guardrail.Monitor) guardrail.Guardrail {
	return guardrail.Guardrail{
		ID:          guardrail.SourceID(s.Name(), t, rule),
		Type:        t,
		Severity:    sev,
		Rule:        rule,
		Description: desc,
		Rationale:   rationale,
		Implementation: guardrail.Implementation{
			Platforms:     platforms,
			Configuration: cfg,
			Monitoring:    mon,
		},
	}
}
