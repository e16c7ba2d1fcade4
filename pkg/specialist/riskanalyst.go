package specialist

import (
	"context"
	"fmt"

	"github.com/railguard-ai/railguard/pkg/assessment"
	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/risk"
)

// RiskAnalyst reads the risk profile and the context graph rather than
// raw assessment fields, covering risks no single-area specialist owns.
type RiskAnalyst struct{}

func (s *RiskAnalyst) Name() string { return "risk_analyst" }

func (s *RiskAnalyst) Analyze(_ context.Context, ec *Context) Proposal {
	p := Proposal{Source: s.Name(), Confidence: 78}
	a := ec.Assessment
	platforms := ec.Platforms("model-serving", "observability")

	p.Guardrails = append(p.Guardrails, s.rail(guardrail.TypeAgentBehavior, "MODEL_DRIFT_MONITORING", driftSeverity(ec.Risk.Overall),
		"Track prediction distribution shift against the training baseline.",
		fmt.Sprintf("overall risk %s", ec.Risk.Overall), platforms,
		map[string]any{"driftMetric": "PSI", "threshold": 0.2},
		[]guardrail.Monitor{{Metric: "population_stability_index", Threshold: "0.2", Frequency: "daily"}}))

	if a.MissionCritical() || a.Business.FailureImpact == assessment.ImpactCatastrophic {
		p.Guardrails = append(p.Guardrails, s.rail(guardrail.TypeAgentBehavior, "INCIDENT_RESPONSE_PLAN", guardrail.SeverityHigh,
			"Maintain a tested incident response runbook with defined escalation.",
			"high-consequence failure profile", platforms,
			map[string]any{"drillCadence": "quarterly"}, nil))
	}
	if len(ec.Requirements.Emergent) > 0 {
		p.Guardrails = append(p.Guardrails, s.rail(guardrail.TypeAgentBehavior, "CASCADING_FAILURE_PROTECTION", guardrail.SeverityHigh,
			"Isolate dependent subsystems so a single-area failure cannot cascade.",
			ec.Requirements.Emergent[0], platforms, nil, nil))
	}
	if ec.Risk.Overall == risk.LevelHigh || ec.Risk.Overall == risk.LevelCritical {
		p.Guardrails = append(p.Guardrails, s.rail(guardrail.TypeAgentBehavior, "RISK_REVIEW_CADENCE", guardrail.SeverityMedium,
			"Re-run the risk assessment on a fixed cadence while exposure stays elevated.",
			fmt.Sprintf("overall risk %s", ec.Risk.Overall), platforms,
			map[string]any{"cadence": "monthly"}, nil))
	}

	for _, req := range ec.Requirements.Implicit {
		p.Insights = append(p.Insights, req)
	}
	return p
}

func driftSeverity(overall risk.Level) guardrail.Severity {
	switch overall {
	case risk.LevelCritical:
		return guardrail.SeverityCritical
	case risk.LevelHigh:
		return guardrail.SeverityHigh
	default:
		return guardrail.SeverityMedium
	}
}

func (s *RiskAnalyst) rail(t guardrail.Type, rule string, sev guardrail.Severity, desc, rationale string, platforms []string, cfg map[string]any, mon []guardrail.Monitor) guardrail.Guardrail {
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
