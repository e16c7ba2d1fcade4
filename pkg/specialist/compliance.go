package specialist

import (
	"context"
	"fmt"

	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/risk"
)

// Compliance turns the regulatory mapping into enforceable guardrails.
type Compliance struct{}

func (s *Compliance) Name() string { return "compliance" }

func (s *Compliance) Analyze(_ context.Context, ec *Context) Proposal {
	p := Proposal{Source: s.Name(), Confidence: 90}
	platforms := ec.Platforms("api-gateway", "audit-log")

	for _, reg := range ec.Regulatory.Applicable {
		switch reg {
		case "GDPR":
			p.Guardrails = append(p.Guardrails, s.rail("GDPR_COMPLIANCE", guardrail.SeverityCritical,
				"Enforce GDPR obligations: lawful basis, minimisation, erasure on request.",
				"GDPR applies to the declared data footprint", platforms,
				map[string]any{"dpiaRequired": ec.Risk.Overall == risk.LevelHigh || ec.Risk.Overall == risk.LevelCritical}, nil))
		case "HIPAA":
			p.Guardrails = append(p.Guardrails, s.rail("HIPAA_COMPLIANCE", guardrail.SeverityCritical,
				"Enforce HIPAA controls on protected health information.",
				"health records processed under US jurisdiction", platforms,
				map[string]any{"phiAccessLogging": true}, nil))
		case "SOX":
			p.Guardrails = append(p.Guardrails, s.rail("SOX_CONTROLS", guardrail.SeverityHigh,
				"Maintain auditable change control over financial data flows.",
				"financial records in scope", platforms, nil, nil))
		}
	}
	if ec.Regulatory.EUClassification == risk.EUHighRisk {
		p.Guardrails = append(p.Guardrails, s.rail("EU_AI_ACT_CONFORMITY", guardrail.SeverityCritical,
			"Complete conformity assessment and register post-market monitoring before deployment.",
			"EU AI Act high-risk classification", platforms,
			map[string]any{"conformityAssessment": true, "postMarketMonitoring": true}, nil))
	}
	if ec.Regulatory.EUClassification == risk.EUProhibited {
		p.Concerns = append(p.Concerns, "declared harm areas fall under prohibited EU AI Act practices; deployment in the EU is not permissible")
	}
	if len(ec.Regulatory.Applicable) > 0 {
		p.Guardrails = append(p.Guardrails, s.rail("AUDIT_TRAIL_LOGGING", guardrail.SeverityHigh,
			"Record every model decision with inputs, outputs and acting identity.",
			fmt.Sprintf("required by: %v", ec.Regulatory.Applicable), platforms,
			map[string]any{"retention": "7 years"},
			[]guardrail.Monitor{{Metric: "audit_log_gaps", Threshold: "0", Frequency: "1h"}}))
	}
	for _, rule := range ec.Policies.MandatoryRules {
		p.Guardrails = append(p.Guardrails, s.rail(rule, guardrail.SeverityHigh,
			"Organisation-mandated rule.",
			"required by organisation policy", platforms, nil, nil))
	}
	return p
}

func (s *Compliance) rail(rule string, sev guardrail.Severity, desc, rationale string, platforms []string, cfg map[string]any, mon []guardrail.Monitor) guardrail.Guardrail {
	return guardrail.Guardrail{
		ID:          guardrail.SourceID(s.Name(), guardrail.TypeCompliance, rule),
		Type:        guardrail.TypeCompliance,
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
