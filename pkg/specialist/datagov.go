package specialist

import (
	"context"
	"fmt"

	"github.com/railguard-ai/railguard/pkg/guardrail"
)

// sensitiveDataTypes escalate protection guardrails to critical.
var sensitiveDataTypes = []string{"Health Records", "Medical Records", "Financial Records", "Biometric Data"}

// DataGovernance proposes data-protection guardrails.
type DataGovernance struct{}

func (s *DataGovernance) Name() string { return "data_governance" }

func (s *DataGovernance) Analyze(_ context.Context, ec *Context) Proposal {
	p := Proposal{Source: s.Name(), Confidence: 88}
	a := ec.Assessment
	platforms := ec.Platforms("data-pipeline", "api-gateway")

	sensitive := false
	for _, t := range sensitiveDataTypes {
		if a.HasDataType(t) {
			sensitive = true
			break
		}
	}

	if len(a.Data.DataTypes) > 0 {
		sev := guardrail.SeverityHigh
		if sensitive {
			sev = guardrail.SeverityCritical
		}
		p.Guardrails = append(p.Guardrails,
			s.rail("DATA_ENCRYPTION", sev,
				"Encrypt declared data types at rest and in transit.",
				fmt.Sprintf("data types declared: %v", a.Data.DataTypes),
				platforms,
				map[string]any{"atRest": "AES-256", "inTransit": "TLS 1.3"}, nil),
			s.rail("DATA_ACCESS_CONTROL", sev,
				"Gate data access behind role-based authorisation.",
				"declared data footprint", platforms,
				map[string]any{"model": "RBAC", "reviewCadence": "quarterly"}, nil),
		)
	}
	if a.HasDataType("Personal Data") {
		p.Guardrails = append(p.Guardrails,
			s.rail("PII_DETECTION_MASKING", guardrail.SeverityCritical,
				"Detect and mask personal data in prompts and completions.",
				"personal data processed", platforms,
				map[string]any{"maskingStrategy": "redact"},
				[]guardrail.Monitor{{Metric: "pii_leak_detections", Threshold: "0", Frequency: "1h"}}),
			s.rail("DATA_MINIMIZATION_POLICY", guardrail.SeverityHigh,
				"Collect and retain only fields required for the declared purpose.",
				"personal data processed", platforms, nil, nil),
		)
	}
	if a.Data.RetentionPeriod != "" || a.HasDataType("Personal Data") {
		retention := a.Data.RetentionPeriod
		if retention == "" {
			retention = "12 months"
		}
		p.Guardrails = append(p.Guardrails, s.rail("DATA_RETENTION_POLICY", guardrail.SeverityHigh,
			"Delete stored records at the end of the retention period.",
			fmt.Sprintf("retention period %s", retention),
			platforms,
			map[string]any{"retentionPeriod": retention}, nil))
	}
	if a.Data.CrossBorderTransfer {
		p.Guardrails = append(p.Guardrails, s.rail("CROSS_BORDER_DATA_CONTROL", guardrail.SeverityCritical,
			"Restrict transfers to jurisdictions with an approved transfer mechanism.",
			fmt.Sprintf("cross-border transfer across %v", a.Data.Jurisdictions),
			platforms,
			map[string]any{"jurisdictions": a.Data.Jurisdictions, "residency": ec.Policies.DataResidency}, nil))
	}
	if sensitive {
		p.Insights = append(p.Insights, "sensitive record types present; protection guardrails escalated to critical")
	}
	return p
}

func (s *DataGovernance) rail(rule string, sev guardrail.Severity, desc, rationale string, platforms []string, cfg map[string]any, mon []guardrail.Monitor) guardrail.Guardrail {
	return guardrail.Guardrail{
		ID:          guardrail.SourceID(s.Name(), guardrail.TypeDataProtection, rule),
		Type:        guardrail.TypeDataProtection,
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
