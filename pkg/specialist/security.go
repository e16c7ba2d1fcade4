package specialist

import (
	"context"

	"github.com/railguard-ai/railguard/pkg/guardrail"
)

// Security proposes adversarial-robustness guardrails.
type Security struct{}

func (s *Security) Name() string { return "security" }

func (s *Security) Analyze(_ context.Context, ec *Context) Proposal {
	p := Proposal{Source: s.Name(), Confidence: 86}
	a := ec.Assessment
	platforms := ec.Platforms("api-gateway", "model-serving")
	generative := a.HasModelType("Generative AI") || a.HasModelType("LLM")

	if generative {
		p.Guardrails = append(p.Guardrails,
			s.rail("PROMPT_INJECTION_DEFENSE", guardrail.SeverityCritical,
				"Screen inputs for injection patterns before they reach the model.",
				"generative model exposed to untrusted input", platforms,
				map[string]any{"screeningMode": "block"},
				[]guardrail.Monitor{{Metric: "injection_attempts", Threshold: "10", Frequency: "1h"}}),
			s.rail("JAILBREAK_PREVENTION", guardrail.SeverityHigh,
				"Detect and refuse jailbreak attempts against system instructions.",
				"generative model in use", platforms, nil, nil),
			s.rail("HALLUCINATION_DETECTION", guardrail.SeverityHigh,
				"Flag low-grounding completions for review before delivery.",
				"generative model in use", platforms,
				map[string]any{"groundingThreshold": 0.7}, nil),
		)
	}
	if a.HasUserCategory("General Public") {
		p.Guardrails = append(p.Guardrails, s.rail("ADVERSARIAL_INPUT_DETECTION", guardrail.SeverityHigh,
			"Detect adversarial probing from anonymous traffic.",
			"public-facing deployment", platforms, nil, nil))
	}
	p.Guardrails = append(p.Guardrails, s.rail("OUTPUT_VALIDATION", guardrail.SeverityHigh,
		"Validate model output against the declared schema and content rules before use.",
		"all model output is untrusted", platforms, nil, nil))

	if generative && a.HasUserCategory("General Public") {
		p.Insights = append(p.Insights, "public generative endpoint; injection defense and output validation are the primary attack surface controls")
	}
	return p
}

func (s *Security) rail(rule string, sev guardrail.Severity, desc, rationale string, platforms []string, cfg map[string]any, mon []guardrail.Monitor) guardrail.Guardrail {
	return guardrail.Guardrail{
		ID:          guardrail.SourceID(s.Name(), guardrail.TypeSecurity, rule),
		Type:        guardrail.TypeSecurity,
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
