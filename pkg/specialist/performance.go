package specialist

import (
	"context"
	"fmt"

	"github.com/railguard-ai/railguard/pkg/guardrail"
)

const (
	ultraLowLatencyMs = 100
	highRequestVolume = 10_000_000
)

// Performance proposes latency, availability and resilience guardrails.
type Performance struct{}

func (s *Performance) Name() string { return "performance" }

func (s *Performance) Analyze(_ context.Context, ec *Context) Proposal {
	p := Proposal{Source: s.Name(), Confidence: 82}
	a := ec.Assessment
	platforms := ec.Platforms("api-gateway", "model-serving")

	if lat := a.Technical.LatencyRequirementMs; lat > 0 {
		if lat < ultraLowLatencyMs {
			p.Guardrails = append(p.Guardrails, s.rail("ULTRA_LOW_LATENCY_ENFORCEMENT", guardrail.SeverityCritical,
				"Reject deployments whose p99 exceeds the sub-100ms requirement.",
				fmt.Sprintf("declared latency requirement %dms", lat),
				platforms,
				map[string]any{"p99LatencyMs": lat},
				[]guardrail.Monitor{{Metric: "p99_latency_ms", Threshold: fmt.Sprintf("%d", lat), Frequency: "1m"}},
			))
			if a.HasModelType("Generative AI") || a.HasModelType("LLM") {
				p.Concerns = append(p.Concerns, fmt.Sprintf("sub-%dms latency with a generative model is unlikely to be feasible", ultraLowLatencyMs))
			}
		} else {
			p.Guardrails = append(p.Guardrails, s.rail("RESPONSE_TIME_SLA", guardrail.SeverityHigh,
				"Enforce the declared response-time SLA with alerting on breach.",
				fmt.Sprintf("declared latency requirement %dms", lat),
				platforms,
				map[string]any{"sloLatencyMs": lat},
				[]guardrail.Monitor{{Metric: "p95_latency_ms", Threshold: fmt.Sprintf("%d", lat), Frequency: "5m"}},
			))
		}
	}
	if target := a.Technical.AvailabilityTarget; target != "" {
		sev := guardrail.SeverityHigh
		if target == "99.99%" || target == "99.999%" {
			sev = guardrail.SeverityCritical
		}
		p.Guardrails = append(p.Guardrails, s.rail("HIGH_AVAILABILITY_CONFIGURATION", sev,
			"Deploy across failure domains to meet the availability target.",
			fmt.Sprintf("availability target %s", target),
			platforms,
			map[string]any{"availabilityTarget": target, "minReplicas": 2},
			[]guardrail.Monitor{{Metric: "availability_pct", Threshold: target, Frequency: "5m"}},
		))
	}
	if a.Technical.MonthlyTokenVolume > highRequestVolume {
		p.Guardrails = append(p.Guardrails, s.rail("LOAD_BALANCING", guardrail.SeverityHigh,
			"Distribute inference traffic across replicas.",
			fmt.Sprintf("volume %d exceeds %d tokens/month", a.Technical.MonthlyTokenVolume, highRequestVolume),
			platforms, nil, nil,
		))
	}
	if a.Technical.MonthlyTokenVolume > 0 {
		p.Guardrails = append(p.Guardrails, s.rail("RATE_LIMITING", guardrail.SeverityMedium,
			"Rate-limit callers to protect shared capacity.",
			"declared traffic volume",
			platforms,
			map[string]any{"burstMultiplier": 2},
			nil,
		))
	}
	if a.MissionCritical() {
		p.Guardrails = append(p.Guardrails,
			s.rail("AUTOMATIC_FAILOVER", guardrail.SeverityCritical,
				"Fail over to a standby deployment on health-check failure.",
				"mission critical system", platforms,
				map[string]any{"failoverTimeoutSeconds": 30}, nil),
			s.rail("CIRCUIT_BREAKER", guardrail.SeverityCritical,
				"Trip the circuit on sustained downstream failure.",
				"mission critical system", platforms,
				map[string]any{"errorRateThresholdPct": 50, "windowSeconds": 60}, nil),
			s.rail("HEALTH_CHECK", guardrail.SeverityHigh,
				"Expose liveness and readiness probes on every replica.",
				"mission critical system", platforms, nil,
				[]guardrail.Monitor{{Metric: "healthcheck_failures", Threshold: "3", Frequency: "30s"}}),
		)
		p.Insights = append(p.Insights, "mission critical rating drives the resilience set: failover, circuit breaking, health checks")
	}
	return p
}

func (s *Performance) rail(rule string, sev guardrail.Severity, desc, rationale string, platforms []string, cfg map[string]any, mon []guardrail.Monitor) guardrail.Guardrail {
	return guardrail.Guardrail{
		ID:          guardrail.SourceID(s.Name(), guardrail.TypePerformance, rule),
		Type:        guardrail.TypePerformance,
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
