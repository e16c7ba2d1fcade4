package specialist

import (
	"context"
	"fmt"

	"github.com/railguard-ai/railguard/pkg/guardrail"
)

// Thresholds for the cost specialist. Volumes are tokens per month.
const (
	highTokenVolume    = 1_000_000
	longInputTokens    = 2_000
	longOutputTokens   = 1_000
	largeBudgetUSD     = 100_000
	costSpecialistName = "cost_optimization"
	costBaseConfidence = 85.0
)

// CostOptimization proposes spend and token-budget guardrails.
type CostOptimization struct{}

func (s *CostOptimization) Name() string { return costSpecialistName }

func (s *CostOptimization) Analyze(_ context.Context, ec *Context) Proposal {
	p := Proposal{Source: s.Name(), Confidence: costBaseConfidence}
	a := ec.Assessment
	platforms := ec.Platforms("api-gateway")

	if vol := a.Technical.MonthlyTokenVolume; vol > 0 {
		sev := guardrail.SeverityHigh
		if vol > highTokenVolume {
			sev = guardrail.SeverityCritical
		}
		p.Guardrails = append(p.Guardrails, s.rail("TOKEN_BUDGET_MONITORING", sev,
			"Track token consumption against the declared monthly volume and alert on projected overrun.",
			fmt.Sprintf("declared volume %d tokens/month", vol),
			platforms,
			map[string]any{"monthlyTokenBudget": vol, "alertThresholdPct": 80},
			[]guardrail.Monitor{{Metric: "monthly_token_consumption", Threshold: fmt.Sprintf("%d", vol), Frequency: "daily"}},
		))
	}
	if a.Technical.AvgInputTokens > longInputTokens {
		p.Guardrails = append(p.Guardrails, s.rail("CONTEXT_OPTIMIZATION", guardrail.SeverityMedium,
			"Trim and deduplicate prompt context before submission.",
			fmt.Sprintf("average input of %d tokens exceeds %d", a.Technical.AvgInputTokens, longInputTokens),
			platforms,
			map[string]any{"maxInputTokens": a.Technical.AvgInputTokens},
			nil,
		))
	}
	if a.Technical.AvgOutputTokens > longOutputTokens {
		p.Guardrails = append(p.Guardrails, s.rail("OUTPUT_LENGTH_CONTROL", guardrail.SeverityMedium,
			"Cap completion length at the declared average plus headroom.",
			fmt.Sprintf("average output of %d tokens exceeds %d", a.Technical.AvgOutputTokens, longOutputTokens),
			platforms,
			map[string]any{"maxOutputTokens": a.Technical.AvgOutputTokens * 2},
			nil,
		))
	}
	budget := a.Budget.MaxBudget
	if ec.Policies.MaxMonthlySpendUSD > 0 && (budget == 0 || ec.Policies.MaxMonthlySpendUSD < budget) {
		budget = ec.Policies.MaxMonthlySpendUSD
	}
	if budget > 0 {
		p.Guardrails = append(p.Guardrails, s.rail("BUDGET_ENFORCEMENT", guardrail.SeverityCritical,
			"Hard-stop spend at the approved budget ceiling.",
			fmt.Sprintf("budget ceiling %.0f USD", budget),
			platforms,
			map[string]any{"maxMonthlySpendUSD": budget},
			[]guardrail.Monitor{{Metric: "monthly_spend_usd", Threshold: fmt.Sprintf("%.0f", budget), Frequency: "hourly"}},
		))
	}

	if a.Budget.MaxBudget > largeBudgetUSD {
		p.Concerns = append(p.Concerns, fmt.Sprintf("budget of %.0f USD exceeds %d; finance sign-off recommended", a.Budget.MaxBudget, largeBudgetUSD))
	}
	if a.Technical.MonthlyTokenVolume > highTokenVolume {
		p.Insights = append(p.Insights, "high token volume; response caching and prompt compression will dominate savings")
	}
	return p
}

func (s *CostOptimization) rail(rule string, sev guardrail.Severity, desc, rationale string, platforms []string, cfg map[string]any, mon []guardrail.Monitor) guardrail.Guardrail {
	return guardrail.Guardrail{
		ID:          guardrail.SourceID(s.Name(), guardrail.TypeCostControl, rule),
		Type:        guardrail.TypeCostControl,
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
