package engine

import (
	"fmt"

	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/risk"
	"github.com/railguard-ai/railguard/pkg/specialist"
)

// SelectStrategy picks the run's resolution strategy from context, once:
// conservative for mission critical systems, compliance focused under an
// EU high-risk classification, balanced otherwise.
func SelectStrategy(ec *specialist.Context) Strategy {
	if ec.Assessment.MissionCritical() {
		return StrategyConservative
	}
	if ec.Regulatory.EUClassification == risk.EUHighRisk {
		return StrategyCompliance
	}
	return StrategyBalanced
}

// ResolveConflicts produces exactly one resolution per conflict. Every
// resolved guardrail's severity is at least the higher of the pair's,
// and its rationale names the resolution method.
func ResolveConflicts(conflicts []Conflict, strategy Strategy) []Resolution {
	resolutions := make([]Resolution, 0, len(conflicts))
	for _, c := range conflicts {
		resolutions = append(resolutions, resolve(c, strategy))
	}
	return resolutions
}

func resolve(c Conflict, strategy Strategy) Resolution {
	var resolved guardrail.Guardrail
	var rationale string

	switch strategy {
	case StrategyConservative:
		winner, loser := bySeverity(c.A, c.B)
		resolved = keep(winner, loser, strategy)
		rationale = fmt.Sprintf("conservative_safety kept the higher-severity %s guardrail %s", winner.Type, winner.Rule)

	case StrategyCompliance:
		winner, loser, ok := byComplianceAffinity(c.A, c.B)
		if !ok {
			winner, loser = byPriority(c.A, c.B)
		}
		resolved = keep(winner, loser, strategy)
		rationale = fmt.Sprintf("compliance_focused kept the %s guardrail %s", winner.Type, winner.Rule)

	default:
		if guardrail.Priority(c.A.Type) == guardrail.Priority(c.B.Type) {
			resolved = guardrail.Merge(c.A, c.B, string(StrategyBalanced))
			rationale = fmt.Sprintf("balanced_practical merged equal-priority guardrails %s and %s", c.A.Rule, c.B.Rule)
		} else {
			winner, loser := byPriority(c.A, c.B)
			resolved = keep(winner, loser, strategy)
			rationale = fmt.Sprintf("balanced_practical kept the higher-priority %s guardrail %s", winner.Type, winner.Rule)
		}
	}

	return Resolution{
		Conflict:  c,
		Approach:  strategy,
		Resolved:  []guardrail.Guardrail{resolved},
		Rationale: rationale,
		Tradeoffs: tradeoffsFor(c),
	}
}

// keep returns the winner re-identified as a resolution product, with
// the severity floor applied and the method recorded.
func keep(winner, loser guardrail.Guardrail, strategy Strategy) guardrail.Guardrail {
	out := winner
	out.ID = guardrail.MergedID(string(strategy), winner.ID, loser.ID)
	out.Severity = guardrail.MaxSeverity(winner.Severity, loser.Severity)
	out.Rationale = fmt.Sprintf("resolved via %s, superseding %s", strategy, loser.ID)
	return out
}

// bySeverity orders a pair by severity, breaking ties on type priority.
func bySeverity(a, b guardrail.Guardrail) (winner, loser guardrail.Guardrail) {
	if a.Severity.Rank() != b.Severity.Rank() {
		if a.Severity.Rank() > b.Severity.Rank() {
			return a, b
		}
		return b, a
	}
	return byPriority(a, b)
}

// byPriority orders a pair by type priority, breaking ties on id so the
// outcome is deterministic.
func byPriority(a, b guardrail.Guardrail) (winner, loser guardrail.Guardrail) {
	pa, pb := guardrail.Priority(a.Type), guardrail.Priority(b.Type)
	if pa > pb {
		return a, b
	}
	if pb > pa {
		return b, a
	}
	if a.ID <= b.ID {
		return a, b
	}
	return b, a
}

// complianceAffinity are the types the compliance_focused strategy
// prefers regardless of severity.
var complianceAffinity = map[guardrail.Type]bool{
	guardrail.TypeCompliance:     true,
	guardrail.TypeHumanOversight: true,
}

func byComplianceAffinity(a, b guardrail.Guardrail) (winner, loser guardrail.Guardrail, ok bool) {
	aa, ba := complianceAffinity[a.Type], complianceAffinity[b.Type]
	switch {
	case aa && !ba:
		return a, b, true
	case ba && !aa:
		return b, a, true
	}
	return guardrail.Guardrail{}, guardrail.Guardrail{}, false
}

// tradeoffsFor names what the resolution gives up, by conflict shape.
func tradeoffsFor(c Conflict) []string {
	types := map[guardrail.Type]bool{c.A.Type: true, c.B.Type: true}
	switch {
	case c.Kind == KindEfficiencyConflict:
		return []string{"cost ceiling may throttle throughput under load"}
	case c.Kind == KindTradeoffConflict && types[guardrail.TypeHumanOversight]:
		return []string{"human review adds latency to covered decisions"}
	case types[guardrail.TypePerformance] && (types[guardrail.TypeContentSafety] || types[guardrail.TypeSecurity]):
		return []string{"safety screening adds per-request latency"}
	case c.Kind == KindParameterMismatch:
		return []string{"stricter parameter bound applies to all callers"}
	default:
		return nil
	}
}
