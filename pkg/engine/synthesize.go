package engine

import (
	"sort"

	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/risk"
	"github.com/railguard-ai/railguard/pkg/specialist"
)

// Synthesize merges proposals and resolutions into the four-tier rule
// set. Tiers are computed independently, then deduplicated on
// (type, rule) in tier order: a key claimed by an earlier tier never
// reappears in a later one.
func Synthesize(ec *specialist.Context, proposals []specialist.Proposal, resolutions []Resolution) Synthesized {
	var s Synthesized
	claimed := make(map[guardrail.Key]bool)

	take := func(tier *[]guardrail.Guardrail, gs []guardrail.Guardrail) {
		for _, g := range gs {
			if claimed[g.Key()] {
				continue
			}
			claimed[g.Key()] = true
			*tier = append(*tier, g)
		}
	}

	take(&s.Critical, criticalTier(proposals))
	take(&s.Consensus, consensusTier(proposals))
	for _, r := range resolutions {
		take(&s.Resolved, r.Resolved)
	}
	take(&s.Contextual, ContextualGuardrails(ec))
	return s
}

// criticalTier collects every proposal guardrail with critical severity.
func criticalTier(proposals []specialist.Proposal) []guardrail.Guardrail {
	var out []guardrail.Guardrail
	for _, p := range proposals {
		for _, g := range p.Guardrails {
			if g.Severity == guardrail.SeverityCritical {
				out = append(out, g)
			}
		}
	}
	return out
}

// consensusTier collects guardrails whose (type, rule) key appears in at
// least two distinct proposals. The representative instance is the one
// from the lexicographically smallest source name, which makes the
// choice deterministic.
func consensusTier(proposals []specialist.Proposal) []guardrail.Guardrail {
	type candidate struct {
		g       guardrail.Guardrail
		source  string
		sources map[string]bool
	}
	byKey := make(map[guardrail.Key]*candidate)
	var order []guardrail.Key

	sorted := make([]specialist.Proposal, len(proposals))
	copy(sorted, proposals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Source < sorted[j].Source })

	for _, p := range sorted {
		for _, g := range p.Guardrails {
			k := g.Key()
			c, ok := byKey[k]
			if !ok {
				byKey[k] = &candidate{g: g, source: p.Source, sources: map[string]bool{p.Source: true}}
				order = append(order, k)
				continue
			}
			c.sources[p.Source] = true
		}
	}

	var out []guardrail.Guardrail
	for _, k := range order {
		if len(byKey[k].sources) >= 2 {
			out = append(out, byKey[k].g)
		}
	}
	return out
}

// ContextualGuardrails are the fixed template rules triggered by the
// risk profile, regulatory classification and temporal phase.
func ContextualGuardrails(ec *specialist.Context) []guardrail.Guardrail {
	const source = "contextual"
	platforms := ec.Platforms("observability")
	var out []guardrail.Guardrail

	if ec.Risk.Overall == risk.LevelHigh || ec.Risk.Overall == risk.LevelCritical {
		sev := guardrail.SeverityHigh
		if ec.Risk.Overall == risk.LevelCritical {
			sev = guardrail.SeverityCritical
		}
		out = append(out, guardrail.Guardrail{
			ID:          guardrail.SourceID(source, guardrail.TypeAgentBehavior, "ENHANCED_MONITORING"),
			Type:        guardrail.TypeAgentBehavior,
			Severity:    sev,
			Rule:        "ENHANCED_MONITORING",
			Description: "Increase observability coverage while the overall risk level stays elevated.",
			Rationale:   "template: overall risk " + string(ec.Risk.Overall),
			Implementation: guardrail.Implementation{
				Platforms:  platforms,
				Monitoring: []guardrail.Monitor{{Metric: "anomaly_rate", Threshold: "baseline+2sigma", Frequency: "5m"}},
			},
		})
	}
	if ec.Regulatory.EUClassification == risk.EUHighRisk {
		out = append(out, guardrail.Guardrail{
			ID:          guardrail.SourceID(source, guardrail.TypeCompliance, "HIGH_RISK_COMPLIANCE_REVIEW"),
			Type:        guardrail.TypeCompliance,
			Severity:    guardrail.SeverityCritical,
			Rule:        "HIGH_RISK_COMPLIANCE_REVIEW",
			Description: "Gate every release behind a documented compliance review.",
			Rationale:   "template: EU AI Act high-risk classification",
			Implementation: guardrail.Implementation{
				Platforms:     platforms,
				Configuration: map[string]any{"reviewBoard": "ai-governance"},
			},
		})
	}
	if ec.Temporal.EarlyPhase() {
		out = append(out, guardrail.Guardrail{
			ID:          guardrail.SourceID(source, guardrail.TypeHumanOversight, "EARLY_PHASE_OVERSIGHT"),
			Type:        guardrail.TypeHumanOversight,
			Severity:    guardrail.SeverityHigh,
			Rule:        "EARLY_PHASE_OVERSIGHT",
			Description: "Keep a human in the loop for all outputs until the pilot gate.",
			Rationale:   "template: project phase " + ec.Temporal.CurrentPhase,
			Implementation: guardrail.Implementation{
				Platforms:     platforms,
				Configuration: map[string]any{"graduation": "pilot"},
			},
		}, guardrail.Guardrail{
			ID:          guardrail.SourceID(source, guardrail.TypeAgentBehavior, "STAGED_ROLLOUT"),
			Type:        guardrail.TypeAgentBehavior,
			Severity:    guardrail.SeverityMedium,
			Rule:        "STAGED_ROLLOUT",
			Description: "Expand exposure in stages with rollback points between phases.",
			Rationale:   "template: project phase " + ec.Temporal.CurrentPhase,
			Implementation: guardrail.Implementation{
				Platforms: platforms,
			},
		})
	}
	return out
}

// contextualEvolutionRules are the template rules that belong in the
// evolutionary bucket of the implementation config.
var contextualEvolutionRules = map[string]bool{
	"STAGED_ROLLOUT":        true,
	"EARLY_PHASE_OVERSIGHT": true,
	"RISK_REVIEW_CADENCE":   true,
}
