package engine

import (
	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/specialist"
)

// ethicalTypes route to the ethical bucket.
var ethicalTypes = map[guardrail.Type]bool{
	guardrail.TypeEthical:        true,
	guardrail.TypeBiasMitigation: true,
	guardrail.TypeHumanOversight: true,
	guardrail.TypeContentSafety:  true,
}

// economicTypes route to the economic bucket.
var economicTypes = map[guardrail.Type]bool{
	guardrail.TypeCostControl: true,
	guardrail.TypeBusiness:    true,
}

// BuildImplementationConfig groups the synthesized rules into disjoint
// deployment buckets. Bucket assignment is ordered: critical severity
// first, then lifecycle (evolutionary) rules, then ethical and economic
// types, with everything else operational.
func BuildImplementationConfig(ec *specialist.Context, s Synthesized) ImplementationConfig {
	cfg := ImplementationConfig{Platform: platformLabel(ec)}
	for _, g := range s.All() {
		switch {
		case g.Severity == guardrail.SeverityCritical:
			cfg.Rules.Critical = append(cfg.Rules.Critical, g)
		case contextualEvolutionRules[g.Rule]:
			cfg.Rules.Evolutionary = append(cfg.Rules.Evolutionary, g)
		case ethicalTypes[g.Type]:
			cfg.Rules.Ethical = append(cfg.Rules.Ethical, g)
		case economicTypes[g.Type]:
			cfg.Rules.Economic = append(cfg.Rules.Economic, g)
		default:
			cfg.Rules.Operational = append(cfg.Rules.Operational, g)
		}
	}
	return cfg
}

func platformLabel(ec *specialist.Context) string {
	if len(ec.Policies.ApprovedPlatforms) == 1 {
		return ec.Policies.ApprovedPlatforms[0]
	}
	return "multi-platform"
}
