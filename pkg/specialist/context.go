package specialist

import (
	"fmt"

	"github.com/railguard-ai/railguard/pkg/assessment"
	"github.com/railguard-ai/railguard/pkg/contextgraph"
	"github.com/railguard-ai/railguard/pkg/policy"
	"github.com/railguard-ai/railguard/pkg/risk"
)

// Requirements partitions what the run must honour: explicit demands
// stated in the assessment, implicit concerns inferred from the context
// graph, and emergent risks visible only in combination.
type Requirements struct {
	Explicit []string `json:"explicit,omitempty"`
	Implicit []string `json:"implicit,omitempty"`
	Emergent []string `json:"emergent,omitempty"`
}

// Context is the immutable enriched context every proposal source reads.
type Context struct {
	Assessment   *assessment.Assessment `json:"assessment"`
	Graph        *contextgraph.Graph    `json:"graph"`
	Risk         risk.Profile           `json:"risk"`
	Regulatory   risk.RegulatoryMapping `json:"regulatory"`
	Temporal     risk.TemporalAnalysis  `json:"temporal"`
	Requirements Requirements           `json:"requirements"`
	Policies     policy.OrgPolicies     `json:"policies"`
}

// Enrich assembles the context from the per-area analyses and derives
// the requirement sets.
func Enrich(a *assessment.Assessment, g *contextgraph.Graph, p risk.Profile, rm risk.RegulatoryMapping, t risk.TemporalAnalysis, pol policy.OrgPolicies) *Context {
	ec := &Context{
		Assessment: a,
		Graph:      g,
		Risk:       p,
		Regulatory: rm,
		Temporal:   t,
		Policies:   pol,
	}
	ec.Requirements = deriveRequirements(ec)
	return ec
}

// implicitEdgeWeight is the graph edge weight above which a risk edge
// becomes a cross-cutting implicit requirement.
const implicitEdgeWeight = 0.7

func deriveRequirements(ec *Context) Requirements {
	var r Requirements
	a := ec.Assessment

	if a.Ethical.OversightLevel != "" {
		r.Explicit = append(r.Explicit, fmt.Sprintf("declared oversight level: %s", a.Ethical.OversightLevel))
	}
	if a.Technical.LatencyRequirementMs > 0 {
		r.Explicit = append(r.Explicit, fmt.Sprintf("latency requirement: %dms", a.Technical.LatencyRequirementMs))
	}
	if a.Technical.AvailabilityTarget != "" {
		r.Explicit = append(r.Explicit, fmt.Sprintf("availability target: %s", a.Technical.AvailabilityTarget))
	}
	if a.Data.RetentionPeriod != "" {
		r.Explicit = append(r.Explicit, fmt.Sprintf("data retention: %s", a.Data.RetentionPeriod))
	}
	for _, reg := range ec.Regulatory.Applicable {
		r.Explicit = append(r.Explicit, fmt.Sprintf("regulation applies: %s", reg))
	}

	riskTargets := 0
	for _, e := range ec.Graph.EdgesByRelation(contextgraph.RelIncreasesRisk) {
		if e.Target == contextgraph.KindRisk {
			riskTargets++
		}
		if e.Weight >= implicitEdgeWeight {
			r.Implicit = append(r.Implicit, fmt.Sprintf("cross-cutting: %s", e.Rationale))
		}
	}
	if riskTargets >= 2 {
		r.Emergent = append(r.Emergent, fmt.Sprintf("cascading failure risk: %d areas independently raise delivery risk", riskTargets))
	}
	return r
}

// Platforms returns the enforcement platforms guardrails should target:
// the org-approved list when set, otherwise the given fallback.
func (ec *Context) Platforms(fallback ...string) []string {
	if len(ec.Policies.ApprovedPlatforms) > 0 {
		return ec.Policies.ApprovedPlatforms
	}
	return fallback
}
