package contextgraph

import (
	"fmt"

	"github.com/railguard-ai/railguard/pkg/assessment"
)

// sectionKinds maps assessment section names to graph node kinds.
var sectionKinds = []struct {
	section string
	kind    NodeKind
}{
	{"technical", KindTechnical},
	{"business", KindBusiness},
	{"ethical", KindEthical},
	{"risk", KindRisk},
	{"data", KindData},
	{"roadmap", KindRoadmap},
	{"budget", KindBudget},
}

// ImportanceSignal is one additive contribution to a node's importance.
// Importance starts at baseImportance and each matching signal adds its
// weight, clamped to [0,1].
type ImportanceSignal struct {
	Kind   NodeKind
	Weight float64
	Note   string
	When   func(*assessment.Assessment) bool
}

const baseImportance = 0.5

// ImportanceSignals is the fixed signal table. Exported so the weighting
// is auditable and directly testable.
var ImportanceSignals = []ImportanceSignal{
	{KindTechnical, 0.2, "technical complexity above 8", func(a *assessment.Assessment) bool {
		return a.Technical.Complexity > 8
	}},
	{KindBusiness, 0.3, "mission critical system", func(a *assessment.Assessment) bool {
		return a.MissionCritical()
	}},
	{KindBusiness, 0.3, "catastrophic failure impact", func(a *assessment.Assessment) bool {
		return a.Business.FailureImpact == assessment.ImpactCatastrophic
	}},
	{KindBusiness, 0.2, "general public exposure", func(a *assessment.Assessment) bool {
		return a.HasUserCategory("General Public")
	}},
	{KindData, 0.2, "personal data processed", func(a *assessment.Assessment) bool {
		return a.HasDataType("Personal Data")
	}},
	{KindData, 0.3, "health or financial records processed", func(a *assessment.Assessment) bool {
		return a.HasDataType("Health Records") || a.HasDataType("Medical Records") || a.HasDataType("Financial Records")
	}},
	{KindEthical, 0.2, "general public exposure", func(a *assessment.Assessment) bool {
		return a.HasUserCategory("General Public")
	}},
	{KindEthical, 0.2, "declared harm areas", func(a *assessment.Assessment) bool {
		return len(a.Ethical.HarmAreas) > 0
	}},
	{KindRisk, 0.3, "catastrophic failure impact", func(a *assessment.Assessment) bool {
		return a.Business.FailureImpact == assessment.ImpactCatastrophic
	}},
}

// jurisdictionSignal adds 0.1 per declared jurisdiction to the data node,
// capped at three jurisdictions. Kept out of the static table because its
// weight depends on the count.
func jurisdictionSignal(a *assessment.Assessment) float64 {
	n := len(a.Data.Jurisdictions)
	if n > 3 {
		n = 3
	}
	return 0.1 * float64(n)
}

// EdgeRule is one entry of the fixed edge trigger table.
type EdgeRule struct {
	Source    NodeKind
	Target    NodeKind
	Relation  Relation
	Weight    float64
	Rationale string
	When      func(*assessment.Assessment) bool
}

// EdgeRules is the fixed trigger table. An edge is emitted for every rule
// whose predicate fires; the table is the single source of truth for
// graph topology.
var EdgeRules = []EdgeRule{
	{KindTechnical, KindRisk, RelIncreasesRisk, 0.8, "technical complexity above 7 raises delivery risk", func(a *assessment.Assessment) bool {
		return a.Technical.Complexity > 7
	}},
	{KindData, KindCompliance, RelRequires, 1.0, "sensitive records trigger mandatory compliance controls", func(a *assessment.Assessment) bool {
		return a.HasDataType("Health Records") || a.HasDataType("Medical Records")
	}},
	{KindBusiness, KindEthical, RelAmplifies, 0.9, "public-facing deployment amplifies ethical exposure", func(a *assessment.Assessment) bool {
		return a.HasUserCategory("General Public")
	}},
	{KindBusiness, KindRisk, RelIncreasesRisk, 0.7, "mission critical systems concentrate operational risk", func(a *assessment.Assessment) bool {
		return a.MissionCritical()
	}},
	{KindData, KindCompliance, RelRequires, 0.9, "cross-border transfer requires transfer safeguards", func(a *assessment.Assessment) bool {
		return a.Data.CrossBorderTransfer
	}},
	{KindRisk, KindCompliance, RelRequires, 0.8, "multi-jurisdiction footprint requires per-regime review", func(a *assessment.Assessment) bool {
		return len(a.Data.Jurisdictions) >= 2
	}},
	{KindEthical, KindRisk, RelIncreasesRisk, 0.6, "no bias testing with public exposure raises harm risk", func(a *assessment.Assessment) bool {
		return a.Ethical.BiasTesting == "None" && a.HasUserCategory("General Public")
	}},
}

// Build constructs the context graph for a normalized assessment. One
// node per present section, importance from the signal table, edges from
// the trigger table. A synthetic compliance node is added when any edge
// references it.
func Build(a *assessment.Assessment) *Graph {
	g := &Graph{Nodes: make(map[NodeKind]*Node)}

	for _, sk := range sectionKinds {
		if !a.SectionPresent(sk.section) {
			continue
		}
		g.Nodes[sk.kind] = &Node{
			ID:         fmt.Sprintf("node-%s", sk.kind),
			Kind:       sk.kind,
			Importance: importance(a, sk.kind),
		}
	}

	for _, r := range EdgeRules {
		if g.Nodes[r.Source] == nil {
			continue
		}
		if !r.When(a) {
			continue
		}
		if g.Nodes[r.Target] == nil {
			if r.Target != KindCompliance {
				continue
			}
			g.Nodes[KindCompliance] = &Node{
				ID:         fmt.Sprintf("node-%s", KindCompliance),
				Kind:       KindCompliance,
				Importance: clamp01(baseImportance + jurisdictionSignal(a)),
			}
		}
		g.Edges = append(g.Edges, Edge{
			Source:    r.Source,
			Target:    r.Target,
			Relation:  r.Relation,
			Weight:    r.Weight,
			Rationale: r.Rationale,
		})
	}
	return g
}

func importance(a *assessment.Assessment, kind NodeKind) float64 {
	score := baseImportance
	for _, s := range ImportanceSignals {
		if s.Kind == kind && s.When(a) {
			score += s.Weight
		}
	}
	if kind == KindData {
		score += jurisdictionSignal(a)
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
