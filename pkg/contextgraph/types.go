package contextgraph

// NodeKind identifies the assessment area a graph node stands for.
type NodeKind string

const (
	KindTechnical  NodeKind = "technicalFeasibility"
	KindBusiness   NodeKind = "businessFeasibility"
	KindEthical    NodeKind = "ethicalImpact"
	KindRisk       NodeKind = "riskAssessment"
	KindData       NodeKind = "dataReadiness"
	KindRoadmap    NodeKind = "roadmapPosition"
	KindBudget     NodeKind = "budgetPlanning"
	KindCompliance NodeKind = "compliance"
)

// Relation labels the semantics of an edge.
type Relation string

const (
	RelIncreasesRisk Relation = "increases_risk"
	RelRequires      Relation = "requires"
	RelAmplifies     Relation = "amplifies"
)

// Node is one risk-relevant area of the assessment with an importance
// score in [0,1].
type Node struct {
	ID         string   `json:"id"`
	Kind       NodeKind `json:"kind"`
	Importance float64  `json:"importance"`
}

// Edge is a directed causal relationship between two areas.
type Edge struct {
	Source    NodeKind `json:"source"`
	Target    NodeKind `json:"target"`
	Relation  Relation `json:"relation"`
	Weight    float64  `json:"weight"`
	Rationale string   `json:"rationale"`
}

// Graph is the risk-relationship graph built once per run from the
// assessment. Read-only after construction.
type Graph struct {
	Nodes map[NodeKind]*Node `json:"nodes"`
	Edges []Edge             `json:"edges"`
}

// Node returns the node for a kind, or nil.
func (g *Graph) Node(k NodeKind) *Node {
	return g.Nodes[k]
}

// EdgesFrom returns the edges leaving the given kind.
func (g *Graph) EdgesFrom(k NodeKind) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == k {
			out = append(out, e)
		}
	}
	return out
}

// EdgesByRelation returns edges carrying the given relation.
func (g *Graph) EdgesByRelation(r Relation) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Relation == r {
			out = append(out, e)
		}
	}
	return out
}
