package guardrail

// Type classifies a guardrail. The set is closed: labels coming from
// external sources that do not match a known type are mapped to TypeOther
// and keep their original label in Guardrail.RawType.
type Type string

const (
	TypeCompliance     Type = "compliance"
	TypeDataProtection Type = "data_protection"
	TypeContentSafety  Type = "content_safety"
	TypeHumanOversight Type = "human_oversight"
	TypeEthical        Type = "ethical"
	TypeSecurity       Type = "security"
	TypeBiasMitigation Type = "bias_mitigation"
	TypeBusiness       Type = "business"
	TypePerformance    Type = "performance"
	TypeCostControl    Type = "cost_control"
	TypeAgentBehavior  Type = "agent_behavior"
	TypeOther          Type = "other"
)

var knownTypes = map[Type]bool{
	TypeCompliance:     true,
	TypeDataProtection: true,
	TypeContentSafety:  true,
	TypeHumanOversight: true,
	TypeEthical:        true,
	TypeSecurity:       true,
	TypeBiasMitigation: true,
	TypeBusiness:       true,
	TypePerformance:    true,
	TypeCostControl:    true,
	TypeAgentBehavior:  true,
}

// ParseType maps a free-form category label onto the closed type set.
// The second return reports whether the label matched a known type.
func ParseType(label string) (Type, bool) {
	t := Type(label)
	if knownTypes[t] {
		return t, true
	}
	return TypeOther, false
}

// typePriority is the fixed negotiation priority order. Higher wins.
var typePriority = map[Type]int{
	TypeCompliance:     10,
	TypeDataProtection: 9,
	TypeContentSafety:  9,
	TypeHumanOversight: 8,
	TypeEthical:        8,
	TypeSecurity:       7,
	TypeBiasMitigation: 7,
	TypeBusiness:       6,
	TypePerformance:    5,
	TypeCostControl:    4,
	TypeAgentBehavior:  3,
	TypeOther:          1,
}

// Priority returns the negotiation priority for a type. Unknown types rank
// below every known type.
func Priority(t Type) int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return typePriority[TypeOther]
}

// Severity is the enforcement weight of a guardrail.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal of a severity, 0 for unknown values.
func (s Severity) Rank() int {
	return severityRank[s]
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ParseSeverity maps a free-form severity label onto the known set,
// defaulting to medium.
func ParseSeverity(label string) Severity {
	s := Severity(label)
	if _, ok := severityRank[s]; ok {
		return s
	}
	return SeverityMedium
}

// Monitor is one monitoring hook attached to a guardrail.
type Monitor struct {
	Metric    string `json:"metric"`
	Threshold string `json:"threshold"`
	Frequency string `json:"frequency,omitempty"`
}

// Implementation holds the deployment-facing half of a guardrail.
type Implementation struct {
	Platforms     []string       `json:"platforms"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Monitoring    []Monitor      `json:"monitoring,omitempty"`
}

// Guardrail is a single enforceable rule for an AI deployment.
type Guardrail struct {
	ID             string         `json:"id"`
	Type           Type           `json:"type"`
	RawType        string         `json:"rawType,omitempty"`
	Severity       Severity       `json:"severity"`
	Rule           string         `json:"rule"`
	Description    string         `json:"description"`
	Rationale      string         `json:"rationale,omitempty"`
	Implementation Implementation `json:"implementation"`
}

// Key is the deduplication identity of a guardrail. Two guardrails with the
// same key describe the same rule regardless of who proposed them.
type Key struct {
	Type Type
	Rule string
}

// Key returns the deduplication identity of g.
func (g Guardrail) Key() Key {
	return Key{Type: g.Type, Rule: g.Rule}
}
