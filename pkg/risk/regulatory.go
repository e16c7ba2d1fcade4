package risk

import "github.com/railguard-ai/railguard/pkg/assessment"

// EUClassification is the EU AI Act risk tier.
type EUClassification string

const (
	EUProhibited  EUClassification = "prohibited"
	EUHighRisk    EUClassification = "high-risk"
	EULimitedRisk EUClassification = "limited-risk"
	EUMinimalRisk EUClassification = "minimal-risk"
)

// Requirement is one regulation with its concrete obligations.
type Requirement struct {
	Regulation   string   `json:"regulation"`
	Requirements []string `json:"requirements"`
	Deadlines    string   `json:"deadlines,omitempty"`
}

// RegulatoryMapping is the jurisdiction-driven classification of an
// assessment.
type RegulatoryMapping struct {
	Applicable           []string         `json:"applicable"`
	EUClassification     EUClassification `json:"euClassification,omitempty"`
	SpecificRequirements []Requirement    `json:"specificRequirements,omitempty"`
}

// prohibitedHarmAreas are harm areas the EU AI Act bans outright.
var prohibitedHarmAreas = []string{"Social Scoring", "Mass Surveillance"}

// highRiskUserCategories place a system in the EU high-risk tier.
var highRiskUserCategories = []string{"Law Enforcement", "Healthcare Providers"}

// ClassifyEU applies the EU AI Act tiers in order: prohibited harm areas
// first, then high-risk user categories or mission criticality, then
// limited-risk for generative systems, else minimal-risk.
func ClassifyEU(a *assessment.Assessment) EUClassification {
	for _, h := range prohibitedHarmAreas {
		if a.HasHarmArea(h) {
			return EUProhibited
		}
	}
	for _, c := range highRiskUserCategories {
		if a.HasUserCategory(c) {
			return EUHighRisk
		}
	}
	if a.MissionCritical() {
		return EUHighRisk
	}
	if a.HasModelType("Generative AI") || a.HasModelType("LLM") {
		return EULimitedRisk
	}
	return EUMinimalRisk
}

// BuildRegulatoryMapping derives the applicable regulations and their
// requirements from jurisdictions and data types.
func BuildRegulatoryMapping(a *assessment.Assessment) RegulatoryMapping {
	m := RegulatoryMapping{}

	inEU := hasJurisdiction(a, "European Union")
	inUS := hasJurisdiction(a, "United States")

	if inEU {
		m.EUClassification = ClassifyEU(a)
		m.Applicable = append(m.Applicable, "EU AI Act")
		reqs := []string{"risk classification record", "technical documentation"}
		if m.EUClassification == EUHighRisk {
			reqs = append(reqs, "conformity assessment", "human oversight measures", "post-market monitoring")
		}
		m.SpecificRequirements = append(m.SpecificRequirements, Requirement{
			Regulation:   "EU AI Act",
			Requirements: reqs,
		})
	}
	if inEU && a.HasDataType("Personal Data") {
		m.Applicable = append(m.Applicable, "GDPR")
		m.SpecificRequirements = append(m.SpecificRequirements, Requirement{
			Regulation:   "GDPR",
			Requirements: []string{"lawful basis", "data minimisation", "right to erasure", "DPIA for high-risk processing"},
		})
	}
	if inUS && (a.HasDataType("Health Records") || a.HasDataType("Medical Records")) {
		m.Applicable = append(m.Applicable, "HIPAA")
		m.SpecificRequirements = append(m.SpecificRequirements, Requirement{
			Regulation:   "HIPAA",
			Requirements: []string{"PHI access controls", "audit logging", "breach notification"},
		})
	}
	if a.HasDataType("Financial Records") {
		m.Applicable = append(m.Applicable, "SOX")
		m.SpecificRequirements = append(m.SpecificRequirements, Requirement{
			Regulation:   "SOX",
			Requirements: []string{"financial data integrity controls", "change management audit trail"},
		})
	}
	if a.Data.CrossBorderTransfer && inEU {
		m.SpecificRequirements = append(m.SpecificRequirements, Requirement{
			Regulation:   "GDPR Chapter V",
			Requirements: []string{"transfer impact assessment", "standard contractual clauses"},
		})
	}
	return m
}

func hasJurisdiction(a *assessment.Assessment, j string) bool {
	for _, v := range a.Data.Jurisdictions {
		if v == j {
			return true
		}
	}
	return false
}
