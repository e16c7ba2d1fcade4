package assessment

// Criticality levels used across the business section.
const (
	CriticalityMissionCritical  = "Mission Critical"
	CriticalityBusinessCritical = "Business Critical"
	CriticalityOperational      = "Operational"
	CriticalityExperimental     = "Experimental"
)

// Failure impact levels.
const (
	ImpactCatastrophic = "Catastrophic"
	ImpactMajor        = "Major"
	ImpactModerate     = "Moderate"
	ImpactMinor        = "Minor"
)

// Project stages recognised by the temporal analysis.
const (
	StageDiscovery      = "discovery"
	StageProofOfConcept = "proof-of-concept"
	StagePilot          = "pilot"
	StageProduction     = "production"
)

// Technical describes the proposed system's technical shape.
type Technical struct {
	Complexity           int      `json:"technicalComplexity"`
	ModelTypes           []string `json:"modelTypes"`
	AvgInputTokens       int64    `json:"avgInputTokens"`
	AvgOutputTokens      int64    `json:"avgOutputTokens"`
	MonthlyTokenVolume   int64    `json:"monthlyTokenVolume"`
	LatencyRequirementMs int      `json:"latencyRequirementMs"`
	AvailabilityTarget   string   `json:"availabilityTarget"`
	Deployment           string   `json:"deploymentEnvironment"`
}

// Business describes criticality, users and economics.
type Business struct {
	SystemCriticality string   `json:"systemCriticality"`
	UserCategories    []string `json:"userCategories"`
	FailureImpact     string   `json:"failureImpact"`
	PaybackMonths     int      `json:"expectedPaybackMonths"`
}

// Ethical describes harm exposure and oversight posture.
type Ethical struct {
	HarmAreas      []string `json:"harmAreas"`
	BiasTesting    string   `json:"biasTesting"`
	OversightLevel string   `json:"oversightLevel"`
	FullyAutomated bool     `json:"fullyAutomated"`
}

// Risk carries declared risk posture.
type Risk struct {
	Tolerance      string   `json:"riskTolerance"`
	KnownRisks     []string `json:"knownRisks"`
	MitigationPlan bool     `json:"mitigationPlan"`
}

// Data describes the data footprint of the system.
type Data struct {
	DataTypes           []string `json:"dataTypes"`
	CrossBorderTransfer bool     `json:"crossBorderTransfer"`
	Jurisdictions       []string `json:"jurisdictions"`
	RetentionPeriod     string   `json:"retentionPeriod"`
}

// Roadmap places the project on its lifecycle.
type Roadmap struct {
	ProjectStage  string   `json:"projectStage"`
	EvolutionPath []string `json:"evolutionPath"`
}

// Budget describes the spend envelope.
type Budget struct {
	MaxBudget   float64 `json:"maxBudget"`
	BudgetRange string  `json:"budgetRange"`
}

// Stakeholders names the people and teams with a stake in the system.
type Stakeholders struct {
	Groups    []string `json:"groups"`
	Approvers []string `json:"approvers"`
}

// Assessment is the normalized intake record. Every section is present
// after normalization; absent input sections become default-valued
// sub-structs so downstream code never branches on nil.
type Assessment struct {
	Technical    Technical    `json:"technical"`
	Business     Business     `json:"business"`
	Ethical      Ethical      `json:"ethical"`
	Risk         Risk         `json:"risk"`
	Data         Data         `json:"data"`
	Roadmap      Roadmap      `json:"roadmap"`
	Budget       Budget       `json:"budget"`
	Stakeholders Stakeholders `json:"stakeholders"`

	// present records which sections existed in the raw payload.
	// Hand-constructed assessments (nil map) count every section present.
	present map[string]bool
}

// SectionPresent reports whether the named section existed in the raw
// payload this assessment was normalized from.
func (a *Assessment) SectionPresent(name string) bool {
	if a.present == nil {
		return true
	}
	return a.present[name]
}

// HasDataType reports whether the data section declares the given type.
func (a *Assessment) HasDataType(t string) bool {
	return contains(a.Data.DataTypes, t)
}

// HasModelType reports whether the technical section declares the given
// model type.
func (a *Assessment) HasModelType(t string) bool {
	return contains(a.Technical.ModelTypes, t)
}

// HasUserCategory reports whether the business section declares the given
// user category.
func (a *Assessment) HasUserCategory(c string) bool {
	return contains(a.Business.UserCategories, c)
}

// HasHarmArea reports whether the ethical section declares the given harm
// area.
func (a *Assessment) HasHarmArea(h string) bool {
	return contains(a.Ethical.HarmAreas, h)
}

// MissionCritical reports whether the system is declared mission critical.
func (a *Assessment) MissionCritical() bool {
	return a.Business.SystemCriticality == CriticalityMissionCritical
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
