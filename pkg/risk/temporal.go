package risk

import "github.com/railguard-ai/railguard/pkg/assessment"

// TemporalAnalysis situates the project on its maturity path. Early
// phases get looser guardrails with explicit graduation milestones.
type TemporalAnalysis struct {
	CurrentPhase  string   `json:"currentPhase"`
	EvolutionPath []string `json:"evolutionPath"`
	Milestones    []string `json:"milestones,omitempty"`
}

// defaultEvolution is the assumed path when the assessment declares none.
var defaultEvolution = []string{
	assessment.StageDiscovery,
	assessment.StageProofOfConcept,
	assessment.StagePilot,
	assessment.StageProduction,
}

// EarlyPhase reports whether the phase predates pilot deployment.
func (t TemporalAnalysis) EarlyPhase() bool {
	return t.CurrentPhase == assessment.StageDiscovery || t.CurrentPhase == assessment.StageProofOfConcept
}

// AnalyzeTemporal derives the temporal analysis from the roadmap section.
func AnalyzeTemporal(a *assessment.Assessment) TemporalAnalysis {
	t := TemporalAnalysis{
		CurrentPhase:  a.Roadmap.ProjectStage,
		EvolutionPath: a.Roadmap.EvolutionPath,
	}
	if len(t.EvolutionPath) == 0 {
		t.EvolutionPath = remainingPath(t.CurrentPhase)
	}
	switch t.CurrentPhase {
	case assessment.StageDiscovery:
		t.Milestones = []string{"define evaluation criteria before proof-of-concept", "identify data governance owner"}
	case assessment.StageProofOfConcept:
		t.Milestones = []string{"bias testing before pilot", "human oversight process before pilot"}
	case assessment.StagePilot:
		t.Milestones = []string{"full monitoring coverage before production", "incident response runbook before production"}
	}
	return t
}

func remainingPath(phase string) []string {
	for i, p := range defaultEvolution {
		if p == phase {
			return defaultEvolution[i:]
		}
	}
	return defaultEvolution
}
