package risk

import "github.com/railguard-ai/railguard/pkg/assessment"

// Level buckets an overall risk score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Profile holds the six risk dimensions, each in [0,1], and the derived
// overall level.
type Profile struct {
	Technical    float64 `json:"technical"`
	Regulatory   float64 `json:"regulatory"`
	Ethical      float64 `json:"ethical"`
	Operational  float64 `json:"operational"`
	Reputational float64 `json:"reputational"`
	Financial    float64 `json:"financial"`
	Overall      Level   `json:"overall"`
}

// Max returns the highest dimension score.
func (p Profile) Max() float64 {
	m := p.Technical
	for _, v := range []float64{p.Regulatory, p.Ethical, p.Operational, p.Reputational, p.Financial} {
		if v > m {
			m = v
		}
	}
	return m
}

// Bucket maps a score onto a level at the 0.25 / 0.5 / 0.75 thresholds.
func Bucket(score float64) Level {
	switch {
	case score >= 0.75:
		return LevelCritical
	case score >= 0.5:
		return LevelHigh
	case score >= 0.25:
		return LevelMedium
	default:
		return LevelLow
	}
}

// BuildProfile computes the risk profile from a normalized assessment.
// Each dimension is a fixed weighted sum of assessment signals, clamped
// to [0,1]. Overall is the bucketed maximum across dimensions.
func BuildProfile(a *assessment.Assessment) Profile {
	p := Profile{
		Technical:    technicalRisk(a),
		Regulatory:   regulatoryRisk(a),
		Ethical:      ethicalRisk(a),
		Operational:  operationalRisk(a),
		Reputational: reputationalRisk(a),
		Financial:    financialRisk(a),
	}
	p.Overall = Bucket(p.Max())
	return p
}

func technicalRisk(a *assessment.Assessment) float64 {
	score := float64(a.Technical.Complexity) / 10 * 0.5
	if a.HasModelType("Generative AI") || a.HasModelType("LLM") {
		score += 0.2
	}
	return clamp01(score)
}

func regulatoryRisk(a *assessment.Assessment) float64 {
	score := float64(len(a.Data.Jurisdictions)) * 0.1
	if a.HasDataType("Personal Data") {
		score += 0.3
	}
	return clamp01(score)
}

func ethicalRisk(a *assessment.Assessment) float64 {
	var score float64
	if a.HasUserCategory("General Public") {
		score += 0.3
	}
	if a.Ethical.BiasTesting == "None" {
		score += 0.3
	}
	return clamp01(score)
}

func operationalRisk(a *assessment.Assessment) float64 {
	var score float64
	switch a.Business.SystemCriticality {
	case assessment.CriticalityMissionCritical:
		score += 0.5
	case assessment.CriticalityBusinessCritical:
		score += 0.2
	}
	if highAvailability(a.Technical.AvailabilityTarget) {
		score += 0.3
	} else if a.Technical.AvailabilityTarget != "" {
		score += 0.1
	}
	return clamp01(score)
}

func reputationalRisk(a *assessment.Assessment) float64 {
	var score float64
	if a.HasUserCategory("General Public") {
		score += 0.4
	}
	switch a.Business.FailureImpact {
	case assessment.ImpactCatastrophic:
		score += 0.4
	case assessment.ImpactMajor:
		score += 0.2
	}
	return clamp01(score)
}

func financialRisk(a *assessment.Assessment) float64 {
	var score float64
	switch {
	case a.Budget.MaxBudget > 100_000:
		score += 0.4
	case a.Budget.MaxBudget > 10_000:
		score += 0.2
	}
	switch {
	case a.Business.PaybackMonths > 24:
		score += 0.3
	case a.Business.PaybackMonths > 12:
		score += 0.1
	}
	return clamp01(score)
}

// highAvailability reports whether the target demands four nines or more.
func highAvailability(target string) bool {
	switch target {
	case "99.99%", "99.999%":
		return true
	}
	return false
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
