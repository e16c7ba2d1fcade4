// Package validation checks a synthesized rule set for structural
// completeness, dimension coverage and feasibility. Validation never
// blocks a run; the report is attached to the artifact and the caller
// decides what to do with it.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/railguard-ai/railguard/pkg/assessment"
	"github.com/railguard-ai/railguard/pkg/guardrail"
)

// IssueType grades a finding.
type IssueType string

const (
	IssueError   IssueType = "error"
	IssueWarning IssueType = "warning"
	IssueInfo    IssueType = "info"
)

// Issue is one validation finding.
type Issue struct {
	Type     IssueType `json:"type"`
	Category string    `json:"category"`
	Message  string    `json:"message"`
}

// Report is the validator output. Score and coverage values are always
// within [0,100].
type Report struct {
	Score    int                `json:"score"`
	Issues   []Issue            `json:"issues"`
	Coverage map[string]float64 `json:"coverage"`
}

// Issue weights for the score penalty.
const (
	errorPenalty   = 10
	warningPenalty = 5
	infoPenalty    = 2
)

// highVolumeTokens is the monthly volume above which cost coverage also
// requires caching or optimization rules.
const highVolumeTokens = 10_000_000

// requiredRules maps each coverage dimension to the rule-name substrings
// expected in a complete configuration.
var requiredRules = map[string][]string{
	"security":    {"PROMPT_INJECTION", "JAILBREAK", "ADVERSARIAL", "OUTPUT_VALIDATION"},
	"performance": {"RESPONSE_TIME", "AVAILABILITY", "RATE_LIMITING"},
	"cost":        {"TOKEN_BUDGET", "BUDGET_ENFORCEMENT"},
	"governance":  {"DATA_MINIMIZATION", "RETENTION", "DRIFT_MONITORING"},
	"ethical":     {"BIAS_DETECTION", "FAIRNESS"},
}

// conditionalRule is a rule-name substring required only when its
// predicate holds for the assessment.
type conditionalRule struct {
	dimension string
	substring string
	grade     IssueType
	reason    string
	when      func(*assessment.Assessment) bool
}

var conditionalRules = []conditionalRule{
	{"ethical", "CONTENT_FILTERING", IssueError, "minors among declared users", func(a *assessment.Assessment) bool {
		return a.HasUserCategory("Minors")
	}},
	{"security", "HALLUCINATION", IssueWarning, "generative model in use", func(a *assessment.Assessment) bool {
		return a.HasModelType("Generative AI") || a.HasModelType("LLM")
	}},
	{"performance", "FAILOVER", IssueWarning, "mission critical system", func(a *assessment.Assessment) bool {
		return a.MissionCritical()
	}},
	{"performance", "CIRCUIT_BREAKER", IssueWarning, "mission critical system", func(a *assessment.Assessment) bool {
		return a.MissionCritical()
	}},
	{"performance", "HEALTH_CHECK", IssueWarning, "mission critical system", func(a *assessment.Assessment) bool {
		return a.MissionCritical()
	}},
	{"governance", "CROSS_BORDER", IssueWarning, "cross-border data transfer declared", func(a *assessment.Assessment) bool {
		return a.Data.CrossBorderTransfer
	}},
	{"ethical", "HUMAN_OVERSIGHT", IssueWarning, "fully automated decision-making", func(a *assessment.Assessment) bool {
		return a.Ethical.FullyAutomated
	}},
	{"cost", "OPTIMIZATION", IssueInfo, "high token volume", func(a *assessment.Assessment) bool {
		return a.Technical.MonthlyTokenVolume > highVolumeTokens
	}},
}

// Validate runs all checks over the final rule set.
func Validate(a *assessment.Assessment, rules []guardrail.Guardrail) Report {
	r := Report{Coverage: make(map[string]float64)}

	if len(rules) == 0 {
		r.Issues = append(r.Issues, Issue{IssueWarning, "completeness", "rule set is empty"})
	}
	r.Issues = append(r.Issues, structuralIssues(rules)...)
	r.Issues = append(r.Issues, redundancyIssues(rules)...)
	r.Issues = append(r.Issues, conditionalIssues(a, rules)...)
	r.Issues = append(r.Issues, feasibilityIssues(a, rules)...)

	for dim, names := range requiredRules {
		r.Coverage[dim] = coverage(rules, names)
	}
	r.Score = score(r)
	return r
}

func structuralIssues(rules []guardrail.Guardrail) []Issue {
	var issues []Issue
	for _, g := range rules {
		switch {
		case g.ID == "":
			issues = append(issues, Issue{IssueError, "structure", fmt.Sprintf("guardrail %s has no id", g.Rule)})
		case g.Rule == "":
			issues = append(issues, Issue{IssueError, "structure", fmt.Sprintf("guardrail %s has no rule identifier", g.ID)})
		case len(g.Implementation.Platforms) == 0:
			issues = append(issues, Issue{IssueWarning, "structure", fmt.Sprintf("guardrail %s targets no platforms", g.Rule)})
		case g.Severity == guardrail.SeverityCritical && len(g.Implementation.Monitoring) == 0:
			issues = append(issues, Issue{IssueInfo, "structure", fmt.Sprintf("critical guardrail %s has no monitoring hook", g.Rule)})
		}
	}
	return issues
}

func redundancyIssues(rules []guardrail.Guardrail) []Issue {
	var issues []Issue
	seen := make(map[guardrail.Key]guardrail.Guardrail)
	for _, g := range rules {
		prev, dup := seen[g.Key()]
		if !dup {
			seen[g.Key()] = g
			continue
		}
		if configEqual(prev.Implementation.Configuration, g.Implementation.Configuration) {
			issues = append(issues, Issue{IssueWarning, "redundancy",
				fmt.Sprintf("duplicate guardrail %s/%s with identical configuration", g.Type, g.Rule)})
		}
	}
	return issues
}

func conditionalIssues(a *assessment.Assessment, rules []guardrail.Guardrail) []Issue {
	var issues []Issue
	for _, c := range conditionalRules {
		if !c.when(a) {
			continue
		}
		if !anyRuleContains(rules, c.substring) {
			issues = append(issues, Issue{c.grade, "completeness",
				fmt.Sprintf("%s: no %s rule despite %s", c.dimension, c.substring, c.reason)})
		}
	}
	return issues
}

// feasibilityIssues flags configurations the declared workload cannot
// satisfy.
func feasibilityIssues(a *assessment.Assessment, rules []guardrail.Guardrail) []Issue {
	var issues []Issue
	if a.Technical.MonthlyTokenVolume > highVolumeTokens {
		for _, g := range rules {
			if v, ok := numericConfig(g, "maxOutputTokens"); ok && v < 1000 {
				issues = append(issues, Issue{IssueWarning, "feasibility",
					fmt.Sprintf("guardrail %s caps output at %.0f tokens against a %d/month volume", g.Rule, v, a.Technical.MonthlyTokenVolume)})
			}
		}
	}
	if a.Technical.LatencyRequirementMs > 0 && a.Technical.LatencyRequirementMs < 100 &&
		(a.HasModelType("Generative AI") || a.HasModelType("LLM")) {
		issues = append(issues, Issue{IssueWarning, "feasibility",
			fmt.Sprintf("latency requirement of %dms is unrealistic for a generative model", a.Technical.LatencyRequirementMs)})
	}
	return issues
}

func coverage(rules []guardrail.Guardrail, names []string) float64 {
	if len(names) == 0 {
		return 100
	}
	matched := 0
	for _, name := range names {
		if anyRuleContains(rules, name) {
			matched++
		}
	}
	return math.Round(float64(matched) / float64(len(names)) * 100)
}

func anyRuleContains(rules []guardrail.Guardrail, substring string) bool {
	for _, g := range rules {
		if strings.Contains(g.Rule, substring) {
			return true
		}
	}
	return false
}

// score combines the issue penalty (60%) and the average coverage (40%).
func score(r Report) int {
	penalty := 100
	for _, i := range r.Issues {
		switch i.Type {
		case IssueError:
			penalty -= errorPenalty
		case IssueWarning:
			penalty -= warningPenalty
		case IssueInfo:
			penalty -= infoPenalty
		}
	}
	if penalty < 0 {
		penalty = 0
	}

	var covSum float64
	for _, v := range r.Coverage {
		covSum += v
	}
	avgCov := 0.0
	if len(r.Coverage) > 0 {
		avgCov = covSum / float64(len(r.Coverage))
	}

	s := int(math.Round(0.6*float64(penalty) + 0.4*avgCov))
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return s
}

func configEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || fmt.Sprintf("%v", av) != fmt.Sprintf("%v", bv) {
			return false
		}
	}
	return true
}

func numericConfig(g guardrail.Guardrail, key string) (float64, bool) {
	v, ok := g.Implementation.Configuration[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
