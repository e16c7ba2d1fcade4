// Package policy loads organisation-level guardrail policies. These are
// operator-supplied constraints passed through to the reasoning service
// and honoured by specialists; they are not derived from the assessment.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OrgPolicies is the operator policy file.
type OrgPolicies struct {
	// ApprovedPlatforms restricts which enforcement platforms guardrails
	// may target. Empty means no restriction.
	ApprovedPlatforms []string `yaml:"approvedPlatforms" json:"approvedPlatforms,omitempty"`
	// MandatoryRules are rule identifiers that must appear in every
	// generated configuration.
	MandatoryRules []string `yaml:"mandatoryRules" json:"mandatoryRules,omitempty"`
	// MaxMonthlySpendUSD caps the spend any cost guardrail may permit.
	MaxMonthlySpendUSD float64 `yaml:"maxMonthlySpendUSD" json:"maxMonthlySpendUSD,omitempty"`
	// DataResidency names the region data must stay in, if any.
	DataResidency string `yaml:"dataResidency" json:"dataResidency,omitempty"`
	// Notes is free text forwarded verbatim to the reasoning service.
	Notes string `yaml:"notes" json:"notes,omitempty"`
}

// IsZero reports whether no policy field is set.
func (p OrgPolicies) IsZero() bool {
	return len(p.ApprovedPlatforms) == 0 &&
		len(p.MandatoryRules) == 0 &&
		p.MaxMonthlySpendUSD == 0 &&
		p.DataResidency == "" &&
		p.Notes == ""
}

// Load reads an org policy file in YAML form. A missing path returns
// empty policies, not an error.
func Load(path string) (OrgPolicies, error) {
	var p OrgPolicies
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("read org policies: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse org policies: %w", err)
	}
	return p, nil
}
