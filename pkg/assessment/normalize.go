package assessment

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnusable marks an assessment payload that cannot be normalized at
// all. It is the only condition under which a pipeline run fails.
var ErrUnusable = errors.New("assessment unusable")

var sectionNames = []string{
	"technical", "business", "ethical", "risk",
	"data", "roadmap", "budget", "stakeholders",
}

// Normalize decodes a raw assessment payload into the canonical
// struct-of-structs form and applies defaults. It fails only when the
// payload is empty, not a JSON object, or contains none of the known
// sections; any other absence is filled with a documented default:
//
//   - technicalComplexity unset or out of [1,10]: 5
//   - projectStage unset: discovery
//   - systemCriticality unset: Operational (not mission critical)
//   - failureImpact unset: Moderate
//   - biasTesting unset: None
func Normalize(raw []byte) (*Assessment, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnusable)
	}
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", ErrUnusable, err)
	}
	present := make(map[string]bool, len(sectionNames))
	for _, name := range sectionNames {
		if _, ok := shape[name]; ok {
			present[name] = true
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("%w: no recognised sections", ErrUnusable)
	}

	var a Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		// Section-level type mismatches are tolerated field by field;
		// re-decode each section independently so one bad section does
		// not discard the rest.
		a = Assessment{}
		decodeSection(shape["technical"], &a.Technical)
		decodeSection(shape["business"], &a.Business)
		decodeSection(shape["ethical"], &a.Ethical)
		decodeSection(shape["risk"], &a.Risk)
		decodeSection(shape["data"], &a.Data)
		decodeSection(shape["roadmap"], &a.Roadmap)
		decodeSection(shape["budget"], &a.Budget)
		decodeSection(shape["stakeholders"], &a.Stakeholders)
	}
	a.present = present
	applyDefaults(&a)
	return &a, nil
}

func decodeSection(raw json.RawMessage, dst any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

func applyDefaults(a *Assessment) {
	if a.Technical.Complexity < 1 || a.Technical.Complexity > 10 {
		a.Technical.Complexity = 5
	}
	if a.Roadmap.ProjectStage == "" {
		a.Roadmap.ProjectStage = StageDiscovery
	}
	if a.Business.SystemCriticality == "" {
		a.Business.SystemCriticality = CriticalityOperational
	}
	if a.Business.FailureImpact == "" {
		a.Business.FailureImpact = ImpactModerate
	}
	if a.Ethical.BiasTesting == "" {
		a.Ethical.BiasTesting = "None"
	}
}
