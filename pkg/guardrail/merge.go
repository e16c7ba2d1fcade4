package guardrail

import "fmt"

// Merge combines two guardrails of equal negotiation priority into one.
// The result takes the higher severity, the union of both platform lists,
// a shallow merge of both configuration maps, and the deduplicated union
// of both monitoring hooks. The method label is recorded in the rationale
// and folded into the content-addressed id.
func Merge(a, b Guardrail, method string) Guardrail {
	merged := Guardrail{
		ID:          MergedID(method, a.ID, b.ID),
		Type:        a.Type,
		RawType:     a.RawType,
		Severity:    MaxSeverity(a.Severity, b.Severity),
		Rule:        a.Rule,
		Description: a.Description,
		Rationale:   fmt.Sprintf("merged via %s from %s and %s", method, a.ID, b.ID),
		Implementation: Implementation{
			Platforms:     unionPlatforms(a.Implementation.Platforms, b.Implementation.Platforms),
			Configuration: mergeConfiguration(a.Implementation.Configuration, b.Implementation.Configuration),
			Monitoring:    unionMonitoring(a.Implementation.Monitoring, b.Implementation.Monitoring),
		},
	}
	if merged.Description == "" {
		merged.Description = b.Description
	}
	return merged
}

func unionPlatforms(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, p := range a {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range b {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// mergeConfiguration shallow-merges b over a. For keys present in both,
// the numerically larger value wins when both sides are numbers; otherwise
// the later (b) value wins.
func mergeConfiguration(a, b map[string]any) map[string]any {
	if a == nil && b == nil {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		prev, exists := out[k]
		if !exists {
			out[k] = v
			continue
		}
		pn, pok := asFloat(prev)
		vn, vok := asFloat(v)
		if pok && vok && pn > vn {
			continue
		}
		out[k] = v
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func unionMonitoring(a, b []Monitor) []Monitor {
	type key struct{ metric, threshold string }
	seen := make(map[key]bool, len(a)+len(b))
	out := make([]Monitor, 0, len(a)+len(b))
	for _, m := range append(append([]Monitor{}, a...), b...) {
		k := key{m.Metric, m.Threshold}
		if !seen[k] {
			seen[k] = true
			out = append(out, m)
		}
	}
	return out
}

// Dedupe returns gs with duplicate (type, rule) keys removed, keeping the
// first occurrence. Order is otherwise preserved.
func Dedupe(gs []Guardrail) []Guardrail {
	seen := make(map[Key]bool, len(gs))
	out := make([]Guardrail, 0, len(gs))
	for _, g := range gs {
		if !seen[g.Key()] {
			seen[g.Key()] = true
			out = append(out, g)
		}
	}
	return out
}
