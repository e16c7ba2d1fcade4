package engine

import (
	"fmt"

	"github.com/railguard-ai/railguard/pkg/guardrail"
	"github.com/railguard-ai/railguard/pkg/specialist"
)

// numericDivergenceRatio is the relative difference above which two
// numeric configuration values count as conflicting: the gap must exceed
// half of the smaller value.
const numericDivergenceRatio = 0.5

// contestedStringKeys are configuration keys where a plain string
// mismatch between same-type guardrails is a conflict.
var contestedStringKeys = []string{"oversightLevel"}

// tensionPairs are cross-type combinations that conflict when both sides
// are critical.
var tensionPairs = []struct {
	a, b guardrail.Type
	kind ConflictKind
}{
	{guardrail.TypePerformance, guardrail.TypeCostControl, KindEfficiencyConflict},
	{guardrail.TypeHumanOversight, guardrail.TypePerformance, KindTradeoffConflict},
}

// protectedTypes escalate a run's conflict severity when either side of
// any conflict carries one of them.
var protectedTypes = map[guardrail.Type]bool{
	guardrail.TypeDataProtection: true,
	guardrail.TypeCompliance:     true,
}

// DetectConflicts pairwise-compares all proposals' guardrails. One
// Conflict is produced per matching pair. Severity is assigned after
// detection via ConflictSeverity so every conflict of a run carries the
// same aggregate severity.
func DetectConflicts(proposals []specialist.Proposal) []Conflict {
	var conflicts []Conflict
	for i := 0; i < len(proposals); i++ {
		for j := i + 1; j < len(proposals); j++ {
			for _, a := range proposals[i].Guardrails {
				for _, b := range proposals[j].Guardrails {
					c, ok := compare(a, b)
					if !ok {
						continue
					}
					c.Participants = []string{proposals[i].Source, proposals[j].Source}
					conflicts = append(conflicts, c)
				}
			}
		}
	}
	hasTradeoff := false
	touchesProtected := false
	for _, c := range conflicts {
		if c.Kind == KindTradeoffConflict {
			hasTradeoff = true
		}
		if protectedTypes[c.A.Type] || protectedTypes[c.B.Type] {
			touchesProtected = true
		}
	}
	sev := ConflictSeverity(len(conflicts), hasTradeoff, touchesProtected)
	for i := range conflicts {
		conflicts[i].Severity = sev
	}
	return conflicts
}

func compare(a, b guardrail.Guardrail) (Conflict, bool) {
	if a.Type == b.Type {
		if key, av, bv, ok := numericDivergence(a, b); ok {
			return Conflict{
				Kind: KindParameterMismatch,
				A:    a, B: b,
				Description: fmt.Sprintf("%s guardrails disagree on %s: %v vs %v", a.Type, key, av, bv),
			}, true
		}
		if key, av, bv, ok := stringMismatch(a, b); ok {
			return Conflict{
				Kind: KindParameterMismatch,
				A:    a, B: b,
				Description: fmt.Sprintf("%s guardrails disagree on %s: %q vs %q", a.Type, key, av, bv),
			}, true
		}
		return Conflict{}, false
	}
	if a.Severity != guardrail.SeverityCritical || b.Severity != guardrail.SeverityCritical {
		return Conflict{}, false
	}
	for _, tp := range tensionPairs {
		if (a.Type == tp.a && b.Type == tp.b) || (a.Type == tp.b && b.Type == tp.a) {
			return Conflict{
				Kind: tp.kind,
				A:    a, B: b,
				Description: fmt.Sprintf("critical %s and %s guardrails pull in opposite directions", a.Type, b.Type),
			}, true
		}
	}
	return Conflict{}, false
}

// numericDivergence finds the first shared numeric configuration key
// whose values differ by more than numericDivergenceRatio of the smaller.
func numericDivergence(a, b guardrail.Guardrail) (string, float64, float64, bool) {
	for key, rawA := range a.Implementation.Configuration {
		rawB, ok := b.Implementation.Configuration[key]
		if !ok {
			continue
		}
		av, aok := asNumber(rawA)
		bv, bok := asNumber(rawB)
		if !aok || !bok {
			continue
		}
		small, big := av, bv
		if small > big {
			small, big = big, small
		}
		if small <= 0 {
			if big > 0 {
				return key, av, bv, true
			}
			continue
		}
		if (big-small)/small > numericDivergenceRatio {
			return key, av, bv, true
		}
	}
	return "", 0, 0, false
}

func stringMismatch(a, b guardrail.Guardrail) (string, string, string, bool) {
	for _, key := range contestedStringKeys {
		av, aok := a.Implementation.Configuration[key].(string)
		bv, bok := b.Implementation.Configuration[key].(string)
		if aok && bok && av != bv {
			return key, av, bv, true
		}
	}
	return "", "", "", false
}

func asNumber(v any) (float64, bool) {
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

// Conflict-count boundaries for the aggregate severity. The numbers are
// placeholder policy, kept in one place so changing them is a one-line
// edit.
const (
	mediumConflictCount = 1
	highConflictCount   = 3
)

// ConflictSeverity is the single severity policy for a run's conflicts:
// critical when any conflict touches data_protection or compliance,
// high when a tradeoff conflict exists or the count exceeds
// highConflictCount, medium above mediumConflictCount, low otherwise.
func ConflictSeverity(count int, hasTradeoff, touchesProtected bool) guardrail.Severity {
	switch {
	case count == 0:
		return guardrail.SeverityLow
	case touchesProtected:
		return guardrail.SeverityCritical
	case hasTradeoff || count > highConflictCount:
		return guardrail.SeverityHigh
	case count > mediumConflictCount:
		return guardrail.SeverityMedium
	default:
		return guardrail.SeverityLow
	}
}
