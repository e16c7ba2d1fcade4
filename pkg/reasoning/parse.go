package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/railguard-ai/railguard/pkg/guardrail"
)

// categoryGuardrails is the category-keyed rule set a stance returns.
type categoryGuardrails struct {
	Critical    []externalGuardrail `json:"critical"`
	Operational []externalGuardrail `json:"operational"`
	Ethical     []externalGuardrail `json:"ethical"`
	Economic    []externalGuardrail `json:"economic"`
}

// response is the decoded stance payload.
type response struct {
	Guardrails categoryGuardrails `json:"guardrails"`
	Reasoning  string             `json:"reasoning"`
	Confidence float64            `json:"confidence"`
}

// externalGuardrail is a guardrail as the reasoning service describes it.
// Fields are loose; mapping onto the closed model happens in toGuardrail.
type externalGuardrail struct {
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Rule        string         `json:"rule"`
	Description string         `json:"description"`
	Rationale   string         `json:"rationale"`
	Platforms   []string       `json:"platforms"`
	Config      map[string]any `json:"configuration"`
}

const defaultStanceConfidence = 0.75

// decode recovers a response from untrusted stance output. The ladder is
// fixed: strict parse, control-character strip, mechanical repair, first
// balanced object extraction, then the empty skeleton. It never fails;
// the returned notes say which tier succeeded when it was not the first.
func decode(raw []byte) (response, []string) {
	var notes []string

	if r, ok := tryParse(raw); ok {
		return normalizeResponse(r), nil
	}
	stripped := stripControl(string(raw))
	if r, ok := tryParse([]byte(stripped)); ok {
		return normalizeResponse(r), []string{"response parsed after control-character strip"}
	}
	if repaired, err := jsonrepair.JSONRepair(stripped); err == nil {
		if r, ok := tryParse([]byte(repaired)); ok {
			return normalizeResponse(r), []string{"response parsed after mechanical repair"}
		}
	}
	if block := firstObject(stripped); block != "" {
		if r, ok := tryParse([]byte(block)); ok {
			return normalizeResponse(r), []string{"response parsed from extracted object block"}
		}
	}
	notes = append(notes, "response unparseable; substituted empty guardrail skeleton")
	return response{Confidence: 0}, notes
}

func tryParse(raw []byte) (response, bool) {
	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return response{}, false
	}
	return r, true
}

func normalizeResponse(r response) response {
	if r.Confidence <= 0 {
		r.Confidence = defaultStanceConfidence
	}
	if r.Confidence > 1 {
		r.Confidence = r.Confidence / 100
		if r.Confidence > 1 {
			r.Confidence = 1
		}
	}
	return r
}

// stripControl removes C0 and C1 control characters that models commonly
// leak into string literals.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			if r == '\n' || r == '\t' {
				return ' '
			}
			return -1
		}
		return r
	}, s)
}

// firstObject extracts the first brace-balanced object from s, or "".
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// toGuardrails flattens a decoded response into the closed guardrail
// model. The stance name keys the content-addressed ids.
func toGuardrails(source string, r response) []guardrail.Guardrail {
	var out []guardrail.Guardrail
	for _, group := range []struct {
		category string
		rails    []externalGuardrail
	}{
		{"critical", r.Guardrails.Critical},
		{"operational", r.Guardrails.Operational},
		{"ethical", r.Guardrails.Ethical},
		{"economic", r.Guardrails.Economic},
	} {
		for _, ext := range group.rails {
			if ext.Rule == "" {
				continue
			}
			t, known := guardrail.ParseType(ext.Type)
			g := guardrail.Guardrail{
				ID:          guardrail.SourceID(source, t, ext.Rule),
				Type:        t,
				Severity:    guardrail.ParseSeverity(ext.Severity),
				Rule:        ext.Rule,
				Description: ext.Description,
				Rationale:   ext.Rationale,
				Implementation: guardrail.Implementation{
					Platforms:     ext.Platforms,
					Configuration: ext.Config,
				},
			}
			if !known {
				g.RawType = ext.Type
			}
			if g.Rationale == "" {
				g.Rationale = fmt.Sprintf("proposed by %s (%s tier)", source, group.category)
			}
			out = append(out, g)
		}
	}
	return out
}
