package engine

import (
	"fmt"
	"strings"

	"github.com/railguard-ai/railguard/pkg/specialist"
)

const reasoningSourcePrefix = "reasoning:"

// lowConfidence marks a source worth an uncertainty note, on the 0..100
// proposal scale.
const lowConfidence = 50.0

// ScoreConfidence aggregates per-source confidence: half from the
// specialist mean, half from the reasoning-stance mean, each on [0,1].
// An empty side contributes zero.
func ScoreConfidence(proposals []specialist.Proposal) ConfidenceScore {
	var spec, reas []float64
	var uncertainties []string

	for _, p := range proposals {
		c := clamp01(p.Confidence / 100)
		if strings.HasPrefix(p.Source, reasoningSourcePrefix) {
			reas = append(reas, c)
		} else {
			spec = append(spec, c)
		}
		if p.Confidence == 0 {
			uncertainties = append(uncertainties, fmt.Sprintf("source %s degraded", p.Source))
		} else if p.Confidence < lowConfidence {
			uncertainties = append(uncertainties, fmt.Sprintf("source %s reported low confidence (%.0f)", p.Source, p.Confidence))
		}
	}

	score := ConfidenceScore{
		SpecialistMean: mean(spec),
		ReasoningMean:  mean(reas),
		Uncertainties:  uncertainties,
	}
	score.Overall = clamp01(0.5*score.SpecialistMean + 0.5*score.ReasoningMean)
	return score
}

// ContextComplexity is the 0..10 scalar describing how much context the
// run had to reconcile: risk bucket (0-3), regulation count bucket
// (0-3), technical complexity / 3, stakeholder bucket (0-2).
func ContextComplexity(ec *specialist.Context) float64 {
	var score float64

	switch ec.Risk.Overall {
	case "critical":
		score += 3
	case "high":
		score += 2
	case "medium":
		score += 1
	}

	switch n := len(ec.Regulatory.Applicable); {
	case n >= 3:
		score += 3
	case n == 2:
		score += 2
	case n == 1:
		score += 1
	}

	score += float64(ec.Assessment.Technical.Complexity) / 3

	switch n := len(ec.Assessment.Stakeholders.Groups); {
	case n > 3:
		score += 2
	case n > 0:
		score += 1
	}

	if score > 10 {
		score = 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
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
