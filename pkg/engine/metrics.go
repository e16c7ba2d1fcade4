package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// runsTotal counts completed pipeline runs by terminal phase.
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railguard_runs_total",
			Help: "Total pipeline runs by terminal phase",
		},
		[]string{"phase"},
	)

	// runDuration tracks end-to-end run latency.
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "railguard_run_duration_seconds",
			Help:    "End-to-end pipeline run duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	// proposalsDegraded counts degraded proposal slots by source.
	proposalsDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railguard_proposals_degraded_total",
			Help: "Proposal tasks that failed, timed out or panicked",
		},
		[]string{"source"},
	)

	// conflictsDetected counts detected conflicts by kind.
	conflictsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railguard_conflicts_total",
			Help: "Detected guardrail conflicts by kind",
		},
		[]string{"kind"},
	)

	// confidenceScore reports the last run's overall confidence.
	confidenceScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "railguard_confidence_score",
			Help: "Overall confidence of the most recent run",
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(proposalsDegraded)
	prometheus.MustRegister(conflictsDetected)
	prometheus.MustRegister(confidenceScore)
}
