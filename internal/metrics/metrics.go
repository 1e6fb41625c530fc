package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetrievalDegraded counts source fetches that fell back to an empty batch.
	RetrievalDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casebrief_retrieval_degraded_total",
		Help: "Source fetches degraded to an empty result, by source and reason",
	}, []string{"source", "reason"})

	RetrievalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "casebrief_retrieval_duration_seconds",
		Help:    "Source fetch latency including retries",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"source"})

	DispatchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casebrief_dispatch_outcomes_total",
		Help: "Reasoning sessions by outcome",
	}, []string{"outcome"})

	DispatchToolCalls = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "casebrief_dispatch_tool_calls",
		Help:    "Tool executions per reasoning session",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12},
	})

	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casebrief_lifecycle_transitions_total",
		Help: "Applied case transitions",
	}, []string{"from", "to", "trigger"})

	// LifecycleRejections counts duplicates and conflicts, both benign no-ops.
	LifecycleRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casebrief_lifecycle_rejections_total",
		Help: "Actions answered without a state change",
	}, []string{"reason"})

	BriefsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casebrief_briefs_generated_total",
		Help: "Briefs rendered, by audience",
	}, []string{"audience"})

	BriefFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casebrief_brief_failures_total",
		Help: "Brief generation failures, by audience",
	}, []string{"audience"})
)
