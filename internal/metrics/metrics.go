// Package metrics defines prometheus instrumentation for the chatbot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Chat turn metrics
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealerchat_turns_total",
			Help: "Total chat turns processed",
		},
		[]string{"mode", "outcome"}, // mode: rag|tools, outcome: ok|error
	)

	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dealerchat_completion_duration_seconds",
			Help:    "Completion call duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Retrieval metrics
	RetrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dealerchat_retrieval_duration_seconds",
			Help:    "Hybrid search plus neighbor expansion duration",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	ChunksRetrieved = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dealerchat_chunks_retrieved",
			Help:    "Evidence chunks per expanded result set",
			Buckets: []float64{1, 2, 5, 10, 15, 25},
		},
	)

	NeighborQueryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dealerchat_neighbor_query_failures_total",
			Help: "Neighbor filter queries skipped due to errors",
		},
	)

	// Context window metrics
	Compressions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dealerchat_history_compressions_total",
			Help: "Context window compression passes",
		},
	)

	ToolDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealerchat_tool_dispatches_total",
			Help: "Model-requested tool dispatches",
		},
		[]string{"tool", "decision"}, // decision: allow|block|unknown
	)
)
