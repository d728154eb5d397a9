// Package metrics holds the prometheus collectors of the filter pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline runs by final category
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsfilter_runs_total",
			Help: "Total number of analyzed messages by resulting category",
		},
		[]string{"category"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsfilter_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"}, // stage: stage1, stage2, translate, total
	)

	Stage2Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsfilter_stage2_attempts_total",
			Help: "Verification attempts by outcome",
		},
		[]string{"outcome"}, // outcome: success, timeout, unsupported, rate_limited, error
	)

	RecoveryStrategies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsfilter_recovery_strategy_total",
			Help: "Structured response parses by recovery strategy",
		},
		[]string{"stage", "strategy"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsfilter_fallbacks_total",
			Help: "Degraded paths taken by the pipeline",
		},
		[]string{"kind"}, // kind: stage1_synthetic, backup_sources, quick_check, final, model_downgrade
	)

	OpenAIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsfilter_openai_requests_total",
			Help: "Outbound OpenAI API requests by endpoint and HTTP status",
		},
		[]string{"endpoint", "status"},
	)

	DuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsfilter_duplicates_skipped_total",
			Help: "Inbound messages skipped because they were already seen",
		},
	)
)
