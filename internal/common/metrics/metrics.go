// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	AgentIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_iterations",
			Help:    "Model round-trips per agent run",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
		[]string{"agent", "outcome"},
	)

	AgentForcedOutput = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_forced_output_total",
			Help: "Runs in which the final-output nudge was appended",
		},
		[]string{"agent"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Latency of Anthropic Messages API calls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9),
		},
		[]string{"model", "status"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Tokens reported by the Anthropic API",
		},
		[]string{"model", "direction"},
	)

	LLMOverloadRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "llm_overload_retries_total",
			Help: "Retries after HTTP 529 responses",
		},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Research tool invocations",
		},
		[]string{"tool", "status"},
	)

	SlackMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slack_messages_total",
			Help: "Slack deliveries by target and status",
		},
		[]string{"target", "status"},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Background jobs waiting for a worker",
		},
	)

	DispatchRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_rejected_total",
			Help: "Requests not queued",
		},
		[]string{"reason"},
	)
)
