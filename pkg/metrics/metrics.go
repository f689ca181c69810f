// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RunDuration tracks assistant run duration per phase.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_run_duration_seconds",
			Help:    "Assistant run duration from start to terminal state",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"phase", "status"},
	)

	// ToolExecutionsTotal tracks dispatched tool calls.
	ToolExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_executions_total",
			Help: "Total tool calls dispatched",
		},
		[]string{"tool", "status"},
	)

	// ToolExecutionDuration tracks individual tool execution duration.
	ToolExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tool_execution_duration_seconds",
			Help:    "Tool execution duration in seconds",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"tool"},
	)

	// SQLGenerationsTotal tracks SQL generation attempts.
	SQLGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sql_generations_total",
			Help: "Total SQL statements generated from descriptions",
		},
		[]string{"backend", "status"},
	)

	// QueryExecutionsTotal tracks SQL statement executions against the store.
	QueryExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_executions_total",
			Help: "Total SQL statements executed",
		},
		[]string{"status"},
	)

	// QueryBatchSize tracks how many descriptions arrive per pipeline batch.
	QueryBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "query_pipeline_batch_size",
			Help:    "Number of descriptions per pipeline invocation",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 12, 20},
		},
	)

	// VisualizationsTotal tracks visualization attempts.
	VisualizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visualizations_total",
			Help: "Total visualization tool invocations",
		},
		[]string{"status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRun records metrics for a completed assistant run.
func RecordRun(phase, status string, duration float64) {
	RunDuration.WithLabelValues(phase, status).Observe(duration)
}

// RecordTool records metrics for one dispatched tool call.
func RecordTool(tool, status string, duration float64) {
	ToolExecutionsTotal.WithLabelValues(tool, status).Inc()
	ToolExecutionDuration.WithLabelValues(tool).Observe(duration)
}
