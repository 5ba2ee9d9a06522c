package metrics

import "github.com/prometheus/client_golang/prometheus"

// Analysis pipeline Prometheus metrics.
var (
	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentflow",
			Name:      "tasks_total",
			Help:      "Total number of queue tasks processed",
		},
		[]string{"task", "status"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "talentflow",
			Name:      "task_duration_seconds",
			Help:      "Queue task duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"task"},
	)

	GenerateRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentflow",
			Name:      "generate_requests_total",
			Help:      "Total number of generative model requests",
		},
		[]string{"kind", "status"},
	)

	GenerateRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "talentflow",
			Name:      "generate_request_duration_seconds",
			Help:      "Generative model request duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	ParseFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentflow",
			Name:      "parse_failures_total",
			Help:      "Model responses that yielded zero records after all parse fallbacks",
		},
		[]string{"stage"},
	)

	// DocumentsStuckTotal counts documents left in_progress because the
	// model response did not mention them. There is no automatic revert;
	// this counter is the operator signal to re-trigger analysis.
	DocumentsStuckTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "talentflow",
			Name:      "documents_stuck_in_progress_total",
			Help:      "Documents left in_progress after a completed analysis pass",
		},
	)

	FilterRoundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "talentflow",
			Name:      "filter_rounds_total",
			Help:      "Interactive filter rounds by mode and status",
		},
		[]string{"mode", "status"},
	)
)

var pipelineRegistered bool

// RegisterPipelineMetrics registers analysis metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineRegistered {
		return
	}
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(TaskDuration)
	prometheus.MustRegister(GenerateRequestsTotal)
	prometheus.MustRegister(GenerateRequestDuration)
	prometheus.MustRegister(ParseFailuresTotal)
	prometheus.MustRegister(DocumentsStuckTotal)
	prometheus.MustRegister(FilterRoundsTotal)
	pipelineRegistered = true
}
