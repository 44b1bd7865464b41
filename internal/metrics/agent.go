package metrics

import "github.com/prometheus/client_golang/prometheus"

// Language-model Prometheus metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medagent",
			Name:      "completion_requests_total",
			Help:      "Total number of language-model completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medagent",
			Name:      "completion_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medagent",
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	CompletionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medagent",
			Name:      "completion_errors_total",
			Help:      "Total completion errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	CompletionBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "medagent",
			Name:      "completion_budget_tokens_remaining",
			Help:      "Remaining token budget",
		},
		[]string{"provider", "period"},
	)
)

// Pipeline Prometheus metrics.
var (
	RouteDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medagent",
			Name:      "route_decisions_total",
			Help:      "Routing decisions by path and domain",
		},
		[]string{"path", "domain"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medagent",
			Name:      "answers_total",
			Help:      "Answers produced by outcome",
		},
		[]string{"path", "outcome"}, // outcome: answered, clarification, error
	)

	QueryExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medagent",
			Name:      "query_execution_duration_seconds",
			Help:      "Structured query execution duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"domain", "status"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medagent",
			Name:      "search_requests_total",
			Help:      "Knowledge search requests by status",
		},
		[]string{"provider", "status"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medagent",
			Name:      "search_cache_total",
			Help:      "Knowledge search cache lookups",
		},
		[]string{"result"}, // hit, miss
	)
)

var agentMetricsRegistered bool

// RegisterAgentMetrics registers the language-model and pipeline metrics. Must be called once from main.
func RegisterAgentMetrics() {
	if agentMetricsRegistered {
		return
	}
	prometheus.MustRegister(CompletionRequestsTotal)
	prometheus.MustRegister(CompletionRequestDuration)
	prometheus.MustRegister(CompletionTokensTotal)
	prometheus.MustRegister(CompletionErrorsTotal)
	prometheus.MustRegister(CompletionBudgetTokensRemaining)
	prometheus.MustRegister(RouteDecisionsTotal)
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(QueryExecutionDuration)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchCacheTotal)
	agentMetricsRegistered = true
}
