package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Write path: длительность и исход операций в ноду
	OperationDuration *prometheus.HistogramVec
	OperationsTotal   *prometheus.CounterVec

	// Read path: GraphQL запросы
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec

	// Состояние предохранителя GraphQL (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	// Sync Controller: 1 у текущего статуса поверхности
	SurfaceStatus *prometheus.GaugeVec
	RefreshTotal  *prometheus.CounterVec

	// Journal: заполненность буфера (backpressure)
	JournalBufferFill prometheus.Gauge

	RateLimited prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		OperationDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentmarket_operation_duration_seconds",
			Help:    "Histogram of node operation latencies.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"kind", "result"}),

		OperationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "agentmarket_operations_total",
			Help: "Total number of forwarded operations by outcome.",
		}, []string{"kind", "result"}), // result: success, config_error, upstream_error, transport_error

		QueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentmarket_query_duration_seconds",
			Help:    "Histogram of GraphQL query latencies.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),

		QueryErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "agentmarket_query_errors_total",
			Help: "Total number of failed GraphQL queries.",
		}, []string{"query"}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "agentmarket_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),

		SurfaceStatus: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "agentmarket_surface_status",
			Help: "Current status of a UI surface (1 on the active status).",
		}, []string{"surface", "status"}),

		RefreshTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "agentmarket_refresh_total",
			Help: "Refresh cycles by surface and result.",
		}, []string{"surface", "result"}),

		JournalBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "agentmarket_journal_buffer_utilization",
			Help: "Current number of entries in the operation journal buffer.",
		}),

		RateLimited: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "agentmarket_write_rate_limited_total",
			Help: "Write requests rejected by the rate limiter.",
		}),
	}
}
