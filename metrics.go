package flywheel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the process-wide Prometheus collectors for scheduler and
// registry activity.
type metrics struct {
	groupDuration *prometheus.HistogramVec
	systemErrors  *prometheus.CounterVec
	tableCount    *prometheus.GaugeVec
	queryCacheLen *prometheus.GaugeVec
}

var Metrics = newMetrics("flywheel")

func newMetrics(namespace string) *metrics {
	return &metrics{
		groupDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "group_duration_seconds",
				Help:      "Wall-clock time to execute one scheduler group.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		systemErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "system_errors_total",
				Help:      "Total number of systems that returned or panicked with an error.",
			},
			[]string{"stage", "system"},
		),
		tableCount: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "archetype_tables",
				Help:      "Number of distinct archetype tables currently held by a registry.",
			},
			[]string{"registry"},
		),
		queryCacheLen: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "query_cache_entries",
				Help:      "Number of distinct queries registered in a registry's query cache.",
			},
			[]string{"registry"},
		),
	}
}

func (m *metrics) observeGroup(stage string, seconds float64) {
	m.groupDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *metrics) countSystemError(stage, system string) {
	m.systemErrors.WithLabelValues(stage, system).Inc()
}

// Report publishes the current table count and query-cache size for r under
// label id, for callers that scrape registry-level gauges periodically.
func (m *metrics) Report(id string, r *Registry) {
	m.tableCount.WithLabelValues(id).Set(float64(r.tableCount()))
	m.queryCacheLen.WithLabelValues(id).Set(float64(r.cache.len()))
}
