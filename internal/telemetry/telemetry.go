// Package telemetry registers the engine's Prometheus collectors. The
// metrics endpoint itself is mounted by the HTTP server.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's collectors. Use New; it registers against
// the default registry exactly once.
type Metrics struct {
	DiscoveryCalls    prometheus.Counter
	DiscoveryDuration prometheus.Histogram
	ProviderQueries   *prometheus.CounterVec
	ExpansionRequests *prometheus.CounterVec
	ResultsReturned   prometheus.Histogram
}

var (
	once     sync.Once
	instance *Metrics
)

// New returns the process-wide Metrics instance.
func New() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			DiscoveryCalls: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "opportunity_discovery_calls_total",
				Help: "Number of discovery calls handled.",
			}),
			DiscoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "opportunity_discovery_duration_seconds",
				Help:    "End-to-end duration of discovery calls.",
				Buckets: prometheus.DefBuckets,
			}),
			ProviderQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "opportunity_provider_queries_total",
				Help: "Search provider queries by provider and outcome.",
			}, []string{"provider", "outcome"}),
			ExpansionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "opportunity_expansion_requests_total",
				Help: "Query expansion attempts by outcome.",
			}, []string{"outcome"}),
			ResultsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "opportunity_results_returned",
				Help:    "Opportunities returned per discovery call.",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			}),
		}
		prometheus.MustRegister(
			instance.DiscoveryCalls,
			instance.DiscoveryDuration,
			instance.ProviderQueries,
			instance.ExpansionRequests,
			instance.ResultsReturned,
		)
	})
	return instance
}

// ObserveDiscovery records one discovery call.
func (m *Metrics) ObserveDiscovery(d time.Duration, results int) {
	if m == nil {
		return
	}
	m.DiscoveryCalls.Inc()
	m.DiscoveryDuration.Observe(d.Seconds())
	m.ResultsReturned.Observe(float64(results))
}

// ObserveExpansion records one expansion attempt.
func (m *Metrics) ObserveExpansion(used bool) {
	if m == nil {
		return
	}
	outcome := "fallback"
	if used {
		outcome = "used"
	}
	m.ExpansionRequests.WithLabelValues(outcome).Inc()
}

// ObserveProviderQueries records the per-query outcomes of one fan-out
// against the named provider.
func (m *Metrics) ObserveProviderQueries(provider string, ok, failed int) {
	if m == nil {
		return
	}
	if ok > 0 {
		m.ProviderQueries.WithLabelValues(provider, "ok").Add(float64(ok))
	}
	if failed > 0 {
		m.ProviderQueries.WithLabelValues(provider, "error").Add(float64(failed))
	}
}
