// Package metrics provides the centralized Prometheus metrics registry for sports-sims.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sports_sims"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Provider metrics
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Total number of provider requests by endpoint label and status",
	}, []string{"endpoint", "status"})
	ProviderRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_retries_total",
		Help:      "Total number of provider request retries",
	})
	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of provider requests including retries",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"endpoint"})
	ProviderQuotaUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "provider_quota_used",
		Help:      "Provider requests used in the current quota period",
	})
	ProviderQuotaRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "provider_quota_remaining",
		Help:      "Provider requests remaining in the current quota period",
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ProviderRequestsTotal)
		registry.MustRegister(ProviderRetriesTotal)
		registry.MustRegister(ProviderRequestDuration)
		registry.MustRegister(ProviderQuotaUsed)
		registry.MustRegister(ProviderQuotaRemaining)

		registry.MustRegister(ReconciliationOutcomesTotal)
		registry.MustRegister(SyncRunsTotal)
		registry.MustRegister(SyncDuration)
		registry.MustRegister(CompetitionsSkippedTotal)

		registry.MustRegister(ForecastsTotal)
		registry.MustRegister(ForecastDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordProviderRequest records one provider call.
func RecordProviderRequest(endpoint, status string, durationSeconds float64) {
	ProviderRequestsTotal.WithLabelValues(endpoint, status).Inc()
	ProviderRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordProviderRetry records a retried provider attempt.
func RecordProviderRetry() {
	ProviderRetriesTotal.Inc()
}

// UpdateProviderQuota sets the quota gauges from the last response. A nil
// reading leaves its gauge at the previous value.
func UpdateProviderQuota(used, remaining *int) {
	if used != nil {
		ProviderQuotaUsed.Set(float64(*used))
	}
	if remaining != nil {
		ProviderQuotaRemaining.Set(float64(*remaining))
	}
}
