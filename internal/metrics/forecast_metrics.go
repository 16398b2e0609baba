package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ForecastsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forecasts_total",
		Help:      "Forecast runs by sport and status",
	}, []string{"sport", "status"})
	ForecastDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "forecast_duration_seconds",
		Help:      "Duration of forecast sampling in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
	})
)

// RecordForecast records a forecast run.
func RecordForecast(sport, status string, durationSeconds float64) {
	ForecastsTotal.WithLabelValues(sport, status).Inc()
	if status == "success" {
		ForecastDuration.Observe(durationSeconds)
	}
}
