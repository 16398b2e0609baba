package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion counter vectors
var (
	ReconciliationOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliation_outcomes_total",
		Help:      "Reconciliation outcomes by sync kind and outcome",
	}, []string{"kind", "outcome"})
	SyncRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Sync runs by kind and status",
	}, []string{"kind", "status"})
	CompetitionsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "competitions_skipped_total",
		Help:      "Competitions skipped during a sync by reason",
	}, []string{"kind", "reason"})
)

// SyncDuration tracks whole-run sync latency.
var SyncDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "sync_duration_seconds",
	Help:      "Duration of odds and score sync runs in seconds",
	Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
}, []string{"kind"})

// RecordReconciliation records one reconciliation outcome.
// kind is "odds" or "scores".
func RecordReconciliation(kind, outcome string) {
	ReconciliationOutcomesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordSyncRun records a finished sync run.
// status is "ok", "partial" or "cancelled".
func RecordSyncRun(kind, status string, durationSeconds float64) {
	SyncRunsTotal.WithLabelValues(kind, status).Inc()
	SyncDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordCompetitionSkipped records a competition that was not fetched.
func RecordCompetitionSkipped(kind, reason string) {
	CompetitionsSkippedTotal.WithLabelValues(kind, reason).Inc()
}
