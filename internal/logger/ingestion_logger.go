package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// IngestionLogger provides dedicated logging for odds and score syncs.
type IngestionLogger struct {
	*logrus.Entry
}

// NewIngestionLogger creates a new ingestion logger.
func NewIngestionLogger(baseLogger *logrus.Logger) *IngestionLogger {
	return &IngestionLogger{
		Entry: baseLogger.WithField("component", "ingestion"),
	}
}

// LogSyncStarted logs the start of a sync run.
func (il *IngestionLogger) LogSyncStarted(kind string, keys []string) {
	il.WithFields(logrus.Fields{
		"kind":         kind,
		"competitions": keys,
		"count":        len(keys),
	}).Info("Sync started")
}

// LogCompetitionSkipped logs a competition that was not fetched.
func (il *IngestionLogger) LogCompetitionSkipped(kind, key, reason string, err error) {
	entry := il.WithFields(logrus.Fields{
		"kind":        kind,
		"competition": key,
		"reason":      reason,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("Competition skipped")
}

// LogCompetitionSynced logs the per-competition result of a sync.
func (il *IngestionLogger) LogCompetitionSynced(kind, key string, fetched, written int) {
	il.WithFields(logrus.Fields{
		"kind":        kind,
		"competition": key,
		"fetched":     fetched,
		"written":     written,
	}).Info("Competition synced")
}

// LogReconciliation logs the outcome of reconciling one provider event.
func (il *IngestionLogger) LogReconciliation(key, externalID, outcome string) {
	il.WithFields(logrus.Fields{
		"competition": key,
		"external_id": externalID,
		"outcome":     outcome,
	}).Debug("Event reconciled")
}

// LogSyncCompleted logs totals for a finished sync run.
func (il *IngestionLogger) LogSyncCompleted(kind string, counts map[string]int, duration time.Duration) {
	il.WithFields(logrus.Fields{
		"kind":        kind,
		"counts":      counts,
		"duration_ms": duration.Milliseconds(),
	}).Info("Sync completed")
}
