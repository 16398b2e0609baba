package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ForecastLogger provides dedicated logging for forecast runs.
type ForecastLogger struct {
	*logrus.Entry
}

// NewForecastLogger creates a new forecast logger.
func NewForecastLogger(baseLogger *logrus.Logger) *ForecastLogger {
	return &ForecastLogger{
		Entry: baseLogger.WithField("component", "forecast"),
	}
}

// LogForecastRun logs a completed forecast.
func (fl *ForecastLogger) LogForecastRun(eventID, userID string, trials int, baseP, recentP, homeWinPct float64, duration time.Duration) {
	fl.WithFields(logrus.Fields{
		"event_id":     eventID,
		"user_id":      userID,
		"trials":       trials,
		"base_p":       baseP,
		"recent_p":     recentP,
		"home_win_pct": homeWinPct,
		"duration_ms":  duration.Milliseconds(),
	}).Info("Forecast completed")
}

// LogForecastFailed logs a forecast that could not be produced.
func (fl *ForecastLogger) LogForecastFailed(eventID string, err error) {
	fl.WithFields(logrus.Fields{
		"event_id": eventID,
	}).WithError(err).Warn("Forecast failed")
}
