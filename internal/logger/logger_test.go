package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "debug", "production")
	assert.Equal(t, logrus.DebugLevel, log.Level)
	_, isJSON := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	log = newLogger(buf, "nonsense", "development")
	assert.Equal(t, logrus.InfoLevel, log.Level)
	_, isText := log.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestIngestionLoggerSkipped(t *testing.T) {
	log, buf := setupTestLogger()
	il := NewIngestionLogger(log)

	il.LogCompetitionSkipped("odds", "soccer_epl", "rate_limit", errors.New("429"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ingestion", logEntry["component"])
	assert.Equal(t, "soccer_epl", logEntry["competition"])
	assert.Equal(t, "rate_limit", logEntry["reason"])
	assert.Equal(t, "429", logEntry["error"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestIngestionLoggerReconciliation(t *testing.T) {
	log, buf := setupTestLogger()
	il := NewIngestionLogger(log)

	il.LogReconciliation("basketball_nba", "abc123", "matched_by_ref")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "abc123", logEntry["external_id"])
	assert.Equal(t, "matched_by_ref", logEntry["outcome"])
}

func TestIngestionLoggerCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	il := NewIngestionLogger(log)

	il.LogSyncCompleted("scores", map[string]int{"created": 2}, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "scores", logEntry["kind"])
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
}

func TestForecastLoggerRun(t *testing.T) {
	log, buf := setupTestLogger()
	fl := NewForecastLogger(log)

	fl.LogForecastRun("evt-1", "user-1", 10000, 0.6, 0.5, 60.2, 20*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "forecast", logEntry["component"])
	assert.Equal(t, float64(10000), logEntry["trials"])
	assert.Equal(t, "Forecast completed", logEntry["msg"])
}
