package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(checks map[string]Pinger, metrics http.Handler) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(Config{
		ServiceName: "data-ingestion",
		Version:     "1.2.3",
		Logger:      log,
		Checks:      checks,
		Metrics:     metrics,
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	router := newTestServer(nil, nil).Router()

	rec := get(t, router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.NotEmpty(t, body.Timestamp)

	rec = get(t, router, "/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness(t *testing.T) {
	var dbErr error
	checks := map[string]Pinger{
		"database": PingFunc(func(ctx context.Context) error { return dbErr }),
	}
	srv := newTestServer(checks, nil)
	router := srv.Router()

	rec := get(t, router, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready until marked")

	srv.SetReady(true)
	rec = get(t, router, "/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"service": "ok", "database": "ok"}, body.Checks)

	dbErr = errors.New("connection refused")
	rec = get(t, router, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "error: connection refused", body.Checks["database"])
}

func TestMetricsMount(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	rec := get(t, newTestServer(nil, metrics).Router(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())

	rec = get(t, newTestServer(nil, nil).Router(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShutdownWithoutStart(t *testing.T) {
	assert.NoError(t, newTestServer(nil, nil).Shutdown())
}
