package datasource

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/metrics"
)

// Quota headers reported by The Odds API on every successful response
const (
	HeaderRequestsUsed      = "x-requests-used"
	HeaderRequestsRemaining = "x-requests-remaining"
)

// QuotaObservation is one quota reading taken from a provider response. The
// Known flags report which headers were present; a missing header leaves its
// count at zero and must not be read as an exhausted quota.
type QuotaObservation struct {
	Label          string    `json:"label"`
	Used           int       `json:"used"`
	Remaining      int       `json:"remaining"`
	UsedKnown      bool      `json:"usedKnown"`
	RemainingKnown bool      `json:"remainingKnown"`
	At             time.Time `json:"at"`
}

// QuotaObserver receives quota telemetry. Observers must not influence control flow.
type QuotaObserver interface {
	ObserveQuota(ctx context.Context, obs QuotaObservation)
}

// Throttle is the optional predicate callers consult before issuing further calls
type Throttle interface {
	Throttled(ctx context.Context) (bool, error)
}

// ThrottleFunc adapts a function to Throttle
type ThrottleFunc func(ctx context.Context) (bool, error)

// Throttled implements Throttle
func (f ThrottleFunc) Throttled(ctx context.Context) (bool, error) {
	return f(ctx)
}

// ParseQuota reads quota headers; ok is false when neither header is usable
func ParseQuota(label string, h http.Header, now time.Time) (QuotaObservation, bool) {
	used, usedOK := headerInt(h, HeaderRequestsUsed)
	remaining, remainingOK := headerInt(h, HeaderRequestsRemaining)
	if !usedOK && !remainingOK {
		return QuotaObservation{}, false
	}
	return QuotaObservation{
		Label:          label,
		Used:           used,
		Remaining:      remaining,
		UsedKnown:      usedOK,
		RemainingKnown: remainingOK,
		At:             now,
	}, true
}

func headerInt(h http.Header, name string) (int, bool) {
	raw := strings.TrimSpace(h.Get(name))
	if raw == "" {
		return 0, false
	}
	// The provider occasionally reports fractional usage
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// QuotaObservers fans an observation out to several observers
type QuotaObservers []QuotaObserver

// ObserveQuota implements QuotaObserver
func (o QuotaObservers) ObserveQuota(ctx context.Context, obs QuotaObservation) {
	for _, observer := range o {
		if observer != nil {
			observer.ObserveQuota(ctx, obs)
		}
	}
}

// LogQuotaObserver logs every observation and exports it as Prometheus gauges
type LogQuotaObserver struct {
	logger *logrus.Entry
}

// NewLogQuotaObserver creates a logging quota observer
func NewLogQuotaObserver(logger *logrus.Logger) *LogQuotaObserver {
	return &LogQuotaObserver{logger: logger.WithField("component", "quota")}
}

// ObserveQuota implements QuotaObserver
func (o *LogQuotaObserver) ObserveQuota(_ context.Context, obs QuotaObservation) {
	fields := logrus.Fields{"label": obs.Label}
	var used, remaining *int
	if obs.UsedKnown {
		used = &obs.Used
		fields["used"] = obs.Used
	}
	if obs.RemainingKnown {
		remaining = &obs.Remaining
		fields["remaining"] = obs.Remaining
	}
	metrics.UpdateProviderQuota(used, remaining)
	o.logger.WithFields(fields).Info("Provider quota")
}
