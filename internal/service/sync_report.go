package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Sync kinds used in reports, logs and metric labels
const (
	SyncKindOdds   = "odds"
	SyncKindScores = "scores"
)

// SyncReport tracks statistics about one sync run
type SyncReport struct {
	mu           sync.RWMutex
	Kind         string
	StartTime    time.Time
	Duration     time.Duration
	Competitions []string
	Fetched      int
	Upserted     int
	Matched      int
	Created      int
	Dropped      int
	Skipped      int
	Failed       int
	Errors       int
	Statuses     map[string]int
}

// NewSyncReport creates a report for a run starting at start
func NewSyncReport(kind string, start time.Time) *SyncReport {
	return &SyncReport{
		Kind:      kind,
		StartTime: start,
		Statuses:  make(map[string]int),
	}
}

// RecordOutcome counts one reconciled provider record
func (r *SyncReport) RecordOutcome(o ReconcileOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch o {
	case OutcomeMatchedByRef, OutcomeMatchedByWindow:
		r.Matched++
	case OutcomeCreated:
		r.Created++
	case OutcomeUpserted:
		r.Upserted++
	default:
		r.Dropped++
	}
}

// RecordCompetition records a competition that was fetched
func (r *SyncReport) RecordCompetition(key string, fetched int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Competitions = append(r.Competitions, key)
	r.Fetched += fetched
}

// RecordStatus counts a provider-reported event status
func (r *SyncReport) RecordStatus(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Statuses[status]++
}

// RecordSkipped increments the skipped competition count
func (r *SyncReport) RecordSkipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped++
}

// RecordFailed increments the failed competition count
func (r *SyncReport) RecordFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed++
}

// RecordError counts a record that could not be written
func (r *SyncReport) RecordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors++
}

// Finish stamps the run duration
func (r *SyncReport) Finish(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duration = now.Sub(r.StartTime)
}

// Written is the number of records inserted or updated
func (r *SyncReport) Written() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Upserted + r.Matched + r.Created
}

// Counts returns the counters as a map for structured logging
func (r *SyncReport) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]int{
		"competitions": len(r.Competitions),
		"fetched":      r.Fetched,
		"upserted":     r.Upserted,
		"matched":      r.Matched,
		"created":      r.Created,
		"dropped":      r.Dropped,
		"skipped":      r.Skipped,
		"failed":       r.Failed,
		"errors":       r.Errors,
	}
}

// String returns a formatted string representation of the report
func (r *SyncReport) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]string, 0, len(r.Statuses))
	for s, n := range r.Statuses {
		statuses = append(statuses, fmt.Sprintf("%s=%d", s, n))
	}
	sort.Strings(statuses)

	return fmt.Sprintf(
		"SyncReport{Kind=%s, Competitions=%d, Fetched=%d, Upserted=%d, Matched=%d, Created=%d, Dropped=%d, Skipped=%d, Failed=%d, Errors=%d, Statuses=[%s], Duration=%v}",
		r.Kind,
		len(r.Competitions),
		r.Fetched,
		r.Upserted,
		r.Matched,
		r.Created,
		r.Dropped,
		r.Skipped,
		r.Failed,
		r.Errors,
		strings.Join(statuses, " "),
		r.Duration,
	)
}
