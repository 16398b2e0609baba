package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sports-sims/internal/service"
)

type fakeSyncer struct {
	mu         sync.Mutex
	oddsTokens [][]string
	scoreOpts  []service.ScoreSyncOptions
	err        error
	block      chan struct{}
}

func (f *fakeSyncer) SyncOdds(ctx context.Context, tokens []string) (*service.SyncReport, error) {
	f.mu.Lock()
	f.oddsTokens = append(f.oddsTokens, tokens)
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return service.NewSyncReport(service.SyncKindOdds, time.Now()), f.err
}

func (f *fakeSyncer) SyncScores(ctx context.Context, opts service.ScoreSyncOptions) (*service.SyncReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scoreOpts = append(f.scoreOpts, opts)
	return service.NewSyncReport(service.SyncKindScores, time.Now()), f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestScheduleAndStart(t *testing.T) {
	s := NewScheduler(&fakeSyncer{}, quietLogger())

	require.Error(t, s.Start(), "no jobs scheduled")
	require.NoError(t, s.ScheduleOddsSync("*/10 * * * *", []string{"basketball_nba"}))
	require.NoError(t, s.ScheduleScoreSync("@every 5m", service.ScoreSyncOptions{LookbackDays: 2}))
	require.Error(t, s.ScheduleOddsSync("not a schedule", nil))

	assert.True(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Len(t, s.Entries(), 2)
	assert.False(t, s.GetNextRun().IsZero())

	require.Error(t, s.Start())
	require.Error(t, s.ScheduleOddsSync("@hourly", nil))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())
}

func TestJobsCallSyncer(t *testing.T) {
	syncer := &fakeSyncer{}
	s := NewScheduler(syncer, quietLogger())

	s.oddsJob([]string{"soccer_", "basketball_nba"})()
	s.scoreJob(service.ScoreSyncOptions{Exclude: []string{"soccer_epl"}})()

	require.Len(t, syncer.oddsTokens, 1)
	assert.Equal(t, []string{"soccer_", "basketball_nba"}, syncer.oddsTokens[0])
	require.Len(t, syncer.scoreOpts, 1)
	assert.Equal(t, []string{"soccer_epl"}, syncer.scoreOpts[0].Exclude)
}

func TestJobFailureIsLogged(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("provider down")}
	s := NewScheduler(syncer, quietLogger())

	assert.NotPanics(t, func() { s.oddsJob(nil)() })
}

func TestStopCancelsRunningSync(t *testing.T) {
	syncer := &fakeSyncer{block: make(chan struct{})}
	s := NewScheduler(syncer, quietLogger())
	require.NoError(t, s.ScheduleOddsSync("@every 1s", []string{"basketball_nba"}))
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		syncer.mu.Lock()
		defer syncer.mu.Unlock()
		return len(syncer.oddsTokens) > 0
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Stop())
}
