// Package scheduler runs odds and score syncs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/service"
)

// Syncer is the part of the ingestion service the scheduler drives
type Syncer interface {
	SyncOdds(ctx context.Context, tokens []string) (*service.SyncReport, error)
	SyncScores(ctx context.Context, opts service.ScoreSyncOptions) (*service.SyncReport, error)
}

// Scheduler manages scheduled sync jobs
type Scheduler struct {
	cron            *cron.Cron
	syncer          Syncer
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	baseCtx         context.Context
	cancel          context.CancelFunc
}

// NewScheduler creates a new scheduler. A job still running when its next
// tick fires is not started twice.
func NewScheduler(syncer Syncer, logger *logrus.Logger) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(entry))),
		),
		syncer:          syncer,
		logger:          entry,
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      30 * time.Minute,
		gracefulTimeout: 30 * time.Second,
		baseCtx:         ctx,
		cancel:          cancel,
	}
}

// ScheduleOddsSync schedules an odds sync over the configured tokens
func (s *Scheduler) ScheduleOddsSync(cronExpression string, tokens []string) error {
	return s.add(cronExpression, "odds_sync", s.oddsJob(tokens))
}

// ScheduleScoreSync schedules a score sync
func (s *Scheduler) ScheduleScoreSync(cronExpression string, opts service.ScoreSyncOptions) error {
	return s.add(cronExpression, "score_sync", s.scoreJob(opts))
}

func (s *Scheduler) add(cronExpression, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, job)
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{"job": name, "schedule": cronExpression}).Info("Scheduled job")
	return nil
}

func (s *Scheduler) oddsJob(tokens []string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.baseCtx, s.jobTimeout)
		defer cancel()

		report, err := s.syncer.SyncOdds(ctx, tokens)
		s.logRun("odds_sync", report, err)
	}
}

func (s *Scheduler) scoreJob(opts service.ScoreSyncOptions) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.baseCtx, s.jobTimeout)
		defer cancel()

		report, err := s.syncer.SyncScores(ctx, opts)
		s.logRun("score_sync", report, err)
	}
}

func (s *Scheduler) logRun(job string, report *service.SyncReport, err error) {
	entry := s.logger.WithField("job", job)
	if err != nil {
		entry.WithError(err).Error("Scheduled sync failed")
		return
	}
	if report != nil {
		entry.Infof("Scheduled sync completed: %s", report.String())
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops scheduling and cancels running syncs, waiting up to the graceful
// timeout for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	done := s.cron.Stop().Done()
	s.cancel()
	s.isRunning = false

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
