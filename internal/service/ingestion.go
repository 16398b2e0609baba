package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/league"
	"github.com/yourusername/sports-sims/internal/logger"
	"github.com/yourusername/sports-sims/internal/metrics"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/repository"
)

const (
	defaultPause        = 350 * time.Millisecond
	defaultLookbackDays = 2
)

// IngestionOptions configures an IngestionService
type IngestionOptions struct {
	PreferredBookmaker string
	// Pause is the blocking wait between competitions; zero means 350ms, negative disables it
	Pause        time.Duration
	LookbackDays int
	// Throttle is consulted before every competition fetch; nil disables it
	Throttle datasource.Throttle
}

// ScoreSyncOptions selects the competitions of a score sync. Empty Keys
// discovers them from the catalog.
type ScoreSyncOptions struct {
	Keys         []string
	Include      []string
	Exclude      []string
	LookbackDays int
}

// IngestionService drives odds and score syncs one competition at a time
type IngestionService struct {
	provider   datasource.Provider
	events     repository.EventRepository
	reconciler *EventReconciler
	opts       IngestionOptions
	log        *logger.IngestionLogger
	now        func() time.Time
	pause      func(ctx context.Context, d time.Duration) error
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	provider datasource.Provider,
	events repository.EventRepository,
	opts IngestionOptions,
	log *logrus.Logger,
) *IngestionService {
	if opts.Pause == 0 {
		opts.Pause = defaultPause
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = defaultLookbackDays
	}

	return &IngestionService{
		provider:   provider,
		events:     events,
		reconciler: NewEventReconciler(events, log),
		opts:       opts,
		log:        logger.NewIngestionLogger(log),
		now:        time.Now,
		pause:      sleepContext,
	}
}

// Reconciler exposes the service's reconciler
func (s *IngestionService) Reconciler() *EventReconciler {
	return s.reconciler
}

// SyncOdds resolves tokens into competition keys and upserts every event with
// a usable moneyline. A failing competition is logged and the batch continues.
// Cancellation stops before the next competition; earlier writes stay committed.
func (s *IngestionService) SyncOdds(ctx context.Context, tokens []string) (*SyncReport, error) {
	start := s.now()
	report := NewSyncReport(SyncKindOdds, start)

	competitions, err := s.provider.ListCompetitions(ctx, true)
	if err != nil {
		if league.NeedsCatalog(tokens) {
			return report, fmt.Errorf("list competitions: %w", err)
		}
		s.log.WithError(err).Warn("Competition catalog unavailable, continuing without titles")
	}

	keys := league.ResolveKeys(tokens, competitions)
	if len(keys) == 0 {
		s.log.WithField("tokens", tokens).Warn("No competition keys matched")
		return s.finish(report, nil), nil
	}

	batch := NewBatchContext(s.provider.Name(), competitions, s.opts.PreferredBookmaker, start)
	runErr := s.eachCompetition(ctx, report, keys, func(key string) (int, error) {
		events, err := s.provider.FetchOdds(ctx, key, datasource.OddsFilter{})
		if err != nil {
			return 0, err
		}
		for _, ev := range events {
			outcome, err := s.reconciler.ReconcileOdds(ctx, ev, batch)
			s.record(report, outcome, err, ev.ID)
		}
		return len(events), nil
	})
	return s.finish(report, runErr), runErr
}

// SyncScores applies provider scores to stored events
func (s *IngestionService) SyncScores(ctx context.Context, opts ScoreSyncOptions) (*SyncReport, error) {
	start := s.now()
	report := NewSyncReport(SyncKindScores, start)

	lookback := opts.LookbackDays
	if lookback <= 0 {
		lookback = s.opts.LookbackDays
	}

	keys := opts.Keys
	if len(keys) == 0 {
		discovered, err := s.ScoreKeys(ctx, lookback)
		if err != nil {
			return report, err
		}
		keys = discovered
	}
	keys = league.FilterKeys(keys, opts.Include, opts.Exclude)
	keys = s.dropBlocked(keys)
	if len(keys) == 0 {
		s.log.Info("No competition keys to fetch after filtering")
		return s.finish(report, nil), nil
	}

	batch := NewBatchContext(s.provider.Name(), nil, s.opts.PreferredBookmaker, start)
	runErr := s.eachCompetition(ctx, report, keys, func(key string) (int, error) {
		updates, err := s.provider.FetchScores(ctx, key, lookback)
		if err != nil {
			return 0, err
		}
		for _, u := range updates {
			report.RecordStatus(string(u.Status))
			outcome, err := s.reconciler.ReconcileScore(ctx, u, batch)
			s.record(report, outcome, err, u.ID)
		}
		return len(updates), nil
	})
	return s.finish(report, runErr), runErr
}

// dropBlocked removes explicitly named keys outside the league allowlist
func (s *IngestionService) dropBlocked(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if league.Blocked(k) {
			s.log.LogCompetitionSkipped(SyncKindScores, k, "not_allowed", nil)
			continue
		}
		out = append(out, k)
	}
	return out
}

// ScoreKeys discovers competitions with stored events starting within the
// lookback window: admitted league keys plus NBA and NFL when present.
func (s *IngestionService) ScoreKeys(ctx context.Context, lookbackDays int) ([]string, error) {
	since := s.now().Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	leagues, err := s.events.DistinctLeagues(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("discover score keys: %w", err)
	}

	var keys []string
	for _, top := range []struct {
		sport models.Sport
		key   string
	}{
		{models.SportNBA, league.KeyNBA},
		{models.SportNFL, league.KeyNFL},
	} {
		ok, err := s.events.SportExists(ctx, top.sport, since)
		if err != nil {
			return nil, fmt.Errorf("discover score keys: %w", err)
		}
		if ok {
			keys = append(keys, top.key)
		}
	}
	for _, k := range leagues {
		if league.IsAllowed(k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *IngestionService) eachCompetition(ctx context.Context, report *SyncReport, keys []string, sync func(key string) (int, error)) error {
	kind := report.Kind
	s.log.LogSyncStarted(kind, keys)

	for i, key := range keys {
		if i > 0 {
			if err := s.pause(ctx, s.opts.Pause); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.throttled(ctx) {
			report.RecordSkipped()
			metrics.RecordCompetitionSkipped(kind, "throttled")
			s.log.LogCompetitionSkipped(kind, key, "throttled", nil)
			continue
		}

		n, err := sync(key)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			reason := failureReason(err)
			report.RecordFailed()
			metrics.RecordCompetitionSkipped(kind, reason)
			s.log.LogCompetitionSkipped(kind, key, reason, err)
			continue
		}
		report.RecordCompetition(key, n)
		s.log.LogCompetitionSynced(kind, key, n, report.Written())
	}
	return nil
}

func (s *IngestionService) record(report *SyncReport, outcome ReconcileOutcome, err error, id string) {
	if err != nil {
		report.RecordError()
		metrics.RecordReconciliation(report.Kind, "error")
		s.log.WithError(err).WithField("external_id", id).Error("Failed to reconcile event")
		return
	}
	report.RecordOutcome(outcome)
	metrics.RecordReconciliation(report.Kind, outcome.String())
}

// throttled consults the optional predicate; predicate errors never block a sync
func (s *IngestionService) throttled(ctx context.Context) bool {
	if s.opts.Throttle == nil {
		return false
	}
	throttled, err := s.opts.Throttle.Throttled(ctx)
	if err != nil {
		s.log.WithError(err).Debug("Throttle check failed")
		return false
	}
	return throttled
}

func (s *IngestionService) finish(report *SyncReport, runErr error) *SyncReport {
	report.Finish(s.now())

	status := "ok"
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		status = "cancelled"
	case report.Failed > 0 || report.Errors > 0:
		status = "partial"
	}
	metrics.RecordSyncRun(report.Kind, status, report.Duration.Seconds())
	s.log.LogSyncCompleted(report.Kind, report.Counts(), report.Duration)
	return report
}

func failureReason(err error) string {
	var pe *datasource.ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return "error"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
