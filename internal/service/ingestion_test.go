package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/league"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/repository"
)

func newIngestionFixture(opts IngestionOptions) (*IngestionService, *fakeProvider, *repository.MemoryEventRepository, *[]time.Duration) {
	provider := newFakeProvider()
	repo := repository.NewMemoryEventRepository()
	svc := NewIngestionService(provider, repo, opts, quietLogger())
	svc.now = func() time.Time { return runAt }

	var pauses []time.Duration
	svc.pause = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return ctx.Err()
	}
	return svc, provider, repo, &pauses
}

func TestSyncOddsContinuesAfterCompetitionFailure(t *testing.T) {
	svc, provider, repo, pauses := newIngestionFixture(IngestionOptions{})
	start := runAt.Add(30 * time.Hour)

	provider.odds[league.KeyNBA] = []datasource.OddsEvent{
		h2hEvent("nba-1", league.KeyNBA, "Celtics", "Heat", start, [2]float64{-150, 130}),
		h2hEvent("nba-2", league.KeyNBA, "Knicks", "Bulls", start),
	}
	provider.errs["soccer_epl"] = datasource.NewProviderError("oddsapi", datasource.ErrCodeServerError, http.StatusBadGateway, "bad gateway", nil)
	provider.odds[league.KeyNFL] = []datasource.OddsEvent{
		h2hEvent("nfl-1", league.KeyNFL, "Patriots", "Jets", start, [2]float64{-110, -110}),
	}

	report, err := svc.SyncOdds(context.Background(), []string{league.KeyNBA, "soccer_epl", league.KeyNFL})
	require.NoError(t, err)

	assert.Equal(t, []string{"odds:basketball_nba", "odds:soccer_epl", "odds:americanfootball_nfl"}, provider.Calls())
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Dropped)
	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, []string{league.KeyNBA, league.KeyNFL}, report.Competitions)
	assert.Equal(t, []time.Duration{defaultPause, defaultPause}, *pauses)

	all, err := repo.List(context.Background(), models.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSyncOddsResolvesPrefixTokens(t *testing.T) {
	svc, provider, _, _ := newIngestionFixture(IngestionOptions{})
	provider.competitions = []datasource.Competition{
		{Key: "tennis_atp_us_open", Title: "ATP US Open"},
		{Key: "tennis_itf_men", Title: "ITF Men"},
		{Key: "tennis_wta_us_open", Title: "WTA US Open"},
	}

	_, err := svc.SyncOdds(context.Background(), []string{"tennis_", "soccer_mls"})
	require.NoError(t, err)
	assert.Equal(t, []string{"odds:tennis_atp_us_open", "odds:tennis_wta_us_open"}, provider.Calls())
}

func TestSyncOddsCatalogFailure(t *testing.T) {
	t.Run("prefix tokens need the catalog", func(t *testing.T) {
		svc, provider, _, _ := newIngestionFixture(IngestionOptions{})
		provider.catalogErr = errors.New("catalog down")

		_, err := svc.SyncOdds(context.Background(), []string{"tennis_"})
		require.Error(t, err)
		assert.Empty(t, provider.Calls())
	})

	t.Run("exact tokens continue", func(t *testing.T) {
		svc, provider, _, _ := newIngestionFixture(IngestionOptions{})
		provider.catalogErr = errors.New("catalog down")

		_, err := svc.SyncOdds(context.Background(), []string{league.KeyNBA})
		require.NoError(t, err)
		assert.Equal(t, []string{"odds:basketball_nba"}, provider.Calls())
	})
}

func TestSyncOddsThrottled(t *testing.T) {
	throttle := datasource.ThrottleFunc(func(ctx context.Context) (bool, error) { return true, nil })
	svc, provider, _, _ := newIngestionFixture(IngestionOptions{Throttle: throttle})

	report, err := svc.SyncOdds(context.Background(), []string{league.KeyNBA, league.KeyNFL})
	require.NoError(t, err)
	assert.Empty(t, provider.Calls())
	assert.Equal(t, 2, report.Skipped)
}

func TestSyncOddsThrottleErrorDoesNotBlock(t *testing.T) {
	throttle := datasource.ThrottleFunc(func(ctx context.Context) (bool, error) { return false, errors.New("redis down") })
	svc, provider, _, _ := newIngestionFixture(IngestionOptions{Throttle: throttle})

	report, err := svc.SyncOdds(context.Background(), []string{league.KeyNBA})
	require.NoError(t, err)
	assert.Len(t, provider.Calls(), 1)
	assert.Zero(t, report.Skipped)
}

func TestSyncOddsCancellationKeepsCommittedWork(t *testing.T) {
	svc, provider, repo, _ := newIngestionFixture(IngestionOptions{})
	provider.odds[league.KeyNBA] = []datasource.OddsEvent{
		h2hEvent("nba-1", league.KeyNBA, "Celtics", "Heat", runAt.Add(time.Hour), [2]float64{-150, 130}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.pause = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	report, err := svc.SyncOdds(ctx, []string{league.KeyNBA, league.KeyNFL})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"odds:basketball_nba"}, provider.Calls())
	assert.Equal(t, 1, report.Created)

	all, err := repo.List(context.Background(), models.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNegativePauseDisablesWait(t *testing.T) {
	provider := newFakeProvider()
	svc := NewIngestionService(provider, repository.NewMemoryEventRepository(), IngestionOptions{Pause: -1}, quietLogger())

	began := time.Now()
	_, err := svc.SyncOdds(context.Background(), []string{league.KeyNBA, league.KeyNFL, "soccer_epl"})
	require.NoError(t, err)
	assert.Less(t, time.Since(began), defaultPause)
	assert.Len(t, provider.Calls(), 3)
}

func TestScoreKeysDiscovery(t *testing.T) {
	svc, _, repo, _ := newIngestionFixture(IngestionOptions{})
	ctx := context.Background()

	insert := func(sport models.Sport, key string, ago time.Duration) {
		require.NoError(t, repo.Insert(ctx, &models.Event{
			Sport:     sport,
			LeagueKey: key,
			HomeTeam:  "Home " + key,
			AwayTeam:  "Away " + key,
			StartTime: runAt.Add(-ago),
		}))
	}
	insert(models.SportNFL, league.KeyNFL, 12*time.Hour)
	insert(models.SportSoccer, "soccer_epl", 24*time.Hour)
	insert(models.SportSoccer, "soccer_usa_mls", 24*time.Hour)
	insert(models.SportTennis, "tennis_atp_us_open", 36*time.Hour)
	insert(models.SportNBA, league.KeyNBA, 5*24*time.Hour)

	keys, err := svc.ScoreKeys(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{league.KeyNFL, "soccer_epl", "tennis_atp_us_open"}, keys)
}

func TestSyncScores(t *testing.T) {
	svc, provider, repo, _ := newIngestionFixture(IngestionOptions{})
	ctx := context.Background()

	start := runAt.Add(2 * time.Hour)
	provider.scores[league.KeyNBA] = []datasource.ScoreUpdate{
		scoreUpdate("nba-1", league.KeyNBA, "Celtics", "Heat", start, 60, 58, false),
		scoreUpdate("nba-2", league.KeyNBA, "Knicks", "Bulls", runAt.Add(-72*time.Hour), 99, 90, true),
	}
	provider.scores["soccer_epl"] = []datasource.ScoreUpdate{
		scoreUpdate("epl-1", "soccer_epl", "Arsenal", "Spurs", start, 1, 0, false),
	}

	report, err := svc.SyncScores(ctx, ScoreSyncOptions{
		Keys:    []string{league.KeyNBA, "soccer_epl"},
		Exclude: []string{"soccer_epl"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"scores:basketball_nba"}, provider.Calls())
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Dropped)
	assert.Equal(t, map[string]int{"in_progress": 1, "completed": 1}, report.Statuses)

	all, err := repo.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Celtics", all[0].HomeTeam)
}

func TestSyncScoresExplicitKeysHonourAllowlist(t *testing.T) {
	svc, provider, repo, _ := newIngestionFixture(IngestionOptions{})
	ctx := context.Background()

	provider.scores["soccer_brazil_campeonato"] = []datasource.ScoreUpdate{
		scoreUpdate("br-1", "soccer_brazil_campeonato", "Flamengo", "Santos", runAt.Add(2*time.Hour), 1, 0, false),
	}

	report, err := svc.SyncScores(ctx, ScoreSyncOptions{Keys: []string{"soccer_brazil_campeonato"}})
	require.NoError(t, err)
	assert.Empty(t, provider.Calls())
	assert.Zero(t, report.Written())

	all, err := repo.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSyncScoresNothingToFetch(t *testing.T) {
	svc, provider, _, _ := newIngestionFixture(IngestionOptions{})

	report, err := svc.SyncScores(context.Background(), ScoreSyncOptions{})
	require.NoError(t, err)
	assert.Empty(t, provider.Calls())
	assert.Zero(t, report.Written())
}

func TestFailureReason(t *testing.T) {
	err := datasource.NewProviderError("oddsapi", datasource.ErrCodeRateLimitExceeded, 429, "slow down", nil)
	assert.Equal(t, datasource.ErrCodeRateLimitExceeded, failureReason(err))
	assert.Equal(t, "error", failureReason(errors.New("boom")))
}
