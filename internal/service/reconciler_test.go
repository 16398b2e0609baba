package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/league"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/repository"
)

var runAt = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newReconcilerFixture() (*EventReconciler, *repository.MemoryEventRepository, BatchContext) {
	repo := repository.NewMemoryEventRepository()
	batch := NewBatchContext(models.ProviderOddsAPI, []datasource.Competition{
		{Key: "soccer_epl", Group: "Soccer", Title: "EPL"},
	}, "", runAt)
	return NewEventReconciler(repo, quietLogger()), repo, batch
}

func TestReconcileScoreCreatesTodayEventOnce(t *testing.T) {
	r, repo, batch := newReconcilerFixture()
	ctx := context.Background()
	start := runAt.Add(7 * time.Hour)

	u := scoreUpdate("evt-1", league.KeyNBA, "Celtics", "Heat", start, 54, 50, false)
	outcome, err := r.ReconcileScore(ctx, u, batch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	u.Score = models.Score{Home: intPtr(101), Away: intPtr(99)}
	u.Completed, u.Status = true, models.EventStatusCompleted
	outcome, err = r.ReconcileScore(ctx, u, batch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMatchedByRef, outcome)

	all, err := repo.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	ev := all[0]
	assert.Equal(t, models.SportNBA, ev.Sport)
	assert.Equal(t, "Basketball Nba", ev.LeagueTitle)
	assert.True(t, ev.Completed)
	assert.Equal(t, 101, *ev.Score.Home)
	require.NotNil(t, ev.Ext)
	assert.Equal(t, models.ExternalRef{Provider: models.ProviderOddsAPI, ID: "evt-1"}, *ev.Ext)
}

func TestReconcileScoreMatchesSeededEventByWindow(t *testing.T) {
	r, repo, batch := newReconcilerFixture()
	ctx := context.Background()

	seeded := &models.Event{
		ID:        uuid.New(),
		Sport:     models.SportSoccer,
		LeagueKey: "soccer_epl",
		HomeTeam:  "Arsenal",
		AwayTeam:  "Spurs",
		StartTime: runAt.Add(-20 * time.Hour),
		Status:    models.EventStatusScheduled,
	}
	require.NoError(t, repo.Insert(ctx, seeded))

	u := scoreUpdate("evt-2", "soccer_epl", "Arsenal", "Spurs", runAt.Add(3*time.Hour), 2, 1, true)
	outcome, err := r.ReconcileScore(ctx, u, batch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMatchedByWindow, outcome)

	got, err := repo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, 2, *got.Score.Home)
	assert.Equal(t, 1, *got.Score.Away)
	assert.Equal(t, seeded.StartTime, got.StartTime, "identity fields are left alone")
	assert.Nil(t, got.Ext)
}

func TestReconcileScoreOutsideWindowAndNotToday(t *testing.T) {
	r, repo, batch := newReconcilerFixture()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.Event{
		Sport:     models.SportNFL,
		LeagueKey: league.KeyNFL,
		HomeTeam:  "Patriots",
		AwayTeam:  "Jets",
		StartTime: runAt.Add(-72 * time.Hour),
	}))

	u := scoreUpdate("evt-3", league.KeyNFL, "Patriots", "Jets", runAt.Add(-25*time.Hour), 21, 17, true)
	outcome, err := r.ReconcileScore(ctx, u, batch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoMatch, outcome)

	all, err := repo.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Nil(t, all[0].Score.Home)
}

func TestReconcileScoreUnknownMapping(t *testing.T) {
	r, repo, batch := newReconcilerFixture()

	u := scoreUpdate("evt-4", "icehockey_nhl", "Bruins", "Rangers", runAt.Add(time.Hour), 1, 0, false)
	outcome, err := r.ReconcileScore(context.Background(), u, batch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownMapping, outcome)

	all, err := repo.List(context.Background(), models.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReconcileBlockedLeagueTouchesNothing(t *testing.T) {
	r, repo, batch := newReconcilerFixture()
	ctx := context.Background()
	start := runAt.Add(2 * time.Hour)

	seeded := &models.Event{
		Sport:     models.SportSoccer,
		LeagueKey: "soccer_brazil_campeonato",
		HomeTeam:  "Flamengo",
		AwayTeam:  "Santos",
		StartTime: start,
	}
	require.NoError(t, repo.Insert(ctx, seeded))

	u := scoreUpdate("br-1", "soccer_brazil_campeonato", "Flamengo", "Santos", start, 2, 1, false)
	outcome, err := r.ReconcileScore(ctx, u, batch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDisallowed, outcome)

	ev := h2hEvent("br-2", "soccer_brazil_campeonato", "Palmeiras", "Gremio", start, [2]float64{-120, 300})
	outcome, err = r.ReconcileOdds(ctx, ev, batch)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDisallowed, outcome)

	all, err := repo.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Nil(t, all[0].Score.Home)
}

func TestReconcileOdds(t *testing.T) {
	r, repo, batch := newReconcilerFixture()
	ctx := context.Background()
	start := runAt.Add(48 * time.Hour)

	t.Run("no moneyline", func(t *testing.T) {
		ev := h2hEvent("o-1", "soccer_epl", "Arsenal", "Spurs", start)
		outcome, err := r.ReconcileOdds(ctx, ev, batch)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoMoneyline, outcome)
	})

	t.Run("unknown mapping", func(t *testing.T) {
		ev := h2hEvent("o-2", "icehockey_nhl", "Bruins", "Rangers", start, [2]float64{-120, 100})
		outcome, err := r.ReconcileOdds(ctx, ev, batch)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnknownMapping, outcome)
	})

	t.Run("created then upserted", func(t *testing.T) {
		ev := h2hEvent("o-3", "soccer_epl", "Arsenal", "Spurs", start,
			[2]float64{-110, 250}, [2]float64{-120, 270}, [2]float64{-105, 260})
		outcome, err := r.ReconcileOdds(ctx, ev, batch)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, outcome)

		ev.Bookmakers = ev.Bookmakers[:1]
		outcome, err = r.ReconcileOdds(ctx, ev, batch)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUpserted, outcome)

		got, err := repo.GetByExternalRef(ctx, models.ExternalRef{Provider: models.ProviderOddsAPI, ID: "o-3"})
		require.NoError(t, err)
		assert.Equal(t, models.SportSoccer, got.Sport)
		assert.Equal(t, "EPL", got.LeagueTitle)
		assert.Equal(t, "Soccer", got.LeagueGroup)
		assert.Equal(t, "Vendor soccer_epl", got.VendorSportTitle)
		assert.Equal(t, &models.Moneyline{Home: -110, Away: 250}, got.MarketOdds)
		assert.Len(t, got.BookmakerOdds, 1)
	})

	t.Run("title falls back to pretty title", func(t *testing.T) {
		ev := h2hEvent("o-4", "tennis_atp_us_open", "Alcaraz", "Sinner", start, [2]float64{-135, 115})
		_, err := r.ReconcileOdds(ctx, ev, batch)
		require.NoError(t, err)

		got, err := repo.GetByExternalRef(ctx, models.ExternalRef{Provider: models.ProviderOddsAPI, ID: "o-4"})
		require.NoError(t, err)
		assert.Equal(t, "ATP Us Open", got.LeagueTitle)
	})
}

func TestReconcileOddsPreferredBookmaker(t *testing.T) {
	r, repo, batch := newReconcilerFixture()
	batch.PreferredBookmaker = "fanduel"
	ctx := context.Background()

	ev := h2hEvent("o-5", league.KeyNBA, "Celtics", "Heat", runAt.Add(24*time.Hour),
		[2]float64{-150, 130}, [2]float64{-170, 145}, [2]float64{-140, 120})
	_, err := r.ReconcileOdds(ctx, ev, batch)
	require.NoError(t, err)

	got, err := repo.GetByExternalRef(ctx, models.ExternalRef{Provider: models.ProviderOddsAPI, ID: "o-5"})
	require.NoError(t, err)
	assert.Equal(t, &models.Moneyline{Home: -170, Away: 145}, got.MarketOdds)
}

func TestReconcileOutcomeString(t *testing.T) {
	assert.Equal(t, "matched_by_window", OutcomeMatchedByWindow.String())
	assert.Equal(t, "no_match", OutcomeNoMatch.String())
	assert.Equal(t, "no_moneyline", OutcomeNoMoneyline.String())
	assert.Equal(t, "disallowed", OutcomeDisallowed.String())
}
