package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/forecast"
	"github.com/yourusername/sports-sims/internal/league"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/repository"
)

type forecastFixture struct {
	svc       *ForecastService
	provider  *fakeProvider
	events    *repository.MemoryEventRepository
	forecasts *repository.MemoryForecastRepository
}

func newForecastFixture() forecastFixture {
	provider := newFakeProvider()
	events := repository.NewMemoryEventRepository()
	forecasts := repository.NewMemoryForecastRepository()
	svc := NewForecastService(events, forecasts, provider, forecast.NewEngine(42), quietLogger())
	svc.now = func() time.Time { return runAt }
	return forecastFixture{svc: svc, provider: provider, events: events, forecasts: forecasts}
}

func (f forecastFixture) insert(t *testing.T, ev *models.Event) *models.Event {
	t.Helper()
	require.NoError(t, f.events.Insert(context.Background(), ev))
	return ev
}

func nbaGame(home, away string, start time.Time) *models.Event {
	return &models.Event{
		Sport:      models.SportNBA,
		LeagueKey:  league.KeyNBA,
		HomeTeam:   home,
		AwayTeam:   away,
		StartTime:  start,
		MarketOdds: &models.Moneyline{Home: -150, Away: 130},
		RecentForm: &models.RecentForm{Home: 0.5, Away: 0.5},
	}
}

func trials(n int) *int { return &n }

func TestForecastRunMissingMarketOdds(t *testing.T) {
	f := newForecastFixture()
	ev := nbaGame("Celtics", "Heat", runAt.Add(time.Hour))
	ev.MarketOdds = nil
	f.insert(t, ev)

	_, err := f.svc.Run(context.Background(), "user-1", ev.ID, forecast.Params{}, false)
	require.ErrorIs(t, err, forecast.ErrMissingMarketOdds)

	page, err := f.svc.List(context.Background(), "user-1", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestForecastRunUnknownEvent(t *testing.T) {
	f := newForecastFixture()

	_, err := f.svc.Run(context.Background(), "user-1", uuid.New(), forecast.Params{}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestForecastRunSavesAtTopOfList(t *testing.T) {
	f := newForecastFixture()
	ctx := context.Background()
	first := f.insert(t, nbaGame("Celtics", "Heat", runAt.Add(time.Hour)))
	second := f.insert(t, nbaGame("Knicks", "Bulls", runAt.Add(2*time.Hour)))

	params := forecast.Params{Trials: trials(2000)}
	run1, err := f.svc.Run(ctx, "user-1", first.ID, params, false)
	require.NoError(t, err)
	run2, err := f.svc.Run(ctx, "user-1", second.ID, params, false)
	require.NoError(t, err)
	_, err = f.svc.Run(ctx, "user-2", second.ID, params, false)
	require.NoError(t, err)

	assert.Equal(t, 2000, run1.Forecast.Result.Trials)
	assert.InDelta(t, 1, run1.Forecast.Result.HomeWinPct+run1.Forecast.Result.AwayWinPct, 1e-9)
	assert.Equal(t, "Celtics", run1.Forecast.HomeTeam)

	var saved forecast.Params
	require.NoError(t, json.Unmarshal(run1.Forecast.Params, &saved))
	require.NotNil(t, saved.Trials)
	assert.Equal(t, 2000, *saved.Trials)

	page, err := f.svc.List(ctx, "user-1", 0, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, run2.Forecast.ID, page.Forecasts[0].ID)
	assert.Equal(t, 0, page.Forecasts[0].Order)
	assert.Equal(t, run1.Forecast.ID, page.Forecasts[1].ID)
	assert.Equal(t, 1, page.Forecasts[1].Order)

	got, err := f.svc.Get(ctx, "user-1", run1.Forecast.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.EventID)

	_, err = f.svc.Get(ctx, "user-2", run1.Forecast.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, "user-1", run1.Forecast.ID))
	page, err = f.svc.List(ctx, "user-1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestForecastRunRefreshesOdds(t *testing.T) {
	f := newForecastFixture()
	ctx := context.Background()

	ev := nbaGame("Celtics", "Heat", runAt.Add(time.Hour))
	ev.Ext = &models.ExternalRef{Provider: models.ProviderOddsAPI, ID: "nba-1"}
	ev.BookmakerOdds = []models.BookmakerQuote{{Bookmaker: "stale", Home: intPtr(-300), Away: intPtr(250)}}
	f.insert(t, ev)

	f.provider.odds[league.KeyNBA] = []datasource.OddsEvent{
		h2hEvent("nba-1", league.KeyNBA, "Celtics", "Heat", ev.StartTime, [2]float64{-140, 120}, [2]float64{-145, 125}),
		h2hEvent("nba-2", league.KeyNBA, "Knicks", "Bulls", ev.StartTime, [2]float64{-110, -110}),
	}

	run, err := f.svc.Run(ctx, "user-1", ev.ID, forecast.Params{Trials: trials(1000)}, true)
	require.NoError(t, err)

	require.Len(t, run.Bookmakers, 2)
	assert.Equal(t, "draftkings", run.Bookmakers[0].Bookmaker)
	assert.Equal(t, []string{"nba-1"}, f.provider.filters[0].EventIDs)

	stored, err := f.events.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, stored.BookmakerOdds, 2)
	require.NotNil(t, stored.LastUpdated)
	assert.True(t, runAt.Equal(*stored.LastUpdated))
	assert.Equal(t, &models.Moneyline{Home: -150, Away: 130}, stored.MarketOdds, "refresh leaves the consensus line alone")
}

func TestForecastRunRefreshFailureUsesCachedQuotes(t *testing.T) {
	f := newForecastFixture()
	ev := nbaGame("Celtics", "Heat", runAt.Add(time.Hour))
	ev.Ext = &models.ExternalRef{Provider: models.ProviderOddsAPI, ID: "nba-1"}
	ev.BookmakerOdds = []models.BookmakerQuote{{Bookmaker: "cached", Home: intPtr(-150), Away: intPtr(130)}}
	f.insert(t, ev)
	f.provider.errs[league.KeyNBA] = errors.New("provider down")

	run, err := f.svc.Run(context.Background(), "user-1", ev.ID, forecast.Params{Trials: trials(1000)}, true)
	require.NoError(t, err)
	require.Len(t, run.Bookmakers, 1)
	assert.Equal(t, "cached", run.Bookmakers[0].Bookmaker)
}

func TestForecastRunSkipsRefreshForSeededEvents(t *testing.T) {
	f := newForecastFixture()
	ev := f.insert(t, nbaGame("Celtics", "Heat", runAt.Add(time.Hour)))

	_, err := f.svc.Run(context.Background(), "user-1", ev.ID, forecast.Params{Trials: trials(1000)}, true)
	require.NoError(t, err)
	assert.Empty(t, f.provider.Calls())
}

func TestForecastRunDerivesRecentForm(t *testing.T) {
	f := newForecastFixture()
	ctx := context.Background()

	past := func(home, away string, daysAgo, h, a int) {
		ev := nbaGame(home, away, runAt.Add(-time.Duration(daysAgo)*24*time.Hour))
		ev.Completed = true
		ev.Status = models.EventStatusCompleted
		ev.Score = models.Score{Home: intPtr(h), Away: intPtr(a)}
		f.insert(t, ev)
	}
	past("Celtics", "Knicks", 3, 110, 100)
	past("Bulls", "Celtics", 6, 95, 105)
	past("Heat", "Knicks", 4, 90, 101)
	past("Heat", "Bulls", 9, 99, 100)

	target := nbaGame("Celtics", "Heat", runAt.Add(time.Hour))
	target.RecentForm = nil
	f.insert(t, target)

	params := forecast.Params{Trials: trials(1000)}
	run, err := f.svc.Run(ctx, "user-1", target.ID, params, false)
	require.NoError(t, err)

	expected := forecast.Compute(-150, models.RecentForm{
		Home: forecast.RecentForm([]forecast.GameResult{{Won: true}, {Won: true}}, models.SportNBA, forecast.DefaultFormWindow),
		Away: forecast.RecentForm([]forecast.GameResult{{Won: false}, {Won: false}}, models.SportNBA, forecast.DefaultFormWindow),
	}, params)
	assert.InDelta(t, expected.RecentP, run.Forecast.Result.RecentP, 1e-9)
	assert.Greater(t, run.Forecast.Result.RecentP, run.Forecast.Result.BaseP)
}

func TestTeamResults(t *testing.T) {
	games := []*models.Event{
		{HomeTeam: "A", AwayTeam: "B", Completed: true, Score: models.Score{Home: intPtr(1), Away: intPtr(1)}},
		{HomeTeam: "C", AwayTeam: "A", Completed: true, Score: models.Score{Home: intPtr(0), Away: intPtr(2)}},
		{HomeTeam: "A", AwayTeam: "D", Completed: false},
	}
	assert.Equal(t, []forecast.GameResult{{Won: true}, {Draw: true}}, teamResults(games, "A"))
	assert.Empty(t, teamResults(games, "Z"))
}

func TestForecastUpdateRerunsInPlace(t *testing.T) {
	f := newForecastFixture()
	ctx := context.Background()
	first := f.insert(t, nbaGame("Celtics", "Heat", runAt.Add(time.Hour)))
	second := f.insert(t, nbaGame("Knicks", "Bulls", runAt.Add(2*time.Hour)))

	run1, err := f.svc.Run(ctx, "user-1", first.ID, forecast.Params{Trials: trials(1000)}, false)
	require.NoError(t, err)
	_, err = f.svc.Run(ctx, "user-1", second.ID, forecast.Params{Trials: trials(1000)}, false)
	require.NoError(t, err)

	weight := 0.7
	updated, err := f.svc.Update(ctx, "user-1", run1.Forecast.ID, forecast.Params{Trials: trials(4000), FormWeight: &weight}, false)
	require.NoError(t, err)
	assert.Equal(t, run1.Forecast.ID, updated.Forecast.ID)
	assert.Equal(t, first.ID, updated.Forecast.EventID)
	assert.Equal(t, 4000, updated.Forecast.Result.Trials)
	assert.Equal(t, 1, updated.Forecast.Order)

	var saved forecast.Params
	require.NoError(t, json.Unmarshal(updated.Forecast.Params, &saved))
	require.NotNil(t, saved.FormWeight)
	assert.InDelta(t, 0.7, *saved.FormWeight, 1e-9)

	page, err := f.svc.List(ctx, "user-1", 0, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, run1.Forecast.ID, page.Forecasts[1].ID)
	assert.Equal(t, 4000, page.Forecasts[1].Result.Trials)

	_, err = f.svc.Update(ctx, "user-2", run1.Forecast.ID, forecast.Params{}, false)
	require.ErrorIs(t, err, models.ErrNotFound)
}
