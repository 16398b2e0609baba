package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sports-sims/internal/forecast"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/repository"
)

type watchlistFixture struct {
	forecastFixture
	svc *WatchlistService
}

func newWatchlistFixture() watchlistFixture {
	f := newForecastFixture()
	svc := NewWatchlistService(f.events, f.forecasts, repository.NewMemoryWatchlistRepository(), quietLogger())
	return watchlistFixture{forecastFixture: f, svc: svc}
}

func TestWatchlistAddEventIsIdempotent(t *testing.T) {
	f := newWatchlistFixture()
	ctx := context.Background()
	ev := f.insert(t, nbaGame("Celtics", "Heat", runAt.Add(time.Hour)))

	item, created, err := f.svc.AddEvent(ctx, "user-1", ev.ID)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.svc.AddEvent(ctx, "user-1", ev.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)

	_, _, err = f.svc.AddEvent(ctx, "user-1", uuid.New())
	require.ErrorIs(t, err, models.ErrNotFound)

	ids, err := f.svc.EventIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ev.ID}, ids)
}

func TestWatchlistPinsForecasts(t *testing.T) {
	f := newWatchlistFixture()
	ctx := context.Background()
	ev := f.insert(t, nbaGame("Celtics", "Heat", runAt.Add(time.Hour)))

	run, err := f.forecastFixture.svc.Run(ctx, "user-1", ev.ID, forecast.Params{Trials: trials(1000)}, false)
	require.NoError(t, err)

	_, _, err = f.svc.AddEvent(ctx, "user-1", ev.ID)
	require.NoError(t, err)
	pinned, created, err := f.svc.AddForecast(ctx, "user-1", run.Forecast.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ev.ID, pinned.EventID)

	_, _, err = f.svc.AddForecast(ctx, "user-2", run.Forecast.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	entries, err := f.svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	var withForecast int
	for _, e := range entries {
		assert.Equal(t, ev.ID, e.Event.ID)
		if e.Forecast != nil {
			withForecast++
			assert.Equal(t, run.Forecast.ID, e.Forecast.ID)
		}
	}
	assert.Equal(t, 1, withForecast)

	ids, err := f.svc.EventIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	require.NoError(t, f.svc.RemoveEvent(ctx, "user-1", ev.ID))
	require.NoError(t, f.svc.RemoveForecast(ctx, "user-1", run.Forecast.ID))
	assert.ErrorIs(t, f.svc.RemoveForecast(ctx, "user-1", run.Forecast.ID), models.ErrNotFound)

	entries, err = f.svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWatchlistListOrdersByStartTime(t *testing.T) {
	f := newWatchlistFixture()
	ctx := context.Background()
	later := f.insert(t, nbaGame("Knicks", "Bulls", runAt.Add(5*time.Hour)))
	sooner := f.insert(t, nbaGame("Celtics", "Heat", runAt.Add(time.Hour)))

	for _, ev := range []*models.Event{later, sooner} {
		_, _, err := f.svc.AddEvent(ctx, "user-1", ev.ID)
		require.NoError(t, err)
	}

	entries, err := f.svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Celtics", entries[0].Event.HomeTeam)
	assert.Equal(t, "Knicks", entries[1].Event.HomeTeam)
}

func TestWatchlistListKeepsItemsWhoseForecastWasDeleted(t *testing.T) {
	f := newWatchlistFixture()
	ctx := context.Background()
	ev := f.insert(t, nbaGame("Celtics", "Heat", runAt.Add(time.Hour)))

	run, err := f.forecastFixture.svc.Run(ctx, "user-1", ev.ID, forecast.Params{Trials: trials(1000)}, false)
	require.NoError(t, err)
	_, _, err = f.svc.AddForecast(ctx, "user-1", run.Forecast.ID)
	require.NoError(t, err)
	require.NoError(t, f.forecastFixture.svc.Delete(ctx, "user-1", run.Forecast.ID))

	entries, err := f.svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Forecast)
	assert.Equal(t, ev.ID, entries[0].Event.ID)
}
