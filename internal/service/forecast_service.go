package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/forecast"
	"github.com/yourusername/sports-sims/internal/logger"
	"github.com/yourusername/sports-sims/internal/metrics"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/odds"
	"github.com/yourusername/sports-sims/internal/repository"
)

// formHistory bounds how far back completed games are read for recent form
const formHistory = 180 * 24 * time.Hour

// ForecastRun is a saved forecast with the event's bookmaker table
type ForecastRun struct {
	Forecast   *models.Forecast `json:"forecast"`
	Bookmakers []odds.TableRow  `json:"bookmakerTable"`
}

// ForecastPage is one page of a user's saved forecasts
type ForecastPage struct {
	Forecasts []*models.Forecast `json:"sims"`
	Total     int                `json:"total_results"`
}

// ForecastService runs forecasts against stored events and saves them per user
type ForecastService struct {
	events    repository.EventRepository
	forecasts repository.ForecastRepository
	provider  datasource.Provider
	engine    *forecast.Engine
	log       *logger.ForecastLogger
	now       func() time.Time
}

// NewForecastService creates a forecast service. provider may be nil, which
// disables odds refresh.
func NewForecastService(
	events repository.EventRepository,
	forecasts repository.ForecastRepository,
	provider datasource.Provider,
	engine *forecast.Engine,
	log *logrus.Logger,
) *ForecastService {
	if engine == nil {
		engine = forecast.NewEngine(0)
	}
	return &ForecastService{
		events:    events,
		forecasts: forecasts,
		provider:  provider,
		engine:    engine,
		log:       logger.NewForecastLogger(log),
		now:       time.Now,
	}
}

// Run forecasts one event for userID and saves the result at the top of the
// user's list. With refreshOdds the event's bookmaker quotes are refreshed
// first; refresh failures are logged and the cached quotes are used.
func (s *ForecastService) Run(ctx context.Context, userID string, eventID uuid.UUID, params forecast.Params, refreshOdds bool) (*ForecastRun, error) {
	start := s.now()

	ev, result, err := s.simulate(ctx, eventID, params, refreshOdds)
	if err != nil {
		return nil, err
	}

	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	saved := &models.Forecast{
		UserID:   userID,
		EventID:  ev.ID,
		Params:   rawParams,
		Result:   result.Outcome(),
		HomeTeam: ev.HomeTeam,
		AwayTeam: ev.AwayTeam,
	}
	if err := s.forecasts.Create(ctx, saved); err != nil {
		return nil, fmt.Errorf("save forecast: %w", err)
	}

	s.succeed(ev, userID, result, start)
	return &ForecastRun{
		Forecast:   saved,
		Bookmakers: odds.BookmakerTable(ev.BookmakerOdds),
	}, nil
}

// Update re-runs one of the user's saved forecasts with params against the
// event's current odds and replaces its params and result. The forecast
// keeps its place in the user's list.
func (s *ForecastService) Update(ctx context.Context, userID string, id uuid.UUID, params forecast.Params, refreshOdds bool) (*ForecastRun, error) {
	start := s.now()

	saved, err := s.forecasts.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("load forecast %s: %w", id, err)
	}

	ev, result, err := s.simulate(ctx, saved.EventID, params, refreshOdds)
	if err != nil {
		return nil, err
	}

	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	saved.Params = rawParams
	saved.Result = result.Outcome()
	if err := s.forecasts.Update(ctx, saved); err != nil {
		return nil, fmt.Errorf("update forecast %s: %w", id, err)
	}

	s.succeed(ev, userID, result, start)
	return &ForecastRun{
		Forecast:   saved,
		Bookmakers: odds.BookmakerTable(ev.BookmakerOdds),
	}, nil
}

// simulate loads the event, optionally refreshes its quotes, fills in recent
// form from history when the event carries none, and runs the engine.
func (s *ForecastService) simulate(ctx context.Context, eventID uuid.UUID, params forecast.Params, refreshOdds bool) (*models.Event, forecast.Result, error) {
	start := s.now()

	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, forecast.Result{}, fmt.Errorf("load event %s: %w", eventID, err)
	}
	if ev.MarketOdds == nil {
		s.fail(ev, start, forecast.ErrMissingMarketOdds)
		return nil, forecast.Result{}, forecast.ErrMissingMarketOdds
	}

	if refreshOdds {
		s.refreshOdds(ctx, ev)
	}
	if ev.RecentForm == nil {
		ev.RecentForm = s.recentForm(ctx, ev)
	}

	result, err := s.engine.Forecast(ctx, ev, params)
	if err != nil {
		s.fail(ev, start, err)
		return nil, forecast.Result{}, fmt.Errorf("forecast event %s: %w", eventID, err)
	}
	return ev, result, nil
}

func (s *ForecastService) succeed(ev *models.Event, userID string, result forecast.Result, start time.Time) {
	elapsed := s.now().Sub(start)
	metrics.RecordForecast(string(ev.Sport), "ok", elapsed.Seconds())
	s.log.LogForecastRun(ev.ID.String(), userID, result.Trials, result.BaseP, result.RecentP, result.HomeWinPct, elapsed)
}

func (s *ForecastService) fail(ev *models.Event, start time.Time, err error) {
	status := "error"
	if errors.Is(err, forecast.ErrMissingMarketOdds) {
		status = "missing_odds"
	}
	metrics.RecordForecast(string(ev.Sport), status, s.now().Sub(start).Seconds())
	s.log.LogForecastFailed(ev.ID.String(), err)
}

// refreshOdds replaces ev's bookmaker quotes with a targeted provider fetch
func (s *ForecastService) refreshOdds(ctx context.Context, ev *models.Event) {
	if s.provider == nil || !ev.HasProviderRef() || ev.Ext.Provider != s.provider.Name() || ev.LeagueKey == "" {
		return
	}
	entry := s.log.WithField("event_id", ev.ID.String())

	events, err := s.provider.FetchOdds(ctx, ev.LeagueKey, datasource.OddsFilter{EventIDs: []string{ev.Ext.ID}})
	if err != nil {
		entry.WithError(err).Warn("Targeted odds refresh failed, using cached quotes")
		return
	}
	for _, fresh := range events {
		if fresh.ID != ev.Ext.ID {
			continue
		}
		now := s.now()
		quotes := odds.Normalize(fresh, now)
		if err := s.events.UpdateBookmakerOdds(ctx, ev.ID, quotes, now); err != nil {
			entry.WithError(err).Warn("Failed to store refreshed quotes")
			return
		}
		ev.BookmakerOdds = quotes
		ev.LastUpdated = &now
		return
	}
	entry.Debug("Provider returned no odds for event")
}

// recentForm scores both teams from completed league games before the event.
// Teams without history score 0.5.
func (s *ForecastService) recentForm(ctx context.Context, ev *models.Event) *models.RecentForm {
	if ev.LeagueKey == "" {
		return nil
	}
	from := ev.StartTime.Add(-formHistory)
	to := ev.StartTime
	past, err := s.events.List(ctx, models.EventFilter{LeagueKey: ev.LeagueKey, From: &from, To: &to})
	if err != nil {
		s.log.WithError(err).Debug("Recent form unavailable")
		return nil
	}

	home := teamResults(past, ev.HomeTeam)
	away := teamResults(past, ev.AwayTeam)
	if len(home) == 0 && len(away) == 0 {
		return nil
	}
	return &models.RecentForm{
		Home: forecast.RecentForm(home, ev.Sport, forecast.DefaultFormWindow),
		Away: forecast.RecentForm(away, ev.Sport, forecast.DefaultFormWindow),
	}
}

// teamResults returns team's completed results, most recent first. past is
// ordered by start time ascending.
func teamResults(past []*models.Event, team string) []forecast.GameResult {
	var out []forecast.GameResult
	for i := len(past) - 1; i >= 0; i-- {
		g := past[i]
		if !g.Completed || g.Score.Home == nil || g.Score.Away == nil {
			continue
		}
		var own, other int
		switch team {
		case g.HomeTeam:
			own, other = *g.Score.Home, *g.Score.Away
		case g.AwayTeam:
			own, other = *g.Score.Away, *g.Score.Home
		default:
			continue
		}
		out = append(out, forecast.GameResult{Won: own > other, Draw: own == other})
	}
	return out
}

// List returns one page of the user's saved forecasts
func (s *ForecastService) List(ctx context.Context, userID string, page, perPage int) (*ForecastPage, error) {
	items, total, err := s.forecasts.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	return &ForecastPage{Forecasts: items, Total: total}, nil
}

// Get returns one of the user's saved forecasts
func (s *ForecastService) Get(ctx context.Context, userID string, id uuid.UUID) (*models.Forecast, error) {
	return s.forecasts.GetByID(ctx, userID, id)
}

// Delete removes one of the user's saved forecasts
func (s *ForecastService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return s.forecasts.Delete(ctx, userID, id)
}
