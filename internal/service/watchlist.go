package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/repository"
)

// WatchlistEntry is a watchlist item joined with its event and, for pinned
// items, the saved forecast
type WatchlistEntry struct {
	ID       uuid.UUID        `json:"id"`
	AddedAt  time.Time        `json:"addedAt"`
	Event    *models.Event    `json:"game"`
	Forecast *models.Forecast `json:"sim,omitempty"`
}

// WatchlistService keeps per-user lists of followed events and pinned forecasts
type WatchlistService struct {
	events    repository.EventRepository
	forecasts repository.ForecastRepository
	watchlist repository.WatchlistRepository
	log       *logrus.Entry
}

// NewWatchlistService creates a watchlist service
func NewWatchlistService(
	events repository.EventRepository,
	forecasts repository.ForecastRepository,
	watchlist repository.WatchlistRepository,
	log *logrus.Logger,
) *WatchlistService {
	return &WatchlistService{
		events:    events,
		forecasts: forecasts,
		watchlist: watchlist,
		log:       log.WithField("component", "watchlist"),
	}
}

// AddEvent follows eventID for userID. Adding an event twice keeps the first
// item; created reports whether a new item was stored.
func (s *WatchlistService) AddEvent(ctx context.Context, userID string, eventID uuid.UUID) (*models.WatchlistItem, bool, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, false, fmt.Errorf("load event %s: %w", eventID, err)
	}
	return s.add(ctx, &models.WatchlistItem{UserID: userID, EventID: eventID})
}

// AddForecast pins one of the user's saved forecasts under its event
func (s *WatchlistService) AddForecast(ctx context.Context, userID string, forecastID uuid.UUID) (*models.WatchlistItem, bool, error) {
	f, err := s.forecasts.GetByID(ctx, userID, forecastID)
	if err != nil {
		return nil, false, fmt.Errorf("load forecast %s: %w", forecastID, err)
	}
	return s.add(ctx, &models.WatchlistItem{UserID: userID, EventID: f.EventID, ForecastID: &f.ID})
}

func (s *WatchlistService) add(ctx context.Context, item *models.WatchlistItem) (*models.WatchlistItem, bool, error) {
	created, err := s.watchlist.Add(ctx, item)
	if err != nil {
		return nil, false, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":  item.UserID,
		"event_id": item.EventID.String(),
		"pinned":   item.ForecastID != nil,
		"created":  created,
	}).Debug("Watchlist item saved")
	return item, created, nil
}

// RemoveEvent unfollows the event. Pinned forecasts for it stay.
func (s *WatchlistService) RemoveEvent(ctx context.Context, userID string, eventID uuid.UUID) error {
	return s.watchlist.Remove(ctx, userID, eventID)
}

// RemoveForecast unpins a saved forecast
func (s *WatchlistService) RemoveForecast(ctx context.Context, userID string, forecastID uuid.UUID) error {
	return s.watchlist.RemoveForecast(ctx, userID, forecastID)
}

// List returns the user's items joined with their events, soonest event
// first and most recently added first within an event. Items whose event is
// gone are skipped; pinned items whose forecast was deleted are listed
// without it.
func (s *WatchlistService) List(ctx context.Context, userID string) ([]WatchlistEntry, error) {
	items, err := s.watchlist.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}

	events := make(map[uuid.UUID]*models.Event)
	entries := make([]WatchlistEntry, 0, len(items))
	for _, item := range items {
		ev, ok := events[item.EventID]
		if !ok {
			ev, err = s.events.GetByID(ctx, item.EventID)
			if errors.Is(err, models.ErrNotFound) {
				s.log.WithField("event_id", item.EventID.String()).Debug("Watchlist event no longer stored")
				events[item.EventID] = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load event %s: %w", item.EventID, err)
			}
			events[item.EventID] = ev
		}
		if ev == nil {
			continue
		}

		entry := WatchlistEntry{ID: item.ID, AddedAt: item.AddedAt, Event: ev}
		if item.ForecastID != nil {
			f, err := s.forecasts.GetByID(ctx, userID, *item.ForecastID)
			switch {
			case err == nil:
				entry.Forecast = f
			case !errors.Is(err, models.ErrNotFound):
				return nil, fmt.Errorf("load forecast %s: %w", *item.ForecastID, err)
			}
		}
		entries = append(entries, entry)
	}

	// items arrive newest first; the stable sort keeps that within an event
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Event.StartTime.Before(entries[j].Event.StartTime)
	})
	return entries, nil
}

// EventIDs returns the events the user follows without a pinned forecast
func (s *WatchlistService) EventIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	items, err := s.watchlist.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ForecastID == nil {
			ids = append(ids, item.EventID)
		}
	}
	return ids, nil
}
