package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchlistItem is an event a user follows. An item with a ForecastID pins
// one saved forecast for the event; without one it saves the event alone.
type WatchlistItem struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id" validate:"required"`
	EventID    uuid.UUID  `db:"event_id" json:"event_id" validate:"required"`
	ForecastID *uuid.UUID `db:"forecast_id" json:"forecast_id,omitempty"`
	AddedAt    time.Time  `db:"added_at" json:"added_at"`
}

// ForecastKey returns the forecast part of the item's unique key; uuid.Nil
// marks an event-only item.
func (w *WatchlistItem) ForecastKey() uuid.UUID {
	if w.ForecastID == nil {
		return uuid.Nil
	}
	return *w.ForecastID
}
