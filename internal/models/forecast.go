package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ForecastOutcome is the persisted output of a forecast run
type ForecastOutcome struct {
	BaseP      float64 `json:"baseP"`
	RecentP    float64 `json:"recentP"`
	Trials     int     `json:"trials"`
	HomeWinPct float64 `json:"homeWinPct"`
	AwayWinPct float64 `json:"awayWinPct"`
}

// Forecast is a saved forecast run for a user
type Forecast struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id" validate:"required"`
	EventID   uuid.UUID       `db:"event_id" json:"event_id" validate:"required"`
	Params    json.RawMessage `db:"params" json:"params"`
	Result    ForecastOutcome `db:"result" json:"result"`
	HomeTeam  string          `db:"home_team" json:"home"`
	AwayTeam  string          `db:"away_team" json:"away"`
	Order     int             `db:"sort_order" json:"order"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
