package models

import (
	"time"

	"github.com/google/uuid"
)

// Sport is the UI-facing category an event belongs to
type Sport string

const (
	SportNBA    Sport = "NBA"
	SportNFL    Sport = "NFL"
	SportSoccer Sport = "Soccer"
	SportTennis Sport = "Tennis"
)

// Valid reports whether the sport is one of the supported categories
func (s Sport) Valid() bool {
	switch s {
	case SportNBA, SportNFL, SportSoccer, SportTennis:
		return true
	default:
		return false
	}
}

// EventStatus represents the live status of an event
type EventStatus string

const (
	EventStatusScheduled  EventStatus = "scheduled"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusCompleted  EventStatus = "completed"
)

// ProviderOddsAPI is the provider name stored on events ingested from The Odds API
const ProviderOddsAPI = "oddsapi"

// Moneyline is a home/away pair of American odds
type Moneyline struct {
	Home int `json:"home_ml"`
	Away int `json:"away_ml"`
}

// BookmakerQuote is a single bookmaker's head-to-head prices. Nil prices are unknown.
type BookmakerQuote struct {
	Bookmaker  string    `json:"bookmaker"`
	LastUpdate time.Time `json:"last_update"`
	Home       *int      `json:"home_ml"`
	Away       *int      `json:"away_ml"`
	Draw       *int      `json:"draw_ml"`
}

// RecentForm holds per-side recent performance scores in [0,1]
type RecentForm struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// DefaultRecentForm is applied when an event carries no recent form
var DefaultRecentForm = RecentForm{Home: 0.5, Away: 0.5}

// ExternalRef identifies an event at its upstream provider
type ExternalRef struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
}

// Score holds the current score; nil sides have not been reported
type Score struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Event represents a sporting contest in the catalog
type Event struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	Sport            Sport            `db:"sport" json:"sport" validate:"required"`
	LeagueKey        string           `db:"league_key" json:"league"`
	LeagueTitle      string           `db:"league_title" json:"league_title"`
	LeagueGroup      string           `db:"league_group" json:"league_group"`
	VendorSportTitle string           `db:"vendor_sport_title" json:"vendor_sport_title,omitempty"`
	HomeTeam         string           `db:"home_team" json:"home" validate:"required"`
	AwayTeam         string           `db:"away_team" json:"away" validate:"required"`
	StartTime        time.Time        `db:"start_time" json:"start_time" validate:"required"`
	MarketOdds       *Moneyline       `db:"market_odds" json:"market_odds,omitempty"`
	BookmakerOdds    []BookmakerQuote `db:"bookmaker_odds" json:"bookmaker_odds,omitempty"`
	RecentForm       *RecentForm      `db:"recent_form" json:"recent_form,omitempty"`
	Ext              *ExternalRef     `db:"ext" json:"ext,omitempty"`
	Status           EventStatus      `db:"status" json:"status,omitempty"`
	Score            Score            `db:"score" json:"score"`
	Completed        bool             `db:"completed" json:"completed"`
	LastScoreUpdate  *time.Time       `db:"last_score_update" json:"last_score_update,omitempty"`
	LastUpdated      *time.Time       `db:"last_updated" json:"last_updated,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// Form returns the event's recent form, falling back to the neutral default
func (e *Event) Form() RecentForm {
	if e.RecentForm == nil {
		return DefaultRecentForm
	}
	return *e.RecentForm
}

// HasProviderRef reports whether the event carries a complete external reference
func (e *Event) HasProviderRef() bool {
	return e.Ext != nil && e.Ext.Provider != "" && e.Ext.ID != ""
}

// IsToday reports whether the event starts inside the given day window
func (e *Event) IsToday(w DayWindow) bool {
	return w.Contains(e.StartTime)
}

// DayWindow is a half-open [Start, End) interval covering one local day
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// TodayWindow returns local midnight to midnight+24h around now
func TodayWindow(now time.Time) DayWindow {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return DayWindow{Start: start, End: start.Add(24 * time.Hour)}
}

// Contains reports whether t falls inside the window
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// EventIdentity holds fields that are written only when an event is first created
type EventIdentity struct {
	Sport       Sport
	LeagueKey   string
	LeagueTitle string
	HomeTeam    string
	AwayTeam    string
	StartTime   time.Time
	Ext         ExternalRef
}

// ScoreFields holds mutable score/status fields overwritten on every reconciliation
type ScoreFields struct {
	Status          EventStatus
	Completed       bool
	Score           Score
	LastScoreUpdate time.Time
	LastUpdated     time.Time
}

// OddsFields holds everything an odds sync writes for a provider event
type OddsFields struct {
	Sport            Sport
	LeagueKey        string
	LeagueTitle      string
	LeagueGroup      string
	VendorSportTitle string
	HomeTeam         string
	AwayTeam         string
	StartTime        time.Time
	MarketOdds       Moneyline
	BookmakerOdds    []BookmakerQuote
	Ext              ExternalRef
	LastUpdated      time.Time
}

// EventFilter narrows event listings
type EventFilter struct {
	Sport     Sport
	LeagueKey string
	From      *time.Time
	To        *time.Time
}
