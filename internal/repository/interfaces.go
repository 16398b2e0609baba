package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sports-sims/internal/models"
)

// IdentityWindow locates a stored event by league and teams with a start time
// inside [Commence-Window, Commence+Window]
type IdentityWindow struct {
	LeagueKey string
	HomeTeam  string
	AwayTeam  string
	Commence  time.Time
	Window    time.Duration
}

// Bounds returns the inclusive start time bounds of the window
func (w IdentityWindow) Bounds() (time.Time, time.Time) {
	return w.Commence.Add(-w.Window), w.Commence.Add(w.Window)
}

// EventRepository defines event catalog access. Every method touches records
// atomically; no cross-record transaction is implied.
type EventRepository interface {
	// UpdateByExternalRef sets score fields on the event with the given reference
	UpdateByExternalRef(ctx context.Context, ref models.ExternalRef, fields models.ScoreFields) (bool, error)

	// UpdateByIdentityWindow sets score fields on one event matching the window
	UpdateByIdentityWindow(ctx context.Context, w IdentityWindow, fields models.ScoreFields) (bool, error)

	// UpsertByExternalRef writes identity only on insert and score fields always.
	// created reports whether a new record was inserted.
	UpsertByExternalRef(ctx context.Context, identity models.EventIdentity, fields models.ScoreFields) (created bool, err error)

	// UpsertOdds writes identity, market odds and bookmaker quotes keyed on the reference
	UpsertOdds(ctx context.Context, fields models.OddsFields) (created bool, err error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	GetByExternalRef(ctx context.Context, ref models.ExternalRef) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]*models.Event, error)

	// DistinctLeagues returns non-empty league keys of events starting at or after since
	DistinctLeagues(ctx context.Context, since time.Time) ([]string, error)
	SportExists(ctx context.Context, sport models.Sport, since time.Time) (bool, error)

	// UpdateBookmakerOdds replaces the bookmaker quotes of one event
	UpdateBookmakerOdds(ctx context.Context, id uuid.UUID, quotes []models.BookmakerQuote, at time.Time) error

	// Insert stores a manually seeded event
	Insert(ctx context.Context, ev *models.Event) error

	// DeleteDisallowed deletes events whose league key keep rejects
	DeleteDisallowed(ctx context.Context, keep func(leagueKey string) bool) (int64, error)

	// DeleteWithoutProvider deletes events lacking a reference from provider
	DeleteWithoutProvider(ctx context.Context, provider string) (int64, error)

	EnsureSchema(ctx context.Context) error
}

// ForecastRepository defines saved forecast access
type ForecastRepository interface {
	// Create stores f at order 0 and shifts the user's other forecasts down by one
	Create(ctx context.Context, f *models.Forecast) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Forecast, error)
	// ListByUser returns a page ordered by order then newest first, plus the user's total
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]*models.Forecast, int, error)
	// Update replaces params and result of one of the user's forecasts in place.
	// f receives the stored order and timestamps.
	Update(ctx context.Context, f *models.Forecast) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	EnsureSchema(ctx context.Context) error
}

// WatchlistRepository defines per-user watchlist access. Items are unique on
// (user, event, forecast).
type WatchlistRepository interface {
	// Add inserts item unless its key already exists; an existing item is left
	// untouched and its ID and AddedAt are copied into item.
	Add(ctx context.Context, item *models.WatchlistItem) (created bool, err error)
	// Remove deletes the user's event-only item for eventID
	Remove(ctx context.Context, userID string, eventID uuid.UUID) error
	// RemoveForecast deletes the user's item pinning forecastID
	RemoveForecast(ctx context.Context, userID string, forecastID uuid.UUID) error
	// ListByUser returns the user's items, most recently added first
	ListByUser(ctx context.Context, userID string) ([]*models.WatchlistItem, error)
	EnsureSchema(ctx context.Context) error
}
