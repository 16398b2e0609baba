package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/yourusername/sports-sims/internal/database"
	"github.com/yourusername/sports-sims/internal/models"
)

// Repositories holds all repository implementations
type Repositories struct {
	Events    EventRepository
	Forecasts ForecastRepository
	Watchlist WatchlistRepository
}

// NewPostgresRepositories creates the pgx-backed repositories
func NewPostgresRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &Repositories{
		Events:    NewPostgresEventRepository(db),
		Forecasts: NewPostgresForecastRepository(db),
		Watchlist: NewPostgresWatchlistRepository(db),
	}, nil
}

// NewSQLiteRepositories creates the SQLite-backed repositories
func NewSQLiteRepositories(db *sql.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &Repositories{
		Events:    NewSQLiteEventRepository(db),
		Forecasts: NewSQLiteForecastRepository(db),
		Watchlist: NewSQLiteWatchlistRepository(db),
	}, nil
}

// NewMemoryRepositories creates process-local repositories
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Events:    NewMemoryEventRepository(),
		Forecasts: NewMemoryForecastRepository(),
		Watchlist: NewMemoryWatchlistRepository(),
	}
}

// EnsureSchema creates every table and index the repositories need
func (r *Repositories) EnsureSchema(ctx context.Context) error {
	if err := r.Events.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure events schema: %w", err)
	}
	if err := r.Forecasts.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure forecasts schema: %w", err)
	}
	if err := r.Watchlist.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure watchlist schema: %w", err)
	}
	return nil
}

const defaultPerPage = 20

func normalizePage(page, perPage int) (int, int) {
	if page < 0 {
		page = 0
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return page, perPage
}

func sortEvents(events []*models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
}

func inFilter(ev *models.Event, f models.EventFilter) bool {
	if f.Sport != "" && ev.Sport != f.Sport {
		return false
	}
	if f.LeagueKey != "" && ev.LeagueKey != f.LeagueKey {
		return false
	}
	if f.From != nil && ev.StartTime.Before(*f.From) {
		return false
	}
	if f.To != nil && !ev.StartTime.Before(*f.To) {
		return false
	}
	return true
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
