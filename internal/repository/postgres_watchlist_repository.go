package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/sports-sims/internal/database"
	"github.com/yourusername/sports-sims/internal/models"
)

// forecast_id is the nil UUID for event-only items so the unique index treats them as equal
var postgresWatchlistSchema = []string{`
CREATE TABLE IF NOT EXISTS watchlist (
	id          UUID PRIMARY KEY,
	user_id     TEXT NOT NULL,
	event_id    UUID NOT NULL,
	forecast_id UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
	added_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS watchlist_user_event_forecast_idx ON watchlist (user_id, event_id, forecast_id)`,
	`CREATE INDEX IF NOT EXISTS watchlist_user_added_idx ON watchlist (user_id, added_at DESC)`,
}

const watchlistColumns = `id, user_id, event_id, forecast_id, added_at`

// PostgresWatchlistRepository implements WatchlistRepository for PostgreSQL
type PostgresWatchlistRepository struct {
	db *database.DB
}

// NewPostgresWatchlistRepository creates a new watchlist repository
func NewPostgresWatchlistRepository(db *database.DB) WatchlistRepository {
	return &PostgresWatchlistRepository{db: db}
}

func scanPostgresWatchlistItem(row pgx.Row) (*models.WatchlistItem, error) {
	w := &models.WatchlistItem{}
	var forecastID uuid.UUID
	if err := row.Scan(&w.ID, &w.UserID, &w.EventID, &forecastID, &w.AddedAt); err != nil {
		return nil, err
	}
	if forecastID != uuid.Nil {
		w.ForecastID = &forecastID
	}
	return w, nil
}

// Add inserts item unless the user already has it
func (r *PostgresWatchlistRepository) Add(ctx context.Context, item *models.WatchlistItem) (bool, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	key := item.ForecastKey()

	err := r.db.GetPool().QueryRow(ctx, `
		INSERT INTO watchlist (id, user_id, event_id, forecast_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, event_id, forecast_id) DO NOTHING
		RETURNING added_at
	`, item.ID, item.UserID, item.EventID, key).Scan(&item.AddedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("failed to add watchlist item: %w", err)
	}

	existing, err := scanPostgresWatchlistItem(r.db.GetPool().QueryRow(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist WHERE user_id = $1 AND event_id = $2 AND forecast_id = $3`,
		item.UserID, item.EventID, key,
	))
	if err != nil {
		return false, fmt.Errorf("failed to load existing watchlist item: %w", err)
	}
	item.ID = existing.ID
	item.AddedAt = existing.AddedAt
	return false, nil
}

// Remove deletes the user's event-only item for eventID
func (r *PostgresWatchlistRepository) Remove(ctx context.Context, userID string, eventID uuid.UUID) error {
	return r.delete(ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND event_id = $2 AND forecast_id = $3`,
		userID, eventID, uuid.Nil)
}

// RemoveForecast deletes the user's item pinning forecastID
func (r *PostgresWatchlistRepository) RemoveForecast(ctx context.Context, userID string, forecastID uuid.UUID) error {
	return r.delete(ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND forecast_id = $2`,
		userID, forecastID)
}

func (r *PostgresWatchlistRepository) delete(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.db.GetPool().Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's items, most recently added first
func (r *PostgresWatchlistRepository) ListByUser(ctx context.Context, userID string) ([]*models.WatchlistItem, error) {
	rows, err := r.db.GetPool().Query(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist WHERE user_id = $1 ORDER BY added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	out := []*models.WatchlistItem{}
	for rows.Next() {
		w, err := scanPostgresWatchlistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// EnsureSchema creates the watchlist table and indexes
func (r *PostgresWatchlistRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresWatchlistSchema {
		if _, err := r.db.GetPool().Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create watchlist schema: %w", err)
		}
	}
	return nil
}
