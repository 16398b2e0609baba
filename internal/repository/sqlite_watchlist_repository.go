package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sports-sims/internal/models"
)

// forecast_id is '' for event-only items so the unique index treats them as equal
var sqliteWatchlistSchema = []string{`
CREATE TABLE IF NOT EXISTS watchlist (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	event_id    TEXT NOT NULL,
	forecast_id TEXT NOT NULL DEFAULT '',
	added_at    INTEGER NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS watchlist_user_event_forecast_idx ON watchlist (user_id, event_id, forecast_id)`,
	`CREATE INDEX IF NOT EXISTS watchlist_user_added_idx ON watchlist (user_id, added_at DESC)`,
}

// SQLiteWatchlistRepository implements WatchlistRepository on a local SQLite file
type SQLiteWatchlistRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteWatchlistRepository creates a new watchlist repository
func NewSQLiteWatchlistRepository(db *sql.DB) WatchlistRepository {
	return &SQLiteWatchlistRepository{db: db, now: time.Now}
}

func sqliteForecastKey(item *models.WatchlistItem) string {
	if item.ForecastID == nil {
		return ""
	}
	return item.ForecastID.String()
}

func scanSQLiteWatchlistItem(row rowScanner) (*models.WatchlistItem, error) {
	w := &models.WatchlistItem{}
	var (
		id, eventID, forecastID string
		added                   int64
	)
	if err := row.Scan(&id, &w.UserID, &eventID, &forecastID, &added); err != nil {
		return nil, err
	}
	var err error
	if w.ID, err = uuid.Parse(id); err != nil {
		return nil, models.ErrInvalidID
	}
	if w.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, models.ErrInvalidID
	}
	if forecastID != "" {
		fid, err := uuid.Parse(forecastID)
		if err != nil {
			return nil, models.ErrInvalidID
		}
		w.ForecastID = &fid
	}
	w.AddedAt = fromMillis(added)
	return w, nil
}

// Add inserts item unless the user already has it
func (r *SQLiteWatchlistRepository) Add(ctx context.Context, item *models.WatchlistItem) (bool, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := r.now()
	key := sqliteForecastKey(item)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO watchlist (`+watchlistColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, event_id, forecast_id) DO NOTHING
	`, item.ID.String(), item.UserID, item.EventID.String(), key, toMillis(now))
	if err != nil {
		return false, fmt.Errorf("failed to add watchlist item: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		item.AddedAt = fromMillis(toMillis(now))
		return true, nil
	}

	existing, err := scanSQLiteWatchlistItem(r.db.QueryRowContext(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist WHERE user_id = ? AND event_id = ? AND forecast_id = ?`,
		item.UserID, item.EventID.String(), key,
	))
	if err != nil {
		return false, fmt.Errorf("failed to load existing watchlist item: %w", err)
	}
	item.ID = existing.ID
	item.AddedAt = existing.AddedAt
	return false, nil
}

// Remove deletes the user's event-only item for eventID
func (r *SQLiteWatchlistRepository) Remove(ctx context.Context, userID string, eventID uuid.UUID) error {
	return r.delete(ctx,
		`DELETE FROM watchlist WHERE user_id = ? AND event_id = ? AND forecast_id = ''`,
		userID, eventID.String())
}

// RemoveForecast deletes the user's item pinning forecastID
func (r *SQLiteWatchlistRepository) RemoveForecast(ctx context.Context, userID string, forecastID uuid.UUID) error {
	return r.delete(ctx,
		`DELETE FROM watchlist WHERE user_id = ? AND forecast_id = ?`,
		userID, forecastID.String())
}

func (r *SQLiteWatchlistRepository) delete(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's items, most recently added first
func (r *SQLiteWatchlistRepository) ListByUser(ctx context.Context, userID string) ([]*models.WatchlistItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+watchlistColumns+` FROM watchlist WHERE user_id = ? ORDER BY added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	out := []*models.WatchlistItem{}
	for rows.Next() {
		w, err := scanSQLiteWatchlistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// EnsureSchema creates the watchlist table and indexes
func (r *SQLiteWatchlistRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range sqliteWatchlistSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create watchlist schema: %w", err)
		}
	}
	return nil
}
