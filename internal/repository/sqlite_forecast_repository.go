package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sports-sims/internal/models"
)

var sqliteForecastSchema = []string{`
CREATE TABLE IF NOT EXISTS forecasts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	event_id   TEXT NOT NULL,
	params     TEXT NOT NULL DEFAULT '{}',
	result     TEXT NOT NULL,
	home_team  TEXT NOT NULL DEFAULT '',
	away_team  TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS forecasts_user_order_idx ON forecasts (user_id, sort_order, created_at DESC)`,
}

// SQLiteForecastRepository implements ForecastRepository on a local SQLite file
type SQLiteForecastRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteForecastRepository creates a new forecast repository
func NewSQLiteForecastRepository(db *sql.DB) ForecastRepository {
	return &SQLiteForecastRepository{db: db, now: time.Now}
}

func scanSQLiteForecast(row rowScanner) (*models.Forecast, error) {
	f := &models.Forecast{}
	var (
		id, eventID      string
		params, result   []byte
		created, updated int64
	)
	err := row.Scan(&id, &f.UserID, &eventID, &params, &result,
		&f.HomeTeam, &f.AwayTeam, &f.Order, &created, &updated)
	if err != nil {
		return nil, err
	}
	if f.ID, err = uuid.Parse(id); err != nil {
		return nil, models.ErrInvalidID
	}
	if f.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, models.ErrInvalidID
	}
	f.Params = json.RawMessage(params)
	if err := json.Unmarshal(result, &f.Result); err != nil {
		return nil, fmt.Errorf("failed to decode forecast result: %w", err)
	}
	f.CreatedAt = fromMillis(created)
	f.UpdatedAt = fromMillis(updated)
	return f, nil
}

// Create shifts the user's forecasts down and inserts f at the top
func (r *SQLiteForecastRepository) Create(ctx context.Context, f *models.Forecast) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	params, result, err := forecastPayload(f)
	if err != nil {
		return err
	}
	now := r.now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`UPDATE forecasts SET sort_order = sort_order + 1, updated_at = ? WHERE user_id = ?`,
		toMillis(now), f.UserID,
	); err != nil {
		return fmt.Errorf("failed to shift forecast order: %w", err)
	}

	query := `
		INSERT INTO forecasts (` + forecastColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query,
		f.ID.String(), f.UserID, f.EventID.String(), string(params), string(result),
		f.HomeTeam, f.AwayTeam, toMillis(now), toMillis(now),
	); err != nil {
		return fmt.Errorf("failed to create forecast: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	f.Order = 0
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

// GetByID retrieves one of the user's forecasts
func (r *SQLiteForecastRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Forecast, error) {
	query := `SELECT ` + forecastColumns + ` FROM forecasts WHERE id = ? AND user_id = ?`

	f, err := scanSQLiteForecast(r.db.QueryRowContext(ctx, query, id.String(), userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast: %w", err)
	}
	return f, nil
}

// ListByUser returns one page of the user's forecasts and their total count
func (r *SQLiteForecastRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]*models.Forecast, int, error) {
	page, perPage = normalizePage(page, perPage)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM forecasts WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count forecasts: %w", err)
	}

	query := `
		SELECT ` + forecastColumns + ` FROM forecasts
		WHERE user_id = ?
		ORDER BY sort_order ASC, created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, perPage, page*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Forecast, 0, perPage)
	for rows.Next() {
		f, err := scanSQLiteForecast(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan forecast: %w", err)
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

// Update replaces params and result of one of the user's forecasts
func (r *SQLiteForecastRepository) Update(ctx context.Context, f *models.Forecast) error {
	params, result, err := forecastPayload(f)
	if err != nil {
		return err
	}
	query := `
		UPDATE forecasts SET params = ?, result = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
		RETURNING ` + forecastColumns

	stored, err := scanSQLiteForecast(r.db.QueryRowContext(ctx, query,
		string(params), string(result), toMillis(r.now()), f.ID.String(), f.UserID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update forecast: %w", err)
	}
	*f = *stored
	return nil
}

// Delete removes one of the user's forecasts
func (r *SQLiteForecastRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forecasts WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("failed to delete forecast: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// EnsureSchema creates the forecasts table and index
func (r *SQLiteForecastRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range sqliteForecastSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create forecasts schema: %w", err)
		}
	}
	return nil
}
