package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/sports-sims/internal/database"
	"github.com/yourusername/sports-sims/internal/models"
)

var postgresForecastSchema = []string{`
CREATE TABLE IF NOT EXISTS forecasts (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	event_id   UUID NOT NULL,
	params     JSONB NOT NULL DEFAULT '{}',
	result     JSONB NOT NULL,
	home_team  TEXT NOT NULL DEFAULT '',
	away_team  TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS forecasts_user_order_idx ON forecasts (user_id, sort_order, created_at DESC)`,
}

const forecastColumns = `id, user_id, event_id, params, result, home_team, away_team, sort_order, created_at, updated_at`

// PostgresForecastRepository implements ForecastRepository for PostgreSQL
type PostgresForecastRepository struct {
	db *database.DB
}

// NewPostgresForecastRepository creates a new forecast repository
func NewPostgresForecastRepository(db *database.DB) ForecastRepository {
	return &PostgresForecastRepository{db: db}
}

func scanPostgresForecast(row pgx.Row) (*models.Forecast, error) {
	f := &models.Forecast{}
	var params, result []byte
	err := row.Scan(&f.ID, &f.UserID, &f.EventID, &params, &result,
		&f.HomeTeam, &f.AwayTeam, &f.Order, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.Params = json.RawMessage(params)
	if err := json.Unmarshal(result, &f.Result); err != nil {
		return nil, fmt.Errorf("failed to decode forecast result: %w", err)
	}
	return f, nil
}

func forecastPayload(f *models.Forecast) ([]byte, []byte, error) {
	params := []byte(f.Params)
	if len(params) == 0 {
		params = []byte("{}")
	}
	result, err := json.Marshal(f.Result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode forecast result: %w", err)
	}
	return params, result, nil
}

// Create shifts the user's forecasts down and inserts f at the top
func (r *PostgresForecastRepository) Create(ctx context.Context, f *models.Forecast) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	params, result, err := forecastPayload(f)
	if err != nil {
		return err
	}
	f.Order = 0

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE forecasts SET sort_order = sort_order + 1, updated_at = NOW() WHERE user_id = $1`,
			f.UserID,
		); err != nil {
			return fmt.Errorf("failed to shift forecast order: %w", err)
		}

		query := `
			INSERT INTO forecasts (id, user_id, event_id, params, result, home_team, away_team, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			f.ID, f.UserID, f.EventID, params, result, f.HomeTeam, f.AwayTeam,
		).Scan(&f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create forecast: %w", err)
		}
		return nil
	})
}

// GetByID retrieves one of the user's forecasts
func (r *PostgresForecastRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Forecast, error) {
	query := `SELECT ` + forecastColumns + ` FROM forecasts WHERE id = $1 AND user_id = $2`

	f, err := scanPostgresForecast(r.db.GetPool().QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast: %w", err)
	}
	return f, nil
}

// ListByUser returns one page of the user's forecasts and their total count
func (r *PostgresForecastRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]*models.Forecast, int, error) {
	page, perPage = normalizePage(page, perPage)

	var total int
	if err := r.db.GetPool().QueryRow(ctx,
		`SELECT COUNT(*) FROM forecasts WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count forecasts: %w", err)
	}

	query := `
		SELECT ` + forecastColumns + ` FROM forecasts
		WHERE user_id = $1
		ORDER BY sort_order ASC, created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.GetPool().Query(ctx, query, userID, perPage, page*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Forecast, 0, perPage)
	for rows.Next() {
		f, err := scanPostgresForecast(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan forecast: %w", err)
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

// Update replaces params and result of one of the user's forecasts
func (r *PostgresForecastRepository) Update(ctx context.Context, f *models.Forecast) error {
	params, result, err := forecastPayload(f)
	if err != nil {
		return err
	}
	query := `
		UPDATE forecasts SET params = $1, result = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING ` + forecastColumns

	stored, err := scanPostgresForecast(r.db.GetPool().QueryRow(ctx, query, params, result, f.ID, f.UserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update forecast: %w", err)
	}
	*f = *stored
	return nil
}

// Delete removes one of the user's forecasts
func (r *PostgresForecastRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM forecasts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete forecast: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// EnsureSchema creates the forecasts table and index
func (r *PostgresForecastRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresForecastSchema {
		if _, err := r.db.GetPool().Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create forecasts schema: %w", err)
		}
	}
	return nil
}
