package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/sports-sims/internal/database"
	"github.com/yourusername/sports-sims/internal/models"
)

const errScanEvent = "failed to scan event: %w"

var postgresEventSchema = []string{`
CREATE TABLE IF NOT EXISTS events (
	id                 UUID PRIMARY KEY,
	sport              TEXT NOT NULL,
	league_key         TEXT NOT NULL DEFAULT '',
	league_title       TEXT NOT NULL DEFAULT '',
	league_group       TEXT NOT NULL DEFAULT '',
	vendor_sport_title TEXT NOT NULL DEFAULT '',
	home_team          TEXT NOT NULL,
	away_team          TEXT NOT NULL,
	start_time         TIMESTAMPTZ NOT NULL,
	market_home        INTEGER,
	market_away        INTEGER,
	bookmaker_odds     JSONB NOT NULL DEFAULT '[]',
	form_home          DOUBLE PRECISION,
	form_away          DOUBLE PRECISION,
	ext_provider       TEXT,
	ext_id             TEXT,
	status             TEXT NOT NULL DEFAULT '',
	score_home         INTEGER,
	score_away         INTEGER,
	completed          BOOLEAN NOT NULL DEFAULT FALSE,
	last_score_update  TIMESTAMPTZ,
	last_updated       TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS events_ext_ref_idx ON events (ext_provider, ext_id)
	WHERE ext_provider IS NOT NULL AND ext_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS events_identity_idx ON events (league_key, home_team, away_team, start_time)`,
	`CREATE INDEX IF NOT EXISTS events_start_time_idx ON events (start_time)`,
}

const extConflict = `ON CONFLICT (ext_provider, ext_id) WHERE ext_provider IS NOT NULL AND ext_id IS NOT NULL`

// PostgresEventRepository implements EventRepository for PostgreSQL
type PostgresEventRepository struct {
	db *database.DB
}

// NewPostgresEventRepository creates a new event repository
func NewPostgresEventRepository(db *database.DB) EventRepository {
	return &PostgresEventRepository{db: db}
}

func scanPostgresEvent(row pgx.Row) (*models.Event, error) {
	ev := &models.Event{}
	var r eventRow
	err := row.Scan(
		&ev.ID, &r.sport, &ev.LeagueKey, &ev.LeagueTitle, &ev.LeagueGroup, &ev.VendorSportTitle,
		&ev.HomeTeam, &ev.AwayTeam, &ev.StartTime, &r.marketHome, &r.marketAway, &r.odds,
		&r.formHome, &r.formAway, &r.extProv, &r.extID, &r.status, &ev.Score.Home, &ev.Score.Away,
		&ev.Completed, &ev.LastScoreUpdate, &ev.LastUpdated, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := r.apply(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// UpdateByExternalRef sets score fields on the event carrying ref
func (r *PostgresEventRepository) UpdateByExternalRef(ctx context.Context, ref models.ExternalRef, f models.ScoreFields) (bool, error) {
	query := `
		UPDATE events SET
			status = $3, completed = $4, score_home = $5, score_away = $6,
			last_score_update = $7, last_updated = $8, updated_at = NOW()
		WHERE ext_provider = $1 AND ext_id = $2
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		ref.Provider, ref.ID, string(f.Status), f.Completed, f.Score.Home, f.Score.Away,
		timePtr(f.LastScoreUpdate), timePtr(f.LastUpdated),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update event by reference: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateByIdentityWindow sets score fields on the earliest event matching the window
func (r *PostgresEventRepository) UpdateByIdentityWindow(ctx context.Context, w IdentityWindow, f models.ScoreFields) (bool, error) {
	query := `
		UPDATE events SET
			status = $6, completed = $7, score_home = $8, score_away = $9,
			last_score_update = $10, last_updated = $11, updated_at = NOW()
		WHERE id = (
			SELECT id FROM events
			WHERE league_key = $1 AND home_team = $2 AND away_team = $3
			  AND start_time >= $4 AND start_time <= $5
			ORDER BY start_time ASC
			LIMIT 1
		)
	`

	lo, hi := w.Bounds()
	tag, err := r.db.GetPool().Exec(ctx, query,
		w.LeagueKey, w.HomeTeam, w.AwayTeam, lo, hi,
		string(f.Status), f.Completed, f.Score.Home, f.Score.Away,
		timePtr(f.LastScoreUpdate), timePtr(f.LastUpdated),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update event by identity window: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertByExternalRef inserts identity on creation and always overwrites score fields
func (r *PostgresEventRepository) UpsertByExternalRef(ctx context.Context, id models.EventIdentity, f models.ScoreFields) (bool, error) {
	query := `
		INSERT INTO events (
			id, sport, league_key, league_title, home_team, away_team, start_time,
			ext_provider, ext_id, status, completed, score_home, score_away,
			last_score_update, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		` + extConflict + ` DO UPDATE SET
			status = EXCLUDED.status,
			completed = EXCLUDED.completed,
			score_home = EXCLUDED.score_home,
			score_away = EXCLUDED.score_away,
			last_score_update = EXCLUDED.last_score_update,
			last_updated = EXCLUDED.last_updated,
			updated_at = NOW()
		RETURNING (xmax = 0)
	`

	var created bool
	err := r.db.GetPool().QueryRow(ctx, query,
		uuid.New(), string(id.Sport), id.LeagueKey, id.LeagueTitle, id.HomeTeam, id.AwayTeam, id.StartTime,
		id.Ext.Provider, id.Ext.ID, string(f.Status), f.Completed, f.Score.Home, f.Score.Away,
		timePtr(f.LastScoreUpdate), timePtr(f.LastUpdated),
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert event: %w", err)
	}
	return created, nil
}

// UpsertOdds writes an odds snapshot keyed on the provider reference
func (r *PostgresEventRepository) UpsertOdds(ctx context.Context, f models.OddsFields) (bool, error) {
	odds, err := encodeQuotes(f.BookmakerOdds)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO events (
			id, sport, league_key, league_title, league_group, vendor_sport_title,
			home_team, away_team, start_time, market_home, market_away, bookmaker_odds,
			ext_provider, ext_id, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		` + extConflict + ` DO UPDATE SET
			sport = EXCLUDED.sport,
			league_key = EXCLUDED.league_key,
			league_title = EXCLUDED.league_title,
			league_group = EXCLUDED.league_group,
			vendor_sport_title = EXCLUDED.vendor_sport_title,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			start_time = EXCLUDED.start_time,
			market_home = EXCLUDED.market_home,
			market_away = EXCLUDED.market_away,
			bookmaker_odds = EXCLUDED.bookmaker_odds,
			last_updated = EXCLUDED.last_updated,
			updated_at = NOW()
		RETURNING (xmax = 0)
	`

	var created bool
	err = r.db.GetPool().QueryRow(ctx, query,
		uuid.New(), string(f.Sport), f.LeagueKey, f.LeagueTitle, f.LeagueGroup, f.VendorSportTitle,
		f.HomeTeam, f.AwayTeam, f.StartTime, f.MarketOdds.Home, f.MarketOdds.Away, odds,
		f.Ext.Provider, f.Ext.ID, timePtr(f.LastUpdated),
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert event odds: %w", err)
	}
	return created, nil
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	ev, err := scanPostgresEvent(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

// GetByExternalRef retrieves an event by provider reference
func (r *PostgresEventRepository) GetByExternalRef(ctx context.Context, ref models.ExternalRef) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE ext_provider = $1 AND ext_id = $2`

	ev, err := scanPostgresEvent(r.db.GetPool().QueryRow(ctx, query, ref.Provider, ref.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by reference: %w", err)
	}
	return ev, nil
}

// List retrieves events matching filter ordered by start time
func (r *PostgresEventRepository) List(ctx context.Context, filter models.EventFilter) ([]*models.Event, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Sport != "" {
		add("sport = $%d", string(filter.Sport))
	}
	if filter.LeagueKey != "" {
		add("league_key = $%d", filter.LeagueKey)
	}
	if filter.From != nil {
		add("start_time >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("start_time < $%d", *filter.To)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_time ASC"

	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		ev, err := scanPostgresEvent(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanEvent, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DistinctLeagues returns the league keys of events starting at or after since
func (r *PostgresEventRepository) DistinctLeagues(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT league_key FROM events
		WHERE start_time >= $1 AND league_key <> ''
		ORDER BY league_key
	`
	return r.queryStrings(ctx, query, since)
}

func (r *PostgresEventRepository) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query league keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan league key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SportExists reports whether any event of sport starts at or after since
func (r *PostgresEventRepository) SportExists(ctx context.Context, sport models.Sport, since time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM events WHERE sport = $1 AND start_time >= $2)`

	var exists bool
	if err := r.db.GetPool().QueryRow(ctx, query, string(sport), since).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check sport: %w", err)
	}
	return exists, nil
}

// UpdateBookmakerOdds replaces the bookmaker quotes of one event
func (r *PostgresEventRepository) UpdateBookmakerOdds(ctx context.Context, id uuid.UUID, quotes []models.BookmakerQuote, at time.Time) error {
	odds, err := encodeQuotes(quotes)
	if err != nil {
		return err
	}

	query := `UPDATE events SET bookmaker_odds = $2, last_updated = $3, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.GetPool().Exec(ctx, query, id, odds, timePtr(at))
	if err != nil {
		return fmt.Errorf("failed to update bookmaker odds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Insert stores a new event
func (r *PostgresEventRepository) Insert(ctx context.Context, ev *models.Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	odds, err := encodeQuotes(ev.BookmakerOdds)
	if err != nil {
		return err
	}
	mh, ma := marketColumns(ev.MarketOdds)
	fh, fa := formColumns(ev.RecentForm)
	extP, extID := extColumns(ev.Ext)

	query := `
		INSERT INTO events (
			id, sport, league_key, league_title, league_group, vendor_sport_title,
			home_team, away_team, start_time, market_home, market_away, bookmaker_odds,
			form_home, form_away, ext_provider, ext_id, status, score_home, score_away,
			completed, last_score_update, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		ev.ID, string(ev.Sport), ev.LeagueKey, ev.LeagueTitle, ev.LeagueGroup, ev.VendorSportTitle,
		ev.HomeTeam, ev.AwayTeam, ev.StartTime, mh, ma, odds,
		fh, fa, extP, extID, string(ev.Status), ev.Score.Home, ev.Score.Away,
		ev.Completed, ev.LastScoreUpdate, ev.LastUpdated,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// DeleteDisallowed deletes events whose league key keep rejects
func (r *PostgresEventRepository) DeleteDisallowed(ctx context.Context, keep func(string) bool) (int64, error) {
	keys, err := r.queryStrings(ctx, `SELECT DISTINCT league_key FROM events`)
	if err != nil {
		return 0, err
	}
	drop := disallowedKeys(keys, keep)
	if len(drop) == 0 {
		return 0, nil
	}

	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM events WHERE league_key = ANY($1)`, drop)
	if err != nil {
		return 0, fmt.Errorf("failed to delete disallowed events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteWithoutProvider deletes events not referenced by provider
func (r *PostgresEventRepository) DeleteWithoutProvider(ctx context.Context, provider string) (int64, error) {
	query := `DELETE FROM events WHERE ext_provider IS NULL OR ext_id IS NULL OR ext_provider <> $1`

	tag, err := r.db.GetPool().Exec(ctx, query, provider)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unreferenced events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// EnsureSchema creates the events table and indexes
func (r *PostgresEventRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresEventSchema {
		if _, err := r.db.GetPool().Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create events schema: %w", err)
		}
	}
	return nil
}
