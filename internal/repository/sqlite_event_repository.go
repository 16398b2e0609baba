package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sports-sims/internal/models"
)

// SQLite stores times as unix milliseconds
var sqliteEventSchema = []string{`
CREATE TABLE IF NOT EXISTS events (
	id                 TEXT PRIMARY KEY,
	sport              TEXT NOT NULL,
	league_key         TEXT NOT NULL DEFAULT '',
	league_title       TEXT NOT NULL DEFAULT '',
	league_group       TEXT NOT NULL DEFAULT '',
	vendor_sport_title TEXT NOT NULL DEFAULT '',
	home_team          TEXT NOT NULL,
	away_team          TEXT NOT NULL,
	start_time         INTEGER NOT NULL,
	market_home        INTEGER,
	market_away        INTEGER,
	bookmaker_odds     TEXT NOT NULL DEFAULT '[]',
	form_home          REAL,
	form_away          REAL,
	ext_provider       TEXT,
	ext_id             TEXT,
	status             TEXT NOT NULL DEFAULT '',
	score_home         INTEGER,
	score_away         INTEGER,
	completed          INTEGER NOT NULL DEFAULT 0,
	last_score_update  INTEGER,
	last_updated       INTEGER,
	created_at         INTEGER NOT NULL,
	updated_at         INTEGER NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS events_ext_ref_idx ON events (ext_provider, ext_id)
	WHERE ext_provider IS NOT NULL AND ext_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS events_identity_idx ON events (league_key, home_team, away_team, start_time)`,
	`CREATE INDEX IF NOT EXISTS events_start_time_idx ON events (start_time)`,
}

// SQLiteEventRepository implements EventRepository on a local SQLite file
type SQLiteEventRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteEventRepository creates a new event repository
func NewSQLiteEventRepository(db *sql.DB) EventRepository {
	return &SQLiteEventRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func nullMillis(t *time.Time) *int64 {
	if t == nil || t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func millisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}

func scanSQLiteEvent(row rowScanner) (*models.Event, error) {
	ev := &models.Event{}
	var (
		r                            eventRow
		id                           string
		start, created, updated      int64
		lastScoreUpdate, lastUpdated *int64
	)
	err := row.Scan(
		&id, &r.sport, &ev.LeagueKey, &ev.LeagueTitle, &ev.LeagueGroup, &ev.VendorSportTitle,
		&ev.HomeTeam, &ev.AwayTeam, &start, &r.marketHome, &r.marketAway, &r.odds,
		&r.formHome, &r.formAway, &r.extProv, &r.extID, &r.status, &ev.Score.Home, &ev.Score.Away,
		&ev.Completed, &lastScoreUpdate, &lastUpdated, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	if ev.ID, err = uuid.Parse(id); err != nil {
		return nil, models.ErrInvalidID
	}
	ev.StartTime = fromMillis(start)
	ev.CreatedAt = fromMillis(created)
	ev.UpdatedAt = fromMillis(updated)
	ev.LastScoreUpdate = millisPtr(lastScoreUpdate)
	ev.LastUpdated = millisPtr(lastUpdated)
	if err := r.apply(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func scoreArgs(f models.ScoreFields) []any {
	return []any{
		string(f.Status), f.Completed, f.Score.Home, f.Score.Away,
		nullMillis(timePtr(f.LastScoreUpdate)), nullMillis(timePtr(f.LastUpdated)),
	}
}

const sqliteScoreSet = `status = ?, completed = ?, score_home = ?, score_away = ?,
	last_score_update = ?, last_updated = ?, updated_at = ?`

// UpdateByExternalRef sets score fields on the event carrying ref
func (r *SQLiteEventRepository) UpdateByExternalRef(ctx context.Context, ref models.ExternalRef, f models.ScoreFields) (bool, error) {
	query := `UPDATE events SET ` + sqliteScoreSet + ` WHERE ext_provider = ? AND ext_id = ?`

	args := append(scoreArgs(f), toMillis(r.now()), ref.Provider, ref.ID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update event by reference: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateByIdentityWindow sets score fields on the earliest event matching the window
func (r *SQLiteEventRepository) UpdateByIdentityWindow(ctx context.Context, w IdentityWindow, f models.ScoreFields) (bool, error) {
	query := `
		UPDATE events SET ` + sqliteScoreSet + `
		WHERE id = (
			SELECT id FROM events
			WHERE league_key = ? AND home_team = ? AND away_team = ?
			  AND start_time >= ? AND start_time <= ?
			ORDER BY start_time ASC
			LIMIT 1
		)
	`

	lo, hi := w.Bounds()
	args := append(scoreArgs(f), toMillis(r.now()),
		w.LeagueKey, w.HomeTeam, w.AwayTeam, toMillis(lo), toMillis(hi))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update event by identity window: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *SQLiteEventRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func refExists(ctx context.Context, tx *sql.Tx, ref models.ExternalRef) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM events WHERE ext_provider = ? AND ext_id = ?`, ref.Provider, ref.ID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up event reference: %w", err)
	}
	return true, nil
}

// UpsertByExternalRef inserts identity on creation and always overwrites score fields
func (r *SQLiteEventRepository) UpsertByExternalRef(ctx context.Context, id models.EventIdentity, f models.ScoreFields) (bool, error) {
	var created bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := refExists(ctx, tx, id.Ext)
		if err != nil {
			return err
		}
		now := toMillis(r.now())
		if exists {
			args := append(scoreArgs(f), now, id.Ext.Provider, id.Ext.ID)
			_, err := tx.ExecContext(ctx,
				`UPDATE events SET `+sqliteScoreSet+` WHERE ext_provider = ? AND ext_id = ?`, args...)
			if err != nil {
				return fmt.Errorf("failed to update event: %w", err)
			}
			return nil
		}

		query := `
			INSERT INTO events (
				id, sport, league_key, league_title, home_team, away_team, start_time,
				ext_provider, ext_id, status, completed, score_home, score_away,
				last_score_update, last_updated, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		args := []any{
			uuid.New().String(), string(id.Sport), id.LeagueKey, id.LeagueTitle,
			id.HomeTeam, id.AwayTeam, toMillis(id.StartTime), id.Ext.Provider, id.Ext.ID,
		}
		args = append(args, scoreArgs(f)...)
		args = append(args, now, now)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert event: %w", err)
	}
	return created, nil
}

// UpsertOdds writes an odds snapshot keyed on the provider reference
func (r *SQLiteEventRepository) UpsertOdds(ctx context.Context, f models.OddsFields) (bool, error) {
	odds, err := encodeQuotes(f.BookmakerOdds)
	if err != nil {
		return false, err
	}

	var created bool
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := refExists(ctx, tx, f.Ext)
		if err != nil {
			return err
		}
		now := toMillis(r.now())
		fields := []any{
			string(f.Sport), f.LeagueKey, f.LeagueTitle, f.LeagueGroup, f.VendorSportTitle,
			f.HomeTeam, f.AwayTeam, toMillis(f.StartTime), f.MarketOdds.Home, f.MarketOdds.Away,
			string(odds), nullMillis(timePtr(f.LastUpdated)),
		}
		if exists {
			query := `
				UPDATE events SET
					sport = ?, league_key = ?, league_title = ?, league_group = ?, vendor_sport_title = ?,
					home_team = ?, away_team = ?, start_time = ?, market_home = ?, market_away = ?,
					bookmaker_odds = ?, last_updated = ?, updated_at = ?
				WHERE ext_provider = ? AND ext_id = ?
			`
			args := append(fields, now, f.Ext.Provider, f.Ext.ID)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to update event odds: %w", err)
			}
			return nil
		}

		query := `
			INSERT INTO events (
				sport, league_key, league_title, league_group, vendor_sport_title,
				home_team, away_team, start_time, market_home, market_away,
				bookmaker_odds, last_updated, id, ext_provider, ext_id, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		args := append(fields, uuid.New().String(), f.Ext.Provider, f.Ext.ID, now, now)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert event odds: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert event odds: %w", err)
	}
	return created, nil
}

// GetByID retrieves an event by ID
func (r *SQLiteEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	ev, err := scanSQLiteEvent(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

// GetByExternalRef retrieves an event by provider reference
func (r *SQLiteEventRepository) GetByExternalRef(ctx context.Context, ref models.ExternalRef) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE ext_provider = ? AND ext_id = ?`

	ev, err := scanSQLiteEvent(r.db.QueryRowContext(ctx, query, ref.Provider, ref.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by reference: %w", err)
	}
	return ev, nil
}

// List retrieves events matching filter ordered by start time
func (r *SQLiteEventRepository) List(ctx context.Context, filter models.EventFilter) ([]*models.Event, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Sport != "" {
		conds = append(conds, "sport = ?")
		args = append(args, string(filter.Sport))
	}
	if filter.LeagueKey != "" {
		conds = append(conds, "league_key = ?")
		args = append(args, filter.LeagueKey)
	}
	if filter.From != nil {
		conds = append(conds, "start_time >= ?")
		args = append(args, toMillis(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "start_time < ?")
		args = append(args, toMillis(*filter.To))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_time ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		ev, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanEvent, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

// DistinctLeagues returns the league keys of events starting at or after since
func (r *SQLiteEventRepository) DistinctLeagues(ctx context.Context, since time.Time) ([]string, error) {
	return r.queryStrings(ctx, `
		SELECT DISTINCT league_key FROM events
		WHERE start_time >= ? AND league_key <> ''
		ORDER BY league_key
	`, toMillis(since))
}

// SportExists reports whether any event of sport starts at or after since
func (r *SQLiteEventRepository) SportExists(ctx context.Context, sport models.Sport, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE sport = ? AND start_time >= ?)`,
		string(sport), toMillis(since),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sport: %w", err)
	}
	return exists, nil
}

// UpdateBookmakerOdds replaces the bookmaker quotes of one event
func (r *SQLiteEventRepository) UpdateBookmakerOdds(ctx context.Context, id uuid.UUID, quotes []models.BookmakerQuote, at time.Time) error {
	odds, err := encodeQuotes(quotes)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET bookmaker_odds = ?, last_updated = ?, updated_at = ? WHERE id = ?`,
		string(odds), nullMillis(timePtr(at)), toMillis(r.now()), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update bookmaker odds: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Insert stores a new event
func (r *SQLiteEventRepository) Insert(ctx context.Context, ev *models.Event) error {
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
	now := r.now()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	ev.UpdatedAt = now

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		ev.ID.String(), string(ev.Sport), ev.LeagueKey, ev.LeagueTitle, ev.LeagueGroup, ev.VendorSportTitle,
		ev.HomeTeam, ev.AwayTeam, toMillis(ev.StartTime), mh, ma, string(odds),
		fh, fa, extP, extID, string(ev.Status), ev.Score.Home, ev.Score.Away,
		ev.Completed, nullMillis(ev.LastScoreUpdate), nullMillis(ev.LastUpdated),
		toMillis(ev.CreatedAt), toMillis(ev.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// DeleteDisallowed deletes events whose league key keep rejects
func (r *SQLiteEventRepository) DeleteDisallowed(ctx context.Context, keep func(string) bool) (int64, error) {
	keys, err := r.queryStrings(ctx, `SELECT DISTINCT league_key FROM events`)
	if err != nil {
		return 0, err
	}
	drop := disallowedKeys(keys, keep)
	if len(drop) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(drop)), ",")
	args := make([]any, len(drop))
	for i, k := range drop {
		args[i] = k
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE league_key IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete disallowed events: %w", err)
	}
	return res.RowsAffected()
}

// DeleteWithoutProvider deletes events not referenced by provider
func (r *SQLiteEventRepository) DeleteWithoutProvider(ctx context.Context, provider string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE ext_provider IS NULL OR ext_id IS NULL OR ext_provider <> ?`, provider)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unreferenced events: %w", err)
	}
	return res.RowsAffected()
}

// EnsureSchema creates the events table and indexes
func (r *SQLiteEventRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range sqliteEventSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create events schema: %w", err)
		}
	}
	return nil
}
