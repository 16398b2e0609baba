package repository

import (
	"encoding/json"
	"fmt"

	"github.com/yourusername/sports-sims/internal/models"
)

// eventColumns is the column order every event SELECT uses
const eventColumns = `id, sport, league_key, league_title, league_group, vendor_sport_title,
	home_team, away_team, start_time, market_home, market_away, bookmaker_odds,
	form_home, form_away, ext_provider, ext_id, status, score_home, score_away,
	completed, last_score_update, last_updated, created_at, updated_at`

// eventRow carries the nullable and encoded columns shared by both SQL backends
type eventRow struct {
	sport      string
	status     string
	marketHome *int
	marketAway *int
	formHome   *float64
	formAway   *float64
	extProv    *string
	extID      *string
	odds       []byte
}

func (r *eventRow) apply(ev *models.Event) error {
	ev.Sport = models.Sport(r.sport)
	ev.Status = models.EventStatus(r.status)
	if r.marketHome != nil && r.marketAway != nil {
		ev.MarketOdds = &models.Moneyline{Home: *r.marketHome, Away: *r.marketAway}
	}
	if r.formHome != nil && r.formAway != nil {
		ev.RecentForm = &models.RecentForm{Home: *r.formHome, Away: *r.formAway}
	}
	if r.extProv != nil && r.extID != nil {
		ev.Ext = &models.ExternalRef{Provider: *r.extProv, ID: *r.extID}
	}
	if len(r.odds) > 0 {
		if err := json.Unmarshal(r.odds, &ev.BookmakerOdds); err != nil {
			return fmt.Errorf("failed to decode bookmaker odds: %w", err)
		}
	}
	return nil
}

func encodeQuotes(quotes []models.BookmakerQuote) ([]byte, error) {
	if quotes == nil {
		quotes = []models.BookmakerQuote{}
	}
	b, err := json.Marshal(quotes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bookmaker odds: %w", err)
	}
	return b, nil
}

func marketColumns(ml *models.Moneyline) (*int, *int) {
	if ml == nil {
		return nil, nil
	}
	h, a := ml.Home, ml.Away
	return &h, &a
}

func formColumns(f *models.RecentForm) (*float64, *float64) {
	if f == nil {
		return nil, nil
	}
	h, a := f.Home, f.Away
	return &h, &a
}

func extColumns(ext *models.ExternalRef) (*string, *string) {
	if ext == nil || ext.Provider == "" || ext.ID == "" {
		return nil, nil
	}
	p, id := ext.Provider, ext.ID
	return &p, &id
}

func disallowedKeys(keys []string, keep func(string) bool) []string {
	var out []string
	for _, k := range keys {
		if !keep(k) {
			out = append(out, k)
		}
	}
	return out
}
