package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/league"
	"github.com/yourusername/sports-sims/internal/logger"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/odds"
	"github.com/yourusername/sports-sims/internal/repository"
)

// IdentityWindow is the tolerance between stored and provider start times for a tier-2 match
const IdentityWindow = 24 * time.Hour

// ReconcileOutcome is how a provider record was applied to the catalog
type ReconcileOutcome int

const (
	OutcomeNoMatch ReconcileOutcome = iota
	OutcomeMatchedByRef
	OutcomeMatchedByWindow
	OutcomeCreated
	OutcomeUpserted
	OutcomeUnknownMapping
	OutcomeNoMoneyline
	OutcomeDisallowed
)

func (o ReconcileOutcome) String() string {
	switch o {
	case OutcomeMatchedByRef:
		return "matched_by_ref"
	case OutcomeMatchedByWindow:
		return "matched_by_window"
	case OutcomeCreated:
		return "created"
	case OutcomeUpserted:
		return "upserted"
	case OutcomeUnknownMapping:
		return "unknown_mapping"
	case OutcomeNoMoneyline:
		return "no_moneyline"
	case OutcomeDisallowed:
		return "disallowed"
	default:
		return "no_match"
	}
}

// BatchContext carries per-run lookups built once at the start of a sync and
// threaded through every reconciliation call of that run.
type BatchContext struct {
	Provider           string
	Competitions       map[string]datasource.Competition
	Today              models.DayWindow
	PreferredBookmaker string
	Now                time.Time
}

// NewBatchContext builds a batch context for a run starting at now
func NewBatchContext(provider string, competitions []datasource.Competition, preferred string, now time.Time) BatchContext {
	byKey := make(map[string]datasource.Competition, len(competitions))
	for _, c := range competitions {
		byKey[c.Key] = c
	}
	return BatchContext{
		Provider:           provider,
		Competitions:       byKey,
		Today:              models.TodayWindow(now),
		PreferredBookmaker: preferred,
		Now:                now,
	}
}

// EventReconciler applies provider odds and scores to the event catalog
type EventReconciler struct {
	events repository.EventRepository
	window time.Duration
	log    *logger.IngestionLogger
}

// NewEventReconciler creates a reconciler over the given store
func NewEventReconciler(events repository.EventRepository, log *logrus.Logger) *EventReconciler {
	return &EventReconciler{
		events: events,
		window: IdentityWindow,
		log:    logger.NewIngestionLogger(log),
	}
}

// ReconcileScore applies one score update. Tiers run in order and the first
// match wins: provider reference, then league and teams within the identity
// window, then creation when the event starts inside batch.Today. Updates for
// blocked leagues touch nothing.
func (r *EventReconciler) ReconcileScore(ctx context.Context, u datasource.ScoreUpdate, batch BatchContext) (ReconcileOutcome, error) {
	if league.Blocked(u.SportKey) {
		return r.done(u.SportKey, u.ID, OutcomeDisallowed), nil
	}

	fields := models.ScoreFields{
		Status:          u.Status,
		Completed:       u.Completed,
		Score:           u.Score,
		LastScoreUpdate: u.LastScoreUpdate,
		LastUpdated:     batch.Now,
	}
	ref := models.ExternalRef{Provider: batch.Provider, ID: u.ID}

	ok, err := r.events.UpdateByExternalRef(ctx, ref, fields)
	if err != nil {
		return OutcomeNoMatch, fmt.Errorf("reconcile %s by reference: %w", u.ID, err)
	}
	if ok {
		return r.done(u.SportKey, u.ID, OutcomeMatchedByRef), nil
	}

	ok, err = r.events.UpdateByIdentityWindow(ctx, repository.IdentityWindow{
		LeagueKey: u.SportKey,
		HomeTeam:  u.HomeTeam,
		AwayTeam:  u.AwayTeam,
		Commence:  u.CommenceTime,
		Window:    r.window,
	}, fields)
	if err != nil {
		return OutcomeNoMatch, fmt.Errorf("reconcile %s by identity window: %w", u.ID, err)
	}
	if ok {
		return r.done(u.SportKey, u.ID, OutcomeMatchedByWindow), nil
	}

	if !batch.Today.Contains(u.CommenceTime) {
		return r.done(u.SportKey, u.ID, OutcomeNoMatch), nil
	}

	sport, ok := league.SportFor(u.SportKey)
	if !ok {
		r.log.WithField("competition", u.SportKey).Warn("No sport mapping for score update")
		return r.done(u.SportKey, u.ID, OutcomeUnknownMapping), nil
	}

	created, err := r.events.UpsertByExternalRef(ctx, models.EventIdentity{
		Sport:       sport,
		LeagueKey:   u.SportKey,
		LeagueTitle: r.title(u.SportKey, batch),
		HomeTeam:    u.HomeTeam,
		AwayTeam:    u.AwayTeam,
		StartTime:   u.CommenceTime,
		Ext:         ref,
	}, fields)
	if err != nil {
		return OutcomeNoMatch, fmt.Errorf("reconcile %s by upsert: %w", u.ID, err)
	}
	if !created {
		// lost a race with another writer that inserted the same reference
		return r.done(u.SportKey, u.ID, OutcomeMatchedByRef), nil
	}
	return r.done(u.SportKey, u.ID, OutcomeCreated), nil
}

// ReconcileOdds upserts one provider odds event keyed on its reference.
// Events from blocked leagues or without a consensus moneyline or sport
// mapping are skipped.
func (r *EventReconciler) ReconcileOdds(ctx context.Context, ev datasource.OddsEvent, batch BatchContext) (ReconcileOutcome, error) {
	if league.Blocked(ev.SportKey) {
		return r.done(ev.SportKey, ev.ID, OutcomeDisallowed), nil
	}
	ml, ok := odds.ExtractConsensusMoneyline(ev, batch.PreferredBookmaker)
	if !ok {
		return r.done(ev.SportKey, ev.ID, OutcomeNoMoneyline), nil
	}
	sport, ok := league.SportFor(ev.SportKey)
	if !ok {
		return r.done(ev.SportKey, ev.ID, OutcomeUnknownMapping), nil
	}

	info := batch.Competitions[ev.SportKey]
	created, err := r.events.UpsertOdds(ctx, models.OddsFields{
		Sport:            sport,
		LeagueKey:        ev.SportKey,
		LeagueTitle:      r.title(ev.SportKey, batch),
		LeagueGroup:      info.Group,
		VendorSportTitle: ev.SportTitle,
		HomeTeam:         ev.HomeTeam,
		AwayTeam:         ev.AwayTeam,
		StartTime:        ev.CommenceTime,
		MarketOdds:       ml,
		BookmakerOdds:    odds.Normalize(ev, batch.Now),
		Ext:              models.ExternalRef{Provider: batch.Provider, ID: ev.ID},
		LastUpdated:      batch.Now,
	})
	if err != nil {
		return OutcomeNoMatch, fmt.Errorf("upsert odds for %s: %w", ev.ID, err)
	}
	if created {
		return r.done(ev.SportKey, ev.ID, OutcomeCreated), nil
	}
	return r.done(ev.SportKey, ev.ID, OutcomeUpserted), nil
}

func (r *EventReconciler) title(key string, batch BatchContext) string {
	if c, ok := batch.Competitions[key]; ok && c.Title != "" {
		return c.Title
	}
	return league.PrettyTitle(key)
}

func (r *EventReconciler) done(key, id string, outcome ReconcileOutcome) ReconcileOutcome {
	r.log.LogReconciliation(key, id, outcome.String())
	return outcome
}
