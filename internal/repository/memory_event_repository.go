package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sports-sims/internal/models"
)

// MemoryEventRepository keeps events in process memory
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*models.Event
	byRef  map[models.ExternalRef]uuid.UUID
	now    func() time.Time
}

// NewMemoryEventRepository creates an empty in-memory event store
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[uuid.UUID]*models.Event),
		byRef:  make(map[models.ExternalRef]uuid.UUID),
		now:    time.Now,
	}
}

func cloneEvent(ev *models.Event) *models.Event {
	c := *ev
	if ev.MarketOdds != nil {
		m := *ev.MarketOdds
		c.MarketOdds = &m
	}
	if ev.RecentForm != nil {
		f := *ev.RecentForm
		c.RecentForm = &f
	}
	if ev.Ext != nil {
		e := *ev.Ext
		c.Ext = &e
	}
	c.BookmakerOdds = append([]models.BookmakerQuote(nil), ev.BookmakerOdds...)
	return &c
}

func applyScore(ev *models.Event, f models.ScoreFields) {
	ev.Status = f.Status
	ev.Completed = f.Completed
	ev.Score = f.Score
	ev.LastScoreUpdate = timePtr(f.LastScoreUpdate)
	ev.LastUpdated = timePtr(f.LastUpdated)
}

// UpdateByExternalRef implements EventRepository
func (r *MemoryEventRepository) UpdateByExternalRef(ctx context.Context, ref models.ExternalRef, fields models.ScoreFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byRef[ref]
	if !ok {
		return false, nil
	}
	ev := r.events[id]
	applyScore(ev, fields)
	ev.UpdatedAt = r.now()
	return true, nil
}

// UpdateByIdentityWindow implements EventRepository
func (r *MemoryEventRepository) UpdateByIdentityWindow(ctx context.Context, w IdentityWindow, fields models.ScoreFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lo, hi := w.Bounds()
	var match *models.Event
	for _, ev := range r.events {
		if ev.LeagueKey != w.LeagueKey || ev.HomeTeam != w.HomeTeam || ev.AwayTeam != w.AwayTeam {
			continue
		}
		if ev.StartTime.Before(lo) || ev.StartTime.After(hi) {
			continue
		}
		if match == nil || ev.StartTime.Before(match.StartTime) {
			match = ev
		}
	}
	if match == nil {
		return false, nil
	}
	applyScore(match, fields)
	match.UpdatedAt = r.now()
	return true, nil
}

// UpsertByExternalRef implements EventRepository
func (r *MemoryEventRepository) UpsertByExternalRef(ctx context.Context, identity models.EventIdentity, fields models.ScoreFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if id, ok := r.byRef[identity.Ext]; ok {
		ev := r.events[id]
		applyScore(ev, fields)
		ev.UpdatedAt = now
		return false, nil
	}

	ext := identity.Ext
	ev := &models.Event{
		ID:          uuid.New(),
		Sport:       identity.Sport,
		LeagueKey:   identity.LeagueKey,
		LeagueTitle: identity.LeagueTitle,
		HomeTeam:    identity.HomeTeam,
		AwayTeam:    identity.AwayTeam,
		StartTime:   identity.StartTime,
		Ext:         &ext,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyScore(ev, fields)
	r.events[ev.ID] = ev
	r.byRef[ext] = ev.ID
	return true, nil
}

// UpsertOdds implements EventRepository
func (r *MemoryEventRepository) UpsertOdds(ctx context.Context, f models.OddsFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	ev, exists := r.lookupRef(f.Ext)
	if !exists {
		ext := f.Ext
		ev = &models.Event{ID: uuid.New(), Ext: &ext, CreatedAt: now}
		r.events[ev.ID] = ev
		r.byRef[ext] = ev.ID
	}

	ml := f.MarketOdds
	ev.Sport = f.Sport
	ev.LeagueKey = f.LeagueKey
	ev.LeagueTitle = f.LeagueTitle
	ev.LeagueGroup = f.LeagueGroup
	ev.VendorSportTitle = f.VendorSportTitle
	ev.HomeTeam = f.HomeTeam
	ev.AwayTeam = f.AwayTeam
	ev.StartTime = f.StartTime
	ev.MarketOdds = &ml
	ev.BookmakerOdds = append([]models.BookmakerQuote(nil), f.BookmakerOdds...)
	ev.LastUpdated = timePtr(f.LastUpdated)
	ev.UpdatedAt = now
	return !exists, nil
}

func (r *MemoryEventRepository) lookupRef(ref models.ExternalRef) (*models.Event, bool) {
	id, ok := r.byRef[ref]
	if !ok {
		return nil, false
	}
	return r.events[id], true
}

// GetByID implements EventRepository
func (r *MemoryEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneEvent(ev), nil
}

// GetByExternalRef implements EventRepository
func (r *MemoryEventRepository) GetByExternalRef(ctx context.Context, ref models.ExternalRef) (*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.lookupRef(ref)
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneEvent(ev), nil
}

// List implements EventRepository
func (r *MemoryEventRepository) List(ctx context.Context, filter models.EventFilter) ([]*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Event, 0)
	for _, ev := range r.events {
		if inFilter(ev, filter) {
			out = append(out, cloneEvent(ev))
		}
	}
	sortEvents(out)
	return out, nil
}

// DistinctLeagues implements EventRepository
func (r *MemoryEventRepository) DistinctLeagues(ctx context.Context, since time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, ev := range r.events {
		if ev.LeagueKey == "" || ev.StartTime.Before(since) {
			continue
		}
		seen[ev.LeagueKey] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// SportExists implements EventRepository
func (r *MemoryEventRepository) SportExists(ctx context.Context, sport models.Sport, since time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ev := range r.events {
		if ev.Sport == sport && !ev.StartTime.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// UpdateBookmakerOdds implements EventRepository
func (r *MemoryEventRepository) UpdateBookmakerOdds(ctx context.Context, id uuid.UUID, quotes []models.BookmakerQuote, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, ok := r.events[id]
	if !ok {
		return models.ErrNotFound
	}
	ev.BookmakerOdds = append([]models.BookmakerQuote(nil), quotes...)
	ev.LastUpdated = timePtr(at)
	ev.UpdatedAt = r.now()
	return nil
}

// Insert implements EventRepository
func (r *MemoryEventRepository) Insert(ctx context.Context, ev *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if _, ok := r.events[ev.ID]; ok {
		return models.ErrDuplicateKey
	}
	if ev.HasProviderRef() {
		if _, ok := r.byRef[*ev.Ext]; ok {
			return models.ErrDuplicateKey
		}
	}
	now := r.now()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	ev.UpdatedAt = now

	stored := cloneEvent(ev)
	r.events[stored.ID] = stored
	if stored.HasProviderRef() {
		r.byRef[*stored.Ext] = stored.ID
	}
	return nil
}

// DeleteDisallowed implements EventRepository
func (r *MemoryEventRepository) DeleteDisallowed(ctx context.Context, keep func(string) bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, ev := range r.events {
		if keep(ev.LeagueKey) {
			continue
		}
		r.remove(id, ev)
		n++
	}
	return n, nil
}

// DeleteWithoutProvider implements EventRepository
func (r *MemoryEventRepository) DeleteWithoutProvider(ctx context.Context, provider string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, ev := range r.events {
		if ev.Ext != nil && ev.Ext.Provider == provider {
			continue
		}
		r.remove(id, ev)
		n++
	}
	return n, nil
}

func (r *MemoryEventRepository) remove(id uuid.UUID, ev *models.Event) {
	delete(r.events, id)
	if ev.Ext != nil {
		delete(r.byRef, *ev.Ext)
	}
}

// EnsureSchema implements EventRepository
func (r *MemoryEventRepository) EnsureSchema(ctx context.Context) error {
	return nil
}

var _ EventRepository = (*MemoryEventRepository)(nil)
