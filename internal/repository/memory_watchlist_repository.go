package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sports-sims/internal/models"
)

// MemoryWatchlistRepository keeps watchlist items in process memory
type MemoryWatchlistRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.WatchlistItem
	now   func() time.Time
}

// NewMemoryWatchlistRepository creates an empty in-memory watchlist
func NewMemoryWatchlistRepository() *MemoryWatchlistRepository {
	return &MemoryWatchlistRepository{
		items: make(map[uuid.UUID]*models.WatchlistItem),
		now:   time.Now,
	}
}

// Add implements WatchlistRepository
func (r *MemoryWatchlistRepository) Add(ctx context.Context, item *models.WatchlistItem) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := item.ForecastKey()
	for _, existing := range r.items {
		if existing.UserID == item.UserID && existing.EventID == item.EventID && existing.ForecastKey() == key {
			item.ID = existing.ID
			item.AddedAt = existing.AddedAt
			return false, nil
		}
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.AddedAt = r.now()
	c := *item
	r.items[item.ID] = &c
	return true, nil
}

// Remove implements WatchlistRepository
func (r *MemoryWatchlistRepository) Remove(ctx context.Context, userID string, eventID uuid.UUID) error {
	return r.removeWhere(func(w *models.WatchlistItem) bool {
		return w.UserID == userID && w.EventID == eventID && w.ForecastID == nil
	})
}

// RemoveForecast implements WatchlistRepository
func (r *MemoryWatchlistRepository) RemoveForecast(ctx context.Context, userID string, forecastID uuid.UUID) error {
	return r.removeWhere(func(w *models.WatchlistItem) bool {
		return w.UserID == userID && w.ForecastID != nil && *w.ForecastID == forecastID
	})
}

func (r *MemoryWatchlistRepository) removeWhere(match func(*models.WatchlistItem) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, w := range r.items {
		if match(w) {
			delete(r.items, id)
			return nil
		}
	}
	return models.ErrNotFound
}

// ListByUser implements WatchlistRepository
func (r *MemoryWatchlistRepository) ListByUser(ctx context.Context, userID string) ([]*models.WatchlistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.WatchlistItem{}
	for _, w := range r.items {
		if w.UserID == userID {
			c := *w
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out, nil
}

// EnsureSchema implements WatchlistRepository
func (r *MemoryWatchlistRepository) EnsureSchema(ctx context.Context) error {
	return nil
}

var _ WatchlistRepository = (*MemoryWatchlistRepository)(nil)
