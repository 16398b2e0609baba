package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sports-sims/internal/models"
)

// MemoryForecastRepository keeps saved forecasts in process memory
type MemoryForecastRepository struct {
	mu        sync.Mutex
	forecasts map[uuid.UUID]*models.Forecast
	now       func() time.Time
}

// NewMemoryForecastRepository creates an empty in-memory forecast store
func NewMemoryForecastRepository() *MemoryForecastRepository {
	return &MemoryForecastRepository{
		forecasts: make(map[uuid.UUID]*models.Forecast),
		now:       time.Now,
	}
}

// Create implements ForecastRepository
func (r *MemoryForecastRepository) Create(ctx context.Context, f *models.Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	now := r.now()
	for _, existing := range r.forecasts {
		if existing.UserID == f.UserID {
			existing.Order++
			existing.UpdatedAt = now
		}
	}
	f.Order = 0
	f.CreatedAt = now
	f.UpdatedAt = now

	c := *f
	r.forecasts[f.ID] = &c
	return nil
}

// GetByID implements ForecastRepository
func (r *MemoryForecastRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Forecast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.forecasts[id]
	if !ok || f.UserID != userID {
		return nil, models.ErrNotFound
	}
	c := *f
	return &c, nil
}

// ListByUser implements ForecastRepository
func (r *MemoryForecastRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]*models.Forecast, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, perPage = normalizePage(page, perPage)
	var all []*models.Forecast
	for _, f := range r.forecasts {
		if f.UserID == userID {
			c := *f
			all = append(all, &c)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Order != all[j].Order {
			return all[i].Order < all[j].Order
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := page * perPage
	if start >= total {
		return []*models.Forecast{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// Update implements ForecastRepository
func (r *MemoryForecastRepository) Update(ctx context.Context, f *models.Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.forecasts[f.ID]
	if !ok || stored.UserID != f.UserID {
		return models.ErrNotFound
	}
	stored.Params = f.Params
	stored.Result = f.Result
	stored.UpdatedAt = r.now()
	*f = *stored
	return nil
}

// Delete implements ForecastRepository
func (r *MemoryForecastRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.forecasts[id]
	if !ok || f.UserID != userID {
		return models.ErrNotFound
	}
	delete(r.forecasts, id)
	return nil
}

// EnsureSchema implements ForecastRepository
func (r *MemoryForecastRepository) EnsureSchema(ctx context.Context) error {
	return nil
}

var _ ForecastRepository = (*MemoryForecastRepository)(nil)
