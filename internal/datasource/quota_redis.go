package datasource

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQuotaStore shares the latest quota reading across ingestion processes and
// serves it back as a throttle predicate.
type RedisQuotaStore struct {
	client       redis.UniversalClient
	key          string
	minRemaining int
	ttl          time.Duration
}

// NewRedisQuotaStore creates a quota store on an existing redis client
func NewRedisQuotaStore(client redis.UniversalClient, key string, minRemaining int, ttl time.Duration) (*RedisQuotaStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = "sports_sims:provider_quota"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisQuotaStore{client: client, key: key, minRemaining: minRemaining, ttl: ttl}, nil
}

// ObserveQuota records the reading. Readings without a remaining count are
// ignored so the stored value never drops to zero on a partial response.
// Failures are swallowed: telemetry is best effort.
func (s *RedisQuotaStore) ObserveQuota(ctx context.Context, obs QuotaObservation) {
	if !obs.RemainingKnown {
		return
	}
	values := []interface{}{
		"label", obs.Label,
		"remaining", obs.Remaining,
		"at", obs.At.UTC().Format(time.RFC3339),
	}
	if obs.UsedKnown {
		values = append(values, "used", obs.Used)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key, values...)
	pipe.Expire(ctx, s.key, s.ttl)
	_, _ = pipe.Exec(ctx)
}

// Latest returns the last stored reading
func (s *RedisQuotaStore) Latest(ctx context.Context) (QuotaObservation, bool, error) {
	vals, err := s.client.HGetAll(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && len(vals) == 0) {
		return QuotaObservation{}, false, nil
	}
	if err != nil {
		return QuotaObservation{}, false, fmt.Errorf("failed to read quota: %w", err)
	}

	obs := QuotaObservation{Label: vals["label"]}
	if used, err := strconv.Atoi(vals["used"]); err == nil {
		obs.Used, obs.UsedKnown = used, true
	}
	obs.Remaining, err = strconv.Atoi(vals["remaining"])
	if err != nil {
		return QuotaObservation{}, false, nil
	}
	obs.RemainingKnown = true
	if at, err := time.Parse(time.RFC3339, vals["at"]); err == nil {
		obs.At = at
	}
	return obs, true, nil
}

// Throttled reports true once the remaining quota drops to the configured floor
func (s *RedisQuotaStore) Throttled(ctx context.Context) (bool, error) {
	obs, ok, err := s.Latest(ctx)
	if err != nil || !ok {
		return false, err
	}
	return obs.Remaining <= s.minRemaining, nil
}

// Close closes the underlying client
func (s *RedisQuotaStore) Close() error {
	return s.client.Close()
}
