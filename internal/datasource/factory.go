package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/config"
)

// Stack is a configured provider with the pieces built around it
type Stack struct {
	Provider Provider
	// Throttle is nil unless a shared quota store is configured
	Throttle Throttle
	HTTP     *RateLimitedHTTPClient
	closers  []io.Closer
}

// Close releases the HTTP client and any quota store connection
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory builds providers from configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
}

// NewFactory creates a new provider factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// HTTPClientConfig derives the retrying client settings from the provider section
func (f *Factory) HTTPClientConfig() HTTPClientConfig {
	p := f.config.Provider
	return HTTPClientConfig{
		Timeout: f.config.ProviderTimeout(),
		Retry: RetryPolicy{
			MaxAttempts: p.MaxAttempts,
			Backoff:     QuadraticBackoff(f.config.ProviderBackoffBase()),
		},
		RateLimit: p.RateLimitPerSecond,
	}
}

// OddsAPIConfig derives the Odds API client settings from the provider section
func (f *Factory) OddsAPIConfig() OddsAPIConfig {
	p := f.config.Provider
	return OddsAPIConfig{
		BaseURL:         p.BaseURL,
		APIKey:          p.APIKey,
		Regions:         p.Regions,
		Markets:         p.Markets,
		OddsFormat:      p.OddsFormat,
		CompetitionsTTL: time.Duration(p.CompetitionsCacheMinutes) * time.Minute,
	}
}

// NewStack builds the Odds API provider. Quota readings are always logged and
// exported; with a redis URL they are also shared and served back as a throttle.
// An unreachable redis is logged and the stack runs without a throttle.
func (f *Factory) NewStack(ctx context.Context) (*Stack, error) {
	if f.config == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if f.config.Provider.APIKey == "" {
		return nil, fmt.Errorf("provider api key is required")
	}

	httpClient := NewRateLimitedHTTPClient(f.HTTPClientConfig(), f.logger)
	stack := &Stack{HTTP: httpClient, closers: []io.Closer{httpClient}}

	observers := QuotaObservers{NewLogQuotaObserver(f.logger)}
	if store, err := f.quotaStore(ctx); err != nil {
		f.logger.WithError(err).Warn("Quota store unavailable, running without throttle")
	} else if store != nil {
		observers = append(observers, store)
		stack.Throttle = store
		stack.closers = append(stack.closers, store)
	}

	stack.Provider = NewOddsAPIClient(httpClient, f.OddsAPIConfig(), observers, f.logger)
	f.logger.WithField("provider", stack.Provider.Name()).Info("Created provider")
	return stack, nil
}

func (f *Factory) quotaStore(ctx context.Context) (*RedisQuotaStore, error) {
	rc := f.config.Redis
	if rc.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(rc.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisQuotaStore(client, rc.QuotaKey, rc.MinRemaining, 0)
}
