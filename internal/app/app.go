// Package app wires configuration, storage, the provider and the services
// shared by the command line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/config"
	"github.com/yourusername/sports-sims/internal/database"
	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/forecast"
	"github.com/yourusername/sports-sims/internal/health"
	"github.com/yourusername/sports-sims/internal/logger"
	"github.com/yourusername/sports-sims/internal/repository"
	"github.com/yourusername/sports-sims/internal/service"
)

// Options controls what Bootstrap builds
type Options struct {
	ConfigPath string
	// WithProvider builds the provider stack and the ingestion service
	WithProvider bool
}

// App holds the wired dependencies of one process
type App struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Repos     *repository.Repositories
	Stack     *datasource.Stack
	Ingestion *service.IngestionService
	Catalog   *service.CatalogService
	Forecasts *service.ForecastService
	Watchlist *service.WatchlistService

	checks  map[string]health.Pinger
	closers []func() error
}

// LoadConfig reads .env, the config file with defaults, the optional secrets
// overlay, and validates the result.
func LoadConfig(ctx context.Context, path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplySecrets(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap loads configuration and builds every dependency
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	cfg, err := LoadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, opts.WithProvider)
}

// New builds the dependencies for an already loaded configuration
func New(ctx context.Context, cfg *config.Config, withProvider bool) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment),
		checks: make(map[string]health.Pinger),
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	var provider datasource.Provider
	if withProvider {
		if err := config.RequireProviderKey(cfg); err != nil {
			a.Close()
			return nil, err
		}
		stack, err := datasource.NewFactory(cfg, a.Logger).NewStack(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to build provider: %w", err)
		}
		a.Stack = stack
		a.closers = append(a.closers, stack.Close)
		provider = stack.Provider

		a.Ingestion = service.NewIngestionService(provider, a.Repos.Events, service.IngestionOptions{
			PreferredBookmaker: cfg.Provider.PreferredBookmaker,
			Pause:              cfg.IngestionPause(),
			LookbackDays:       cfg.Ingestion.ScoreLookbackDays,
			Throttle:           stack.Throttle,
		}, a.Logger)
	}

	a.Catalog = service.NewCatalogService(a.Repos.Events, provider, a.Logger)
	a.Forecasts = service.NewForecastService(a.Repos.Events, a.Repos.Forecasts, provider, forecast.NewEngine(cfg.Forecast.Seed), a.Logger)
	a.Watchlist = service.NewWatchlistService(a.Repos.Events, a.Repos.Forecasts, a.Repos.Watchlist, a.Logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	entry := a.Logger.WithField("driver", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		repos, err := repository.NewPostgresRepositories(db)
		if err != nil {
			db.Close()
			return err
		}
		a.Repos = repos
		a.checks["database"] = db
		a.closers = append(a.closers, func() error { db.Close(); return nil })

	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		repos, err := repository.NewSQLiteRepositories(db)
		if err != nil {
			db.Close()
			return err
		}
		a.Repos = repos
		a.checks["database"] = health.PingFunc(db.PingContext)
		a.closers = append(a.closers, db.Close)

	case config.StoreDriverMemory:
		a.Repos = repository.NewMemoryRepositories()

	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := a.Repos.EnsureSchema(ctx); err != nil {
		a.Close()
		return err
	}
	entry.Info("Event store ready")
	return nil
}

// ReadinessChecks returns the pingers the health server gates readiness on
func (a *App) ReadinessChecks() map[string]health.Pinger {
	return a.checks
}

// Close releases everything Bootstrap opened, in reverse order
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.WithError(err).Warn("Failed to release resource")
		}
	}
	a.closers = nil
}
