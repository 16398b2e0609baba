// Package config provides configuration management for the sports-sims services.
package config

import (
	"fmt"
	"time"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Store     StoreConfig     `mapstructure:"store" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Provider  ProviderConfig  `mapstructure:"provider" validate:"required"`
	Ingestion IngestionConfig `mapstructure:"ingestion" validate:"required"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// StoreConfig selects the event store implementation
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,storedriver"`
}

// DatabaseConfig represents PostgreSQL connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MinConnections int    `mapstructure:"min_connections" validate:"omitempty,gte=0"`
}

// SQLiteConfig represents the local SQLite store
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig configures the shared quota snapshot. Empty URL disables it.
type RedisConfig struct {
	URL          string `mapstructure:"url"`
	QuotaKey     string `mapstructure:"quota_key"`
	MinRemaining int    `mapstructure:"min_remaining" validate:"gte=0"`
}

// ProviderConfig represents The Odds API configuration
type ProviderConfig struct {
	BaseURL                  string  `mapstructure:"base_url" validate:"required,url"`
	APIKey                   string  `mapstructure:"api_key"`
	Regions                  string  `mapstructure:"regions" validate:"required"`
	Markets                  string  `mapstructure:"markets" validate:"required"`
	OddsFormat               string  `mapstructure:"odds_format" validate:"required,oneof=american decimal"`
	PreferredBookmaker       string  `mapstructure:"preferred_bookmaker"`
	TimeoutSeconds           int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxAttempts              int     `mapstructure:"max_attempts" validate:"required,gte=1,lte=10"`
	BackoffBaseMillis        int     `mapstructure:"backoff_base_millis" validate:"required,gt=0"`
	RateLimitPerSecond       float64 `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	CompetitionsCacheMinutes int     `mapstructure:"competitions_cache_minutes" validate:"gte=0"`
}

// IngestionConfig represents odds and score sync configuration
type IngestionConfig struct {
	OddsKeys          []string `mapstructure:"odds_keys" validate:"required,min=1"`
	ScoreKeys         []string `mapstructure:"score_keys"`
	ScoreInclude      []string `mapstructure:"score_include"`
	ScoreExclude      []string `mapstructure:"score_exclude"`
	ScoreLookbackDays int      `mapstructure:"score_lookback_days" validate:"required,gte=1,lte=3"`
	PauseMillis       int      `mapstructure:"pause_millis" validate:"gte=0"`
	OddsSchedule      string   `mapstructure:"odds_schedule" validate:"required"`
	ScoresSchedule    string   `mapstructure:"scores_schedule" validate:"required"`
}

// ForecastConfig represents forecast engine configuration
type ForecastConfig struct {
	Seed int64 `mapstructure:"seed"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SecretsConfig controls the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// DSN returns the key/value connection string understood by pgx
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// ProviderTimeout returns the per-request provider timeout
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// ProviderBackoffBase returns the base of the quadratic retry backoff
func (c *Config) ProviderBackoffBase() time.Duration {
	return time.Duration(c.Provider.BackoffBaseMillis) * time.Millisecond
}

// IngestionPause returns the pause inserted between competitions
func (c *Config) IngestionPause() time.Duration {
	return time.Duration(c.Ingestion.PauseMillis) * time.Millisecond
}
