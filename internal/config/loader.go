package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "SPORTS_SIMS"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := readExpanded(v, data); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := readExpanded(v, data); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func readExpanded(v *viper.Viper, data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sports-sims")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("store.driver", StoreDriverSQLite)
	v.SetDefault("sqlite.path", "sports-sims.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "sports_sims")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.quota_key", "sports_sims:provider_quota")
	v.SetDefault("redis.min_remaining", 0)

	v.SetDefault("provider.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.regions", "us")
	v.SetDefault("provider.markets", "h2h")
	v.SetDefault("provider.odds_format", "american")
	v.SetDefault("provider.preferred_bookmaker", "")
	v.SetDefault("provider.timeout_seconds", 15)
	v.SetDefault("provider.max_attempts", 3)
	v.SetDefault("provider.backoff_base_millis", 500)
	v.SetDefault("provider.rate_limit_per_second", 5.0)
	v.SetDefault("provider.competitions_cache_minutes", 30)

	v.SetDefault("ingestion.odds_keys", []string{"basketball_nba", "americanfootball_nfl", "soccer_", "tennis_"})
	v.SetDefault("ingestion.score_keys", []string{})
	v.SetDefault("ingestion.score_include", []string{})
	v.SetDefault("ingestion.score_exclude", []string{})
	v.SetDefault("ingestion.score_lookback_days", 2)
	v.SetDefault("ingestion.pause_millis", 350)
	v.SetDefault("ingestion.odds_schedule", "*/30 * * * *")
	v.SetDefault("ingestion.scores_schedule", "*/10 * * * *")

	v.SetDefault("forecast.seed", 0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("secrets.enabled", false)
	v.SetDefault("secrets.region", "us-east-1")
	v.SetDefault("secrets.secret_name", "sports-sims/provider")
}
