package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/yourusername/sports-sims/internal/config"
)

// TestConfigEnv names the config file used by Postgres-backed tests
const TestConfigEnv = "SPORTS_SIMS_TEST_CONFIG"

// SetupTestSQLite opens a private in-memory SQLite database closed at test cleanup
func SetupTestSQLite(t *testing.T) *sql.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := OpenSQLite(ctx, MemoryDSN)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})
	return db
}

// SetupTestDB connects to the Postgres database named by the config file in
// SPORTS_SIMS_TEST_CONFIG. The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	path := os.Getenv(TestConfigEnv)
	if path == "" {
		t.Skipf("%s not set", TestConfigEnv)
	}
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}
