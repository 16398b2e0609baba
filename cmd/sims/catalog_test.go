package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/service"
)

func writeFixtures(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFixtures(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		fixtures, err := loadFixtures("")
		require.NoError(t, err)
		assert.Equal(t, service.DefaultSeedFixtures(), fixtures)
	})

	t.Run("file", func(t *testing.T) {
		path := writeFixtures(t, `
events:
  - sport: Soccer
    league: soccer_epl
    home: Arsenal
    away: Chelsea
    starts_in_hours: 26.5
    home_ml: -120
    away_ml: 310
`)
		fixtures, err := loadFixtures(path)
		require.NoError(t, err)
		require.Len(t, fixtures, 1)
		f := fixtures[0]
		assert.Equal(t, models.SportSoccer, f.Sport)
		assert.Equal(t, "soccer_epl", f.League)
		assert.Equal(t, "Arsenal", f.Home)
		assert.Equal(t, 26.5, f.StartsInHours)
		assert.Equal(t, -120, f.HomeML)
		assert.Equal(t, 310, f.AwayML)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := loadFixtures(writeFixtures(t, "events: []\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadFixtures(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestDisplayHelpers(t *testing.T) {
	assert.Equal(t, "-", moneyline(nil))
	assert.Equal(t, "-150 / +130", moneyline(&models.Moneyline{Home: -150, Away: 130}))

	home, away := 3, 1
	assert.Equal(t, "3-1", score(models.Score{Home: &home, Away: &away}))
	assert.Equal(t, "-", score(models.Score{Home: &home}))

	assert.Equal(t, "-", price(nil))
	assert.Equal(t, "+250", price(intPtr(250)))
	assert.Equal(t, "-", implied(nil))

	assert.Equal(t, "61.25%", pct(0.6125))
	assert.Equal(t, "100.00%", pct(1))
}

func intPtr(v int) *int { return &v }
