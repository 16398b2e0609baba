package league

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/models"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"soccer_epl", true},
		{"soccer_uefa_nations_league", true},
		{"soccer_usa_mls", false},
		{"tennis_atp_wimbledon", true},
		{"tennis_wta_us_open", true},
		{"tennis_itf_futures", false},
		{"basketball_nba", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowed(tt.key))
		})
	}
}

func TestAdmitIncludesTopLevel(t *testing.T) {
	assert.True(t, Admit(KeyNBA))
	assert.True(t, Admit(KeyNFL))
	assert.True(t, Admit("soccer_epl"))
	assert.False(t, Admit("basketball_euroleague"))
	assert.Len(t, SoccerAllowlist(), 16)
}

func TestBlocked(t *testing.T) {
	assert.True(t, Blocked("soccer_brazil_campeonato"))
	assert.True(t, Blocked("tennis_itf_men"))
	assert.False(t, Blocked("soccer_epl"))
	assert.False(t, Blocked("tennis_wta_wimbledon"))
	assert.False(t, Blocked(KeyNBA))
	assert.False(t, Blocked("icehockey_nhl"))
}

func TestSportFor(t *testing.T) {
	tests := []struct {
		key   string
		sport models.Sport
		ok    bool
	}{
		{"soccer_usa_mls", models.SportSoccer, true},
		{"tennis_wta_us_open", models.SportTennis, true},
		{"basketball_nba", models.SportNBA, true},
		{"americanfootball_nfl", models.SportNFL, true},
		{"americanfootball_ncaaf", "", false},
		{"tennis_itf_futures", "", false},
	}
	for _, tt := range tests {
		sport, ok := SportFor(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.sport, sport, tt.key)
	}
}

func TestPrettyTitle(t *testing.T) {
	assert.Equal(t, "Premier League", PrettyTitle("soccer_epl"))
	assert.Equal(t, "ATP Wimbledon", PrettyTitle("tennis_atp_wimbledon"))
	assert.Equal(t, "WTA Us Open", PrettyTitle("tennis_wta_us_open"))
	assert.Equal(t, "Basketball Nba", PrettyTitle("basketball_nba"))
}

func TestResolveKeys(t *testing.T) {
	catalog := []datasource.Competition{
		{Key: "basketball_nba"},
		{Key: "basketball_euroleague"},
		{Key: "soccer_epl"},
		{Key: "soccer_usa_mls"},
		{Key: "soccer_spain_la_liga"},
		{Key: "tennis_atp_wimbledon"},
		{Key: "tennis_itf_futures"},
	}

	keys := ResolveKeys([]string{"basketball_", "soccer_", " tennis_ ", "soccer_usa_mls", "americanfootball_nfl", "soccer_epl", ""}, catalog)
	assert.Equal(t, []string{
		"basketball_nba",
		"soccer_epl",
		"soccer_spain_la_liga",
		"tennis_atp_wimbledon",
		"americanfootball_nfl",
	}, keys)

	assert.True(t, NeedsCatalog([]string{"basketball_nba", "soccer_"}))
	assert.False(t, NeedsCatalog([]string{"basketball_nba"}))
}

func TestFilterKeys(t *testing.T) {
	keys := []string{"basketball_nba", "soccer_epl", "tennis_atp_wimbledon"}

	assert.Equal(t, keys, FilterKeys(keys, nil, nil))
	assert.Equal(t, []string{"soccer_epl"}, FilterKeys(keys, []string{"soccer_epl"}, nil))
	assert.Equal(t, []string{"basketball_nba", "tennis_atp_wimbledon"}, FilterKeys(keys, nil, []string{"soccer_epl"}))
	assert.Equal(t, []string{"a", "b"}, ParseCSV(" a, ,b,"))
}
