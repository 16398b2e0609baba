// Package league decides which provider competitions are ingested and how
// they are labelled.
package league

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yourusername/sports-sims/internal/models"
)

// Top-level competition keys admitted without an allowlist entry
const (
	KeyNBA = "basketball_nba"
	KeyNFL = "americanfootball_nfl"
)

const (
	soccerPrefix = "soccer_"
	tennisPrefix = "tennis_"
)

// TennisPrefixes are the tour prefixes whose events are all admitted
var TennisPrefixes = []string{"tennis_atp_", "tennis_wta_"}

var soccerTitles = map[string]string{
	"soccer_epl":                              "Premier League",
	"soccer_fa_cup":                           "FA Cup",
	"soccer_fifa_club_world_cup":              "FIFA Club World Cup",
	"soccer_fifa_world_cup":                   "FIFA World Cup",
	"soccer_fifa_world_cup_qualifiers_europe": "World Cup Qualifiers — Europe",
	"soccer_france_ligue_one":                 "Ligue 1",
	"soccer_germany_bundesliga":               "Bundesliga",
	"soccer_italy_serie_a":                    "Serie A",
	"soccer_spain_la_liga":                    "La Liga",
	"soccer_uefa_champs_league":               "UEFA Champions League",
	"soccer_uefa_champs_league_qualification": "UCL Qualifying",
	"soccer_uefa_euro_qualification":          "EURO Qualifying",
	"soccer_uefa_europa_conference_league":    "UEFA Europa Conference League",
	"soccer_uefa_europa_league":               "UEFA Europa League",
	"soccer_uefa_european_championship":       "EURO Championship",
	"soccer_uefa_nations_league":              "UEFA Nations League",
}

var tennisTitle = regexp.MustCompile(`^tennis_(atp|wta)_(.+)$`)

// SoccerAllowlist returns the admitted soccer competition keys, sorted
func SoccerAllowlist() []string {
	keys := make([]string, 0, len(soccerTitles))
	for k := range soccerTitles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsTopLevel reports whether key is one of the single-league sports
func IsTopLevel(key string) bool {
	return key == KeyNBA || key == KeyNFL
}

// IsAllowed applies the soccer allowlist and tennis tour prefixes. Soccer keys
// must be listed; anything else must carry a tennis tour prefix.
func IsAllowed(key string) bool {
	if key == "" {
		return false
	}
	if strings.HasPrefix(key, soccerPrefix) {
		_, ok := soccerTitles[key]
		return ok
	}
	return hasTennisPrefix(key)
}

// Admit is the ingestion gate: top-level keys or allowlisted leagues
func Admit(key string) bool {
	return IsTopLevel(key) || IsAllowed(key)
}

// Blocked reports whether key is a soccer or tennis competition outside the
// allowlist. Such keys are never fetched or written, even when named
// explicitly; other unknown keys fall through to sport mapping.
func Blocked(key string) bool {
	return (strings.HasPrefix(key, soccerPrefix) || strings.HasPrefix(key, tennisPrefix)) && !IsAllowed(key)
}

func hasTennisPrefix(key string) bool {
	for _, p := range TennisPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// SportFor maps a competition key to its sport category
func SportFor(key string) (models.Sport, bool) {
	switch {
	case strings.HasPrefix(key, soccerPrefix):
		return models.SportSoccer, true
	case hasTennisPrefix(key):
		return models.SportTennis, true
	case key == KeyNBA:
		return models.SportNBA, true
	case key == KeyNFL:
		return models.SportNFL, true
	default:
		return "", false
	}
}

// PrettyTitle returns a display title for a competition key
func PrettyTitle(key string) string {
	if title, ok := soccerTitles[key]; ok {
		return title
	}
	if m := tennisTitle.FindStringSubmatch(key); m != nil {
		return strings.ToUpper(m[1]) + " " + capitalizeWords(m[2])
	}
	return capitalizeWords(key)
}

func capitalizeWords(s string) string {
	parts := strings.Split(s, "_")
	for i, w := range parts {
		if w == "" {
			continue
		}
		parts[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(parts, " ")
}
