package forecast

import (
	"math"

	"github.com/yourusername/sports-sims/internal/models"
)

// DefaultFormWindow is the number of most recent games considered
const DefaultFormWindow = 8

const formDecay = 0.7

// GameResult is one past game from a team's perspective, most recent first
type GameResult struct {
	Won  bool
	Draw bool
}

// RecentForm scores a team's last k games in [0,1] with weight 0.7^i for the
// i-th most recent game. Soccer draws count half. No games gives 0.5.
func RecentForm(games []GameResult, sport models.Sport, k int) float64 {
	if k <= 0 {
		k = DefaultFormWindow
	}
	if len(games) > k {
		games = games[:k]
	}

	var score, weightSum float64
	for i, g := range games {
		w := math.Pow(formDecay, float64(i))
		score += w * gameScore(g, sport)
		weightSum += w
	}
	if weightSum == 0 {
		return 0.5
	}
	return score / weightSum
}

func gameScore(g GameResult, sport models.Sport) float64 {
	if sport == models.SportSoccer && g.Draw {
		return 0.5
	}
	if g.Won {
		return 1
	}
	return 0
}
