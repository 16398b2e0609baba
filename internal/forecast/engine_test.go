package forecast

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sports-sims/internal/models"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func eventWith(homeML int, form *models.RecentForm) *models.Event {
	return &models.Event{
		Sport:      models.SportNBA,
		HomeTeam:   "Lakers",
		AwayTeam:   "Celtics",
		MarketOdds: &models.Moneyline{Home: homeML, Away: 130},
		RecentForm: form,
	}
}

func TestForecastEndToEnd(t *testing.T) {
	engine := NewEngine(42)
	ev := eventWith(-150, &models.RecentForm{Home: 0.6, Away: 0.4})

	res, err := engine.Forecast(context.Background(), ev, Params{
		Trials:         intPtr(100000),
		HomeFormWeight: floatPtr(0.8),
		AwayFormWeight: floatPtr(0.2),
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.6, res.BaseP, 1e-9)
	assert.InDelta(t, 0.6, res.RecentP, 1e-9)
	assert.Equal(t, 100000, res.Trials)
	assert.GreaterOrEqual(t, res.HomeWinPct, 0.594)
	assert.LessOrEqual(t, res.HomeWinPct, 0.606)
}

func TestForecastExactComplement(t *testing.T) {
	engine := NewEngine(0)
	for _, ml := range []int{-400, -150, -110, 100, 120, 350} {
		res, err := engine.Forecast(context.Background(), eventWith(ml, nil), Params{FormWeight: floatPtr(0.3)})
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.HomeWinPct+res.AwayWinPct, "ml=%d", ml)
		assert.Equal(t, 1-res.HomeWinPct, res.AwayWinPct)
	}
}

func TestForecastConcentratesAroundP(t *testing.T) {
	engine := &Engine{}
	ev := eventWith(-150, nil)
	for i := 0; i < 20; i++ {
		res, err := engine.Forecast(context.Background(), ev, Params{Trials: intPtr(10000)})
		require.NoError(t, err)
		assert.InDelta(t, 0.6, res.HomeWinPct, 0.05)
	}
}

func TestForecastDeterministicWithSeed(t *testing.T) {
	ev := eventWith(-150, nil)
	params := Params{Trials: intPtr(50000)}

	a, err := (&Engine{Seed: 7, Workers: 1}).Forecast(context.Background(), ev, params)
	require.NoError(t, err)
	b, err := (&Engine{Seed: 7, Workers: 8}).Forecast(context.Background(), ev, params)
	require.NoError(t, err)

	assert.Equal(t, a.HomeWinPct, b.HomeWinPct)
}

func TestForecastMissingMarketOdds(t *testing.T) {
	_, err := NewEngine(1).Forecast(context.Background(), &models.Event{HomeTeam: "A", AwayTeam: "B"}, Params{})
	assert.ErrorIs(t, err, ErrMissingMarketOdds)
}

func TestForecastCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(1).Forecast(ctx, eventWith(-150, nil), Params{Trials: intPtr(MaxTrials)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveTrials(t *testing.T) {
	assert.Equal(t, DefaultTrials, ResolveTrials(nil))
	assert.Equal(t, DefaultTrials, ResolveTrials(intPtr(0)))
	assert.Equal(t, MinTrials, ResolveTrials(intPtr(-5)))
	assert.Equal(t, MinTrials, ResolveTrials(intPtr(10)))
	assert.Equal(t, MaxTrials, ResolveTrials(intPtr(10_000_000)))
	assert.Equal(t, 25000, ResolveTrials(intPtr(25000)))
}

func TestResolveWeights(t *testing.T) {
	h, a := ResolveWeights(Params{})
	assert.Equal(t, 0.0, h)
	assert.Equal(t, 0.0, a)

	h, a = ResolveWeights(Params{FormWeight: floatPtr(1.7)})
	assert.Equal(t, 1.0, h)
	assert.Equal(t, 1.0, a)

	// a lone home weight is ignored in favour of the symmetric weight
	h, a = ResolveWeights(Params{FormWeight: floatPtr(0.4), HomeFormWeight: floatPtr(0.9)})
	assert.Equal(t, 0.4, h)
	assert.Equal(t, 0.4, a)

	h, a = ResolveWeights(Params{HomeFormWeight: floatPtr(0.9), AwayFormWeight: floatPtr(-0.2)})
	assert.Equal(t, 0.9, h)
	assert.Equal(t, 0.0, a)
}

func TestComputeNoSignalBias(t *testing.T) {
	neutral := models.DefaultRecentForm

	b := Compute(-150, neutral, Params{})
	assert.InDelta(t, 0.6, b.P, 1e-9, "zero delta leaves the market price")
	assert.InDelta(t, 0.5, b.RecentP, 1e-12)

	b = Compute(-150, neutral, Params{HomeFormWeight: floatPtr(1), AwayFormWeight: floatPtr(0)})
	want := 1 / (1 + math.Exp(-(math.Log(0.6/0.4) + 0.8)))
	assert.InDelta(t, want, b.P, 1e-9)
}

func TestComputeDirectionalBlend(t *testing.T) {
	form := models.RecentForm{Home: 0.8, Away: 0.2}

	// full strength toward the away side targets 1 - recentP
	b := Compute(-150, form, Params{HomeFormWeight: floatPtr(0), AwayFormWeight: floatPtr(1)})
	assert.InDelta(t, 0.2, b.P, 1e-9)

	b = Compute(-150, form, Params{HomeFormWeight: floatPtr(1), AwayFormWeight: floatPtr(0)})
	assert.InDelta(t, 0.8, b.P, 1e-9)
}

func TestComputeClampsExtremes(t *testing.T) {
	b := Compute(-1000000, models.DefaultRecentForm, Params{})
	assert.LessOrEqual(t, b.BaseP, probCeil)
	assert.LessOrEqual(t, b.P, probCeil)
}

func TestRecentForm(t *testing.T) {
	assert.Equal(t, 0.5, RecentForm(nil, models.SportNBA, 8))
	assert.Equal(t, 1.0, RecentForm([]GameResult{{Won: true}, {Won: true}}, models.SportNBA, 8))

	// W then L: 1 / (1 + 0.7)
	assert.InDelta(t, 1/1.7, RecentForm([]GameResult{{Won: true}, {}}, models.SportNFL, 8), 1e-12)

	// draws count half only for soccer
	assert.Equal(t, 0.5, RecentForm([]GameResult{{Draw: true}}, models.SportSoccer, 8))
	assert.Equal(t, 0.0, RecentForm([]GameResult{{Draw: true}}, models.SportTennis, 8))

	games := make([]GameResult, 12)
	for i := 8; i < 12; i++ {
		games[i] = GameResult{Won: true}
	}
	assert.Equal(t, 0.0, RecentForm(games, models.SportNBA, 0), "only the last 8 games count")
}
