// Package forecast blends market-implied probability with recent form and
// samples the blended probability to produce win percentages.
package forecast

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/odds"
)

// Trial bounds
const (
	DefaultTrials = 10000
	MinTrials     = 1000
	MaxTrials     = 500000
)

const (
	probFloor = 0.0001
	probCeil  = 0.9999

	// log-odds shift per unit of weight delta when recent form carries no signal
	noSignalBias = 0.8

	recentSignalEpsilon = 1e-6

	// trials per sampling chunk; each chunk owns a source seeded from the run seed
	chunkSize = 16384
)

// ErrMissingMarketOdds is returned when the event has no home moneyline
var ErrMissingMarketOdds = errors.New("event has no market odds")

// Params are caller supplied forecast parameters. The pair weights are used
// only when both are present; otherwise FormWeight applies to both sides.
type Params struct {
	Trials         *int     `json:"trials,omitempty"`
	FormWeight     *float64 `json:"formWeight,omitempty"`
	HomeFormWeight *float64 `json:"homeFormWeight,omitempty"`
	AwayFormWeight *float64 `json:"awayFormWeight,omitempty"`
}

// Result is the outcome of one forecast run
type Result struct {
	BaseP      float64 `json:"baseP"`
	RecentP    float64 `json:"recentP"`
	Trials     int     `json:"trials"`
	HomeWinPct float64 `json:"homeWinPct"`
	AwayWinPct float64 `json:"awayWinPct"`
}

// Outcome converts the result to its persisted form
func (r Result) Outcome() models.ForecastOutcome {
	return models.ForecastOutcome{
		BaseP:      r.BaseP,
		RecentP:    r.RecentP,
		Trials:     r.Trials,
		HomeWinPct: r.HomeWinPct,
		AwayWinPct: r.AwayWinPct,
	}
}

// Blend is the deterministic part of a forecast
type Blend struct {
	BaseP   float64
	RecentP float64
	P       float64
}

// Engine runs forecasts. It holds no state between calls.
type Engine struct {
	// Seed fixes the sampling sources; 0 seeds from the clock
	Seed int64
	// Workers bounds sampling goroutines; 0 uses GOMAXPROCS
	Workers int
}

// NewEngine creates a forecast engine
func NewEngine(seed int64) *Engine {
	return &Engine{Seed: seed}
}

// Forecast computes the blended probability for ev and samples it
func (e *Engine) Forecast(ctx context.Context, ev *models.Event, params Params) (Result, error) {
	if ev == nil || ev.MarketOdds == nil {
		return Result{}, ErrMissingMarketOdds
	}

	blend := Compute(ev.MarketOdds.Home, ev.Form(), params)
	trials := ResolveTrials(params.Trials)

	wins, err := e.sample(ctx, blend.P, trials)
	if err != nil {
		return Result{}, err
	}

	home := float64(wins) / float64(trials)
	return Result{
		BaseP:      blend.BaseP,
		RecentP:    blend.RecentP,
		Trials:     trials,
		HomeWinPct: home,
		AwayWinPct: 1 - home,
	}, nil
}

// Compute returns the market baseline, the recent-form probability and the
// blended home win probability.
func Compute(homeML int, form models.RecentForm, params Params) Blend {
	baseP := clamp(odds.MoneylineToProb(float64(homeML)), probFloor, probCeil)
	baseZ := logit(baseP)

	homeRecent := clamp(form.Home, probFloor, probCeil)
	awayRecent := clamp(form.Away, probFloor, probCeil)
	recentP := 0.5
	if homeRecent+awayRecent > 0 {
		recentP = clamp(homeRecent/(homeRecent+awayRecent), probFloor, probCeil)
	}
	hasRecentSignal := math.Abs(recentP-0.5) > recentSignalEpsilon

	wHome, wAway := ResolveWeights(params)
	delta := clamp(wHome-wAway, -1, 1)

	var z float64
	if hasRecentSignal {
		strength := math.Abs(delta)
		targetP := recentP
		if delta < 0 {
			targetP = 1 - recentP
		}
		z = (1-strength)*baseZ + strength*logit(targetP)
	} else {
		z = baseZ + noSignalBias*delta
	}

	return Blend{
		BaseP:   baseP,
		RecentP: recentP,
		P:       clamp(sigmoid(z), probFloor, probCeil),
	}
}

// ResolveTrials clamps the trial count to [MinTrials, MaxTrials]. Absent or
// zero means DefaultTrials; negative counts clamp up like any other small value.
func ResolveTrials(trials *int) int {
	if trials == nil || *trials == 0 {
		return DefaultTrials
	}
	n := *trials
	if n < MinTrials {
		return MinTrials
	}
	if n > MaxTrials {
		return MaxTrials
	}
	return n
}

// ResolveWeights returns the (home, away) weights clamped to [0,1]
func ResolveWeights(params Params) (float64, float64) {
	if params.HomeFormWeight != nil && params.AwayFormWeight != nil {
		return clampWeight(*params.HomeFormWeight), clampWeight(*params.AwayFormWeight)
	}
	w := 0.0
	if params.FormWeight != nil {
		w = clampWeight(*params.FormWeight)
	}
	return w, w
}

func clampWeight(w float64) float64 {
	if math.IsNaN(w) {
		return 0
	}
	return clamp(w, 0, 1)
}

// sample draws trials Bernoulli(p) outcomes across workers and returns the
// number of successes. Chunks are seeded by index so a fixed seed gives the
// same count regardless of worker count.
func (e *Engine) sample(ctx context.Context, p float64, trials int) (int, error) {
	seed := e.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	chunks := (trials + chunkSize - 1) / chunkSize
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > chunks {
		workers = chunks
	}

	counts := make([]int, chunks)
	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range next {
				n := chunkSize
				if c == chunks-1 {
					n = trials - c*chunkSize
				}
				rng := rand.New(rand.NewSource(seed + int64(c)))
				wins := 0
				for i := 0; i < n; i++ {
					if rng.Float64() < p {
						wins++
					}
				}
				counts[c] = wins
			}
		}()
	}

	var cancelled error
	for c := 0; c < chunks; c++ {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		next <- c
	}
	close(next)
	wg.Wait()

	if cancelled != nil {
		return 0, cancelled
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
