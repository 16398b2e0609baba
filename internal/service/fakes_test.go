package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/models"
)

// fakeProvider serves canned competitions, odds and scores
type fakeProvider struct {
	mu           sync.Mutex
	competitions []datasource.Competition
	catalogErr   error
	odds         map[string][]datasource.OddsEvent
	scores       map[string][]datasource.ScoreUpdate
	errs         map[string]error
	calls        []string
	filters      []datasource.OddsFilter
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		odds:   make(map[string][]datasource.OddsEvent),
		scores: make(map[string][]datasource.ScoreUpdate),
		errs:   make(map[string]error),
	}
}

func (p *fakeProvider) Name() string { return models.ProviderOddsAPI }

func (p *fakeProvider) ListCompetitions(ctx context.Context, includeInactive bool) ([]datasource.Competition, error) {
	if p.catalogErr != nil {
		return nil, p.catalogErr
	}
	return p.competitions, nil
}

func (p *fakeProvider) FetchOdds(ctx context.Context, key string, filter datasource.OddsFilter) ([]datasource.OddsEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "odds:"+key)
	p.filters = append(p.filters, filter)
	if err := p.errs[key]; err != nil {
		return nil, err
	}
	if len(filter.EventIDs) == 0 {
		return p.odds[key], nil
	}
	var out []datasource.OddsEvent
	for _, ev := range p.odds[key] {
		for _, id := range filter.EventIDs {
			if ev.ID == id {
				out = append(out, ev)
			}
		}
	}
	return out, nil
}

func (p *fakeProvider) FetchScores(ctx context.Context, key string, lookbackDays int) ([]datasource.ScoreUpdate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "scores:"+key)
	if err := p.errs[key]; err != nil {
		return nil, err
	}
	return p.scores[key], nil
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func price(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// h2hEvent builds an odds event with one h2h block per price pair
func h2hEvent(id, key, home, away string, start time.Time, pairs ...[2]float64) datasource.OddsEvent {
	ev := datasource.OddsEvent{
		ID:           id,
		SportKey:     key,
		SportTitle:   "Vendor " + key,
		CommenceTime: start,
		HomeTeam:     home,
		AwayTeam:     away,
	}
	for i, p := range pairs {
		ev.Bookmakers = append(ev.Bookmakers, datasource.Bookmaker{
			Key: []string{"draftkings", "fanduel", "betmgm", "caesars"}[i%4],
			Markets: []datasource.Market{{
				Key: datasource.MarketH2H,
				Outcomes: []datasource.Outcome{
					{Name: home, Price: price(p[0])},
					{Name: away, Price: price(p[1])},
				},
			}},
		})
	}
	return ev
}

func scoreUpdate(id, key, home, away string, start time.Time, h, a int, completed bool) datasource.ScoreUpdate {
	status := models.EventStatusInProgress
	if completed {
		status = models.EventStatusCompleted
	}
	return datasource.ScoreUpdate{
		ID:              id,
		SportKey:        key,
		CommenceTime:    start,
		HomeTeam:        home,
		AwayTeam:        away,
		Completed:       completed,
		Status:          status,
		Score:           models.Score{Home: intPtr(h), Away: intPtr(a)},
		LastScoreUpdate: start.Add(2 * time.Hour),
	}
}
