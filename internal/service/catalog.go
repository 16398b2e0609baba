package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/datasource"
	"github.com/yourusername/sports-sims/internal/league"
	"github.com/yourusername/sports-sims/internal/models"
	"github.com/yourusername/sports-sims/internal/odds"
	"github.com/yourusername/sports-sims/internal/repository"
)

// Listing windows accepted by GamesQuery.When
const (
	WhenToday    = "today"
	WhenUpcoming = "upcoming"
)

const defaultUpcomingDays = 365

var fixtureValidator = validator.New()

// GamesQuery selects events for display. From/To override When.
type GamesQuery struct {
	Sport  models.Sport
	League string
	When   string
	Days   int
	From   *time.Time
	To     *time.Time
}

// LeagueSummary is one distinct league with its display title
type LeagueSummary struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// OddsView is an event's bookmaker table
type OddsView struct {
	Rows      []odds.TableRow `json:"rows"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
	StartTime time.Time       `json:"startTime"`
}

// SeedFixture describes a manually seeded event
type SeedFixture struct {
	Sport         models.Sport `yaml:"sport" validate:"required,oneof=NBA NFL Soccer Tennis"`
	League        string       `yaml:"league"`
	Home          string       `yaml:"home" validate:"required"`
	Away          string       `yaml:"away" validate:"required,nefield=Home"`
	StartsInHours float64      `yaml:"starts_in_hours"`
	HomeML        int          `yaml:"home_ml"`
	AwayML        int          `yaml:"away_ml"`
}

// DefaultSeedFixtures returns one demo event per sport
func DefaultSeedFixtures() []SeedFixture {
	return []SeedFixture{
		{Sport: models.SportNBA, League: league.KeyNBA, Home: "Celtics", Away: "Heat", StartsInHours: 24, HomeML: -150, AwayML: 130},
		{Sport: models.SportNFL, League: league.KeyNFL, Home: "Patriots", Away: "Jets", StartsInHours: 48, HomeML: -110, AwayML: -110},
		{Sport: models.SportSoccer, League: "soccer_epl", Home: "Arsenal", Away: "Spurs", StartsInHours: 72, HomeML: -105, AwayML: 260},
		{Sport: models.SportTennis, League: "tennis_atp_us_open", Home: "Alcaraz", Away: "Sinner", StartsInHours: 30, HomeML: -135, AwayML: 115},
	}
}

// CatalogService answers read queries over the event catalog and runs
// maintenance tasks against it.
type CatalogService struct {
	events   repository.EventRepository
	provider datasource.Provider
	logger   *logrus.Entry
	now      func() time.Time
}

// NewCatalogService creates a catalog service. provider may be nil when no
// provider calls are needed.
func NewCatalogService(events repository.EventRepository, provider datasource.Provider, log *logrus.Logger) *CatalogService {
	return &CatalogService{
		events:   events,
		provider: provider,
		logger:   log.WithField("component", "catalog"),
		now:      time.Now,
	}
}

// Games lists events ordered by start time. Without an explicit league only
// admitted leagues are shown.
func (s *CatalogService) Games(ctx context.Context, q GamesQuery) ([]*models.Event, error) {
	filter := models.EventFilter{Sport: q.Sport, LeagueKey: q.League}

	today := models.TodayWindow(s.now())
	switch {
	case q.From != nil || q.To != nil:
		filter.From, filter.To = q.From, q.To
	case q.When == WhenToday:
		filter.From, filter.To = &today.Start, &today.End
	case q.When == WhenUpcoming:
		days := q.Days
		if days <= 0 {
			days = defaultUpcomingDays
		}
		end := today.End.Add(time.Duration(days) * 24 * time.Hour)
		filter.From, filter.To = &today.End, &end
	}

	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	if q.League != "" {
		return events, nil
	}

	visible := events[:0]
	for _, ev := range events {
		if visibleInListing(ev, q.Sport) {
			visible = append(visible, ev)
		}
	}
	return visible, nil
}

func visibleInListing(ev *models.Event, sport models.Sport) bool {
	switch sport {
	case models.SportSoccer, models.SportTennis:
		return league.IsAllowed(ev.LeagueKey)
	case "":
		return ev.Sport == models.SportNBA || ev.Sport == models.SportNFL || league.IsAllowed(ev.LeagueKey)
	default:
		return true
	}
}

// Leagues returns the distinct leagues of stored events, sorted by title
func (s *CatalogService) Leagues(ctx context.Context, sport models.Sport) ([]LeagueSummary, error) {
	events, err := s.events.List(ctx, models.EventFilter{Sport: sport})
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	seen := make(map[string]string)
	for _, ev := range events {
		if _, ok := seen[ev.LeagueKey]; ok {
			continue
		}
		title := ev.LeagueTitle
		if title == "" || title == ev.LeagueKey {
			title = league.PrettyTitle(ev.LeagueKey)
		}
		seen[ev.LeagueKey] = title
	}

	out := make([]LeagueSummary, 0, len(seen))
	for k, t := range seen {
		out = append(out, LeagueSummary{Key: k, Title: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// EventOdds returns the bookmaker table of one event
func (s *CatalogService) EventOdds(ctx context.Context, id uuid.UUID) (*OddsView, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OddsView{
		Rows:      odds.BookmakerTable(ev.BookmakerOdds),
		UpdatedAt: ev.LastUpdated,
		StartTime: ev.StartTime,
	}, nil
}

// Competitions lists provider competitions, admitted ones only unless all is set
func (s *CatalogService) Competitions(ctx context.Context, all bool) ([]datasource.Competition, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no provider configured")
	}
	comps, err := s.provider.ListCompetitions(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	if all {
		return comps, nil
	}
	out := make([]datasource.Competition, 0, len(comps))
	for _, c := range comps {
		if league.Admit(c.Key) {
			out = append(out, c)
		}
	}
	return out, nil
}

// CleanupLeagues deletes soccer events outside the allowlist and tennis events
// outside the ATP and WTA tours
func (s *CatalogService) CleanupLeagues(ctx context.Context) (int64, error) {
	n, err := s.events.DeleteDisallowed(ctx, keepLeague)
	if err != nil {
		return 0, fmt.Errorf("cleanup leagues: %w", err)
	}
	s.logger.WithField("deleted", n).Info("Removed events from disallowed leagues")
	return n, nil
}

func keepLeague(key string) bool {
	if strings.HasPrefix(key, "soccer_") || strings.HasPrefix(key, "tennis_") {
		return league.IsAllowed(key)
	}
	return true
}

// CleanupNonProvider deletes events that were not ingested from provider
func (s *CatalogService) CleanupNonProvider(ctx context.Context, provider string) (int64, error) {
	n, err := s.events.DeleteWithoutProvider(ctx, provider)
	if err != nil {
		return 0, fmt.Errorf("cleanup seeded events: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"deleted": n, "provider": provider}).Info("Removed events without provider reference")
	return n, nil
}

// Seed inserts fixtures as manually seeded events without a provider reference
func (s *CatalogService) Seed(ctx context.Context, fixtures []SeedFixture) ([]*models.Event, error) {
	now := s.now()
	out := make([]*models.Event, 0, len(fixtures))
	for i, f := range fixtures {
		if err := fixtureValidator.Struct(f); err != nil {
			return out, fmt.Errorf("fixture %d: %w", i, err)
		}
		ev := &models.Event{
			ID:          uuid.New(),
			Sport:       f.Sport,
			LeagueKey:   f.League,
			LeagueTitle: league.PrettyTitle(f.League),
			HomeTeam:    f.Home,
			AwayTeam:    f.Away,
			StartTime:   now.Add(time.Duration(f.StartsInHours * float64(time.Hour))),
			MarketOdds:  &models.Moneyline{Home: f.HomeML, Away: f.AwayML},
			Status:      models.EventStatusScheduled,
		}
		if err := s.events.Insert(ctx, ev); err != nil {
			return out, fmt.Errorf("seed %s vs %s: %w", f.Home, f.Away, err)
		}
		out = append(out, ev)
	}
	s.logger.WithField("count", len(out)).Info("Seeded events")
	return out, nil
}
