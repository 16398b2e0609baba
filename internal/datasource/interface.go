package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/sports-sims/internal/models"
)

// Provider defines the operations consumed from an odds/scores source
type Provider interface {
	// ListCompetitions returns the provider's competition catalog
	ListCompetitions(ctx context.Context, includeInactive bool) ([]Competition, error)

	// FetchOdds returns upcoming events with bookmaker quotes for one competition
	FetchOdds(ctx context.Context, competitionKey string, filter OddsFilter) ([]OddsEvent, error)

	// FetchScores returns score updates for one competition over the lookback window
	FetchScores(ctx context.Context, competitionKey string, lookbackDays int) ([]ScoreUpdate, error)

	// Name returns the provider name stored on external references
	Name() string
}

// Competition is one entry of the provider's competition list
type Competition struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// OddsFilter overrides the default odds query parameters
type OddsFilter struct {
	Regions    string
	Markets    string
	OddsFormat string
	EventIDs   []string
	Bookmakers []string
}

// OddsEvent is a provider event with its bookmaker quote blocks
type OddsEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one bookmaker's quote block
type Bookmaker struct {
	Key        string     `json:"key"`
	Title      string     `json:"title"`
	LastUpdate *time.Time `json:"last_update"`
	Markets    []Market   `json:"markets"`
}

// Market is a set of outcomes keyed by market type (h2h, spreads, totals)
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is a named price inside a market
type Outcome struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

// MarketH2H is the head-to-head (moneyline) market key
const MarketH2H = "h2h"

// Market returns the bookmaker's market with the given key
func (b Bookmaker) Market(key string) (Market, bool) {
	for _, m := range b.Markets {
		if m.Key == key {
			return m, true
		}
	}
	return Market{}, false
}

// Outcome returns the outcome with the given name
func (m Market) Outcome(name string) (Outcome, bool) {
	for _, o := range m.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// ScoreEvent is the raw scores payload for one event
type ScoreEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	Completed    bool        `json:"completed"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Scores       []TeamScore `json:"scores"`
	LastUpdate   *time.Time  `json:"last_update"`
}

// TeamScore is one team's reported score
type TeamScore struct {
	Name  string     `json:"name"`
	Score scoreValue `json:"score"`
}

// scoreValue accepts scores encoded as JSON strings or numbers
type scoreValue string

func (s *scoreValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = scoreValue(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("invalid score value %s: %w", string(data), err)
	}
	*s = scoreValue(num.String())
	return nil
}

// ScoreUpdate is a score event resolved into typed fields with defaults applied
type ScoreUpdate struct {
	ID              string
	SportKey        string
	CommenceTime    time.Time
	HomeTeam        string
	AwayTeam        string
	Completed       bool
	Status          models.EventStatus
	Score           models.Score
	LastScoreUpdate time.Time
}

// ToScoreUpdate resolves the raw payload once at the boundary
func (e ScoreEvent) ToScoreUpdate(now time.Time) ScoreUpdate {
	status := models.EventStatusScheduled
	switch {
	case e.Completed:
		status = models.EventStatusCompleted
	case e.Scores != nil:
		status = models.EventStatusInProgress
	}

	last := now
	if e.LastUpdate != nil {
		last = *e.LastUpdate
	}

	return ScoreUpdate{
		ID:           e.ID,
		SportKey:     e.SportKey,
		CommenceTime: e.CommenceTime,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		Completed:    e.Completed,
		Status:       status,
		Score: models.Score{
			Home: e.teamScore(e.HomeTeam),
			Away: e.teamScore(e.AwayTeam),
		},
		LastScoreUpdate: last,
	}
}

func (e ScoreEvent) teamScore(team string) *int {
	for _, s := range e.Scores {
		if s.Name != team {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(string(s.Score)))
		if err != nil {
			return nil
		}
		return &v
	}
	return nil
}

// ProviderError represents errors from provider operations
type ProviderError struct {
	Source     string // Provider name
	Code       string // Error code (e.g., "rate_limit_exceeded")
	StatusCode int    // HTTP status, 0 for transport failures
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Source + ": " + e.Code + ": " + e.Message
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure class is one the retry policy retries
func (e *ProviderError) Retryable() bool {
	switch e.Code {
	case ErrCodeRateLimitExceeded, ErrCodeServerError, ErrCodeNetworkError:
		return true
	default:
		return false
	}
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeClientError          = "client_error"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// ErrThrottled is returned when a throttle predicate vetoes further calls
var ErrThrottled = errors.New("provider calls throttled")

// NewProviderError creates a new provider error
func NewProviderError(source, code string, status int, message string, err error) *ProviderError {
	return &ProviderError{
		Source:     source,
		Code:       code,
		StatusCode: status,
		Message:    message,
		Err:        err,
	}
}

// IsRetryable reports whether err is a ProviderError of a retryable class
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}
