package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sports-sims/internal/metrics"
	"github.com/yourusername/sports-sims/internal/models"
)

const oddsAPISourceName = "odds_api"

// OddsAPIConfig configures the Odds API client
type OddsAPIConfig struct {
	BaseURL         string
	APIKey          string
	Regions         string
	Markets         string
	OddsFormat      string
	CompetitionsTTL time.Duration
}

// OddsAPIClient implements Provider for The Odds API v4
type OddsAPIClient struct {
	httpClient   *RateLimitedHTTPClient
	cfg          OddsAPIConfig
	observer     QuotaObserver
	competitions *cache.Cache
	logger       *logrus.Entry
	now          func() time.Time
}

// NewOddsAPIClient creates a new Odds API client
func NewOddsAPIClient(httpClient *RateLimitedHTTPClient, cfg OddsAPIConfig, observer QuotaObserver, logger *logrus.Logger) *OddsAPIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.the-odds-api.com/v4"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Regions == "" {
		cfg.Regions = "us"
	}
	if cfg.Markets == "" {
		cfg.Markets = MarketH2H
	}
	if cfg.OddsFormat == "" {
		cfg.OddsFormat = "american"
	}
	if cfg.CompetitionsTTL <= 0 {
		cfg.CompetitionsTTL = 30 * time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &OddsAPIClient{
		httpClient:   httpClient,
		cfg:          cfg,
		observer:     observer,
		competitions: cache.New(cfg.CompetitionsTTL, 2*cfg.CompetitionsTTL),
		logger:       logger.WithField("component", "odds_api"),
		now:          time.Now,
	}
}

// Name returns the provider name stored on external references
func (c *OddsAPIClient) Name() string {
	return models.ProviderOddsAPI
}

// ListCompetitions retrieves the competition catalog
func (c *OddsAPIClient) ListCompetitions(ctx context.Context, includeInactive bool) ([]Competition, error) {
	cacheKey := "competitions:" + strconv.FormatBool(includeInactive)
	if cached, found := c.competitions.Get(cacheKey); found {
		if list, ok := cached.([]Competition); ok {
			return list, nil
		}
	}

	q := url.Values{}
	q.Set("all", strconv.FormatBool(includeInactive))

	var list []Competition
	if err := c.getJSON(ctx, "sports", "/sports", q, &list); err != nil {
		return nil, err
	}

	c.competitions.SetDefault(cacheKey, list)
	return list, nil
}

// FetchOdds retrieves upcoming events with bookmaker quotes for one competition
func (c *OddsAPIClient) FetchOdds(ctx context.Context, competitionKey string, filter OddsFilter) ([]OddsEvent, error) {
	q := url.Values{}
	q.Set("regions", firstNonEmpty(filter.Regions, c.cfg.Regions))
	q.Set("markets", firstNonEmpty(filter.Markets, c.cfg.Markets))
	q.Set("oddsFormat", firstNonEmpty(filter.OddsFormat, c.cfg.OddsFormat))
	if len(filter.EventIDs) > 0 {
		q.Set("eventIds", strings.Join(filter.EventIDs, ","))
	}
	if len(filter.Bookmakers) > 0 {
		q.Set("bookmakers", strings.Join(filter.Bookmakers, ","))
	}

	var events []OddsEvent
	path := "/sports/" + url.PathEscape(competitionKey) + "/odds"
	if err := c.getJSON(ctx, "odds:"+competitionKey, path, q, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchScores retrieves score updates for one competition
func (c *OddsAPIClient) FetchScores(ctx context.Context, competitionKey string, lookbackDays int) ([]ScoreUpdate, error) {
	if lookbackDays <= 0 {
		lookbackDays = 2
	}
	q := url.Values{}
	q.Set("daysFrom", strconv.Itoa(lookbackDays))
	q.Set("dateFormat", "iso")

	var raw []ScoreEvent
	path := "/sports/" + url.PathEscape(competitionKey) + "/scores"
	if err := c.getJSON(ctx, "scores:"+competitionKey, path, q, &raw); err != nil {
		return nil, err
	}

	now := c.now()
	updates := make([]ScoreUpdate, 0, len(raw))
	for _, ev := range raw {
		updates = append(updates, ev.ToScoreUpdate(now))
	}
	return updates, nil
}

// getJSON performs a GET through the retrying client and decodes the body into out
func (c *OddsAPIClient) getJSON(ctx context.Context, label, path string, q url.Values, out interface{}) error {
	q.Set("apiKey", c.cfg.APIKey)
	endpoint := c.cfg.BaseURL + path + "?" + q.Encode()

	start := time.Now()
	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		metrics.RecordProviderRequest(label, "error", time.Since(start).Seconds())
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return NewProviderError(oddsAPISourceName, ErrCodeNetworkError, 0, "request to "+label+" failed", err)
	}
	defer resp.Body.Close()

	metrics.RecordProviderRequest(label, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if perr := classifyStatus(resp); perr != nil {
		c.logger.WithFields(logrus.Fields{
			"label":  label,
			"status": resp.StatusCode,
			"code":   perr.Code,
		}).Warn("Provider request failed")
		return perr
	}

	if obs, ok := ParseQuota(label, resp.Header, c.now()); ok && c.observer != nil {
		c.observer.ObserveQuota(ctx, obs)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewProviderError(oddsAPISourceName, ErrCodeInvalidData, resp.StatusCode, "failed to parse "+label+" response", err)
	}
	return nil
}

// classifyStatus maps a non-2xx response to a ProviderError
func classifyStatus(resp *http.Response) *ProviderError {
	status := resp.StatusCode
	if status >= 200 && status < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusTooManyRequests:
		return NewProviderError(oddsAPISourceName, ErrCodeRateLimitExceeded, status, msg, nil)
	case status >= http.StatusInternalServerError:
		return NewProviderError(oddsAPISourceName, ErrCodeServerError, status, msg, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewProviderError(oddsAPISourceName, ErrCodeAuthenticationFailed, status, msg, nil)
	default:
		return NewProviderError(oddsAPISourceName, ErrCodeClientError, status, msg, nil)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// StatusCode extracts the HTTP status carried by a provider error, 0 otherwise
func StatusCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

var _ Provider = (*OddsAPIClient)(nil)

func (c *OddsAPIClient) String() string {
	return fmt.Sprintf("OddsAPIClient{%s}", c.cfg.BaseURL)
}
