package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/hoopsight/prop-engine/pkg/utils"
)

// StatsAPIConfig carries the wiring for the upstream NBA stats provider.
type StatsAPIConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Timeout           time.Duration
	BreakerThreshold  uint32
}

// StatsAPIClient talks to the balldontlie-style NBA stats API. All calls
// pass through a shared rate limiter and a circuit breaker so one flaky
// upstream window cannot stall the sync job or exhaust the API quota.
type StatsAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewStatsAPIClient creates a stats API client.
func NewStatsAPIClient(cfg StatsAPIConfig, logger *logrus.Logger) *StatsAPIClient {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stats-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Stats API circuit breaker state changed")
		},
	})

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	return &StatsAPIClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: cb,
		logger:  logger,
	}
}

// TeamData is the provider's team record.
type TeamData struct {
	ID           int    `json:"id"`
	Abbreviation string `json:"abbreviation"`
	FullName     string `json:"full_name"`
}

// PlayerData is the provider's player record.
type PlayerData struct {
	ID        int      `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Position  string   `json:"position"`
	Team      TeamData `json:"team"`
}

// GameData is the provider's game record. Status is "Final" once the game
// has been played.
type GameData struct {
	ID           int      `json:"id"`
	Date         string   `json:"date"`
	Season       int      `json:"season"`
	Status       string   `json:"status"`
	HomeTeam     TeamData `json:"home_team"`
	VisitorTeam  TeamData `json:"visitor_team"`
	HomeScore    int      `json:"home_team_score"`
	VisitorScore int      `json:"visitor_team_score"`
}

// StatLineData is one player's box score in one game.
type StatLineData struct {
	Player   PlayerData `json:"player"`
	Team     TeamData   `json:"team"`
	Game     GameData   `json:"game"`
	Min      string     `json:"min"`
	Points   int        `json:"pts"`
	Assists  int        `json:"ast"`
	Rebounds int        `json:"reb"`
}

// AdvancedData is one player's advanced line in one game.
type AdvancedData struct {
	Player       PlayerData `json:"player"`
	Game         GameData   `json:"game"`
	PIE          float64    `json:"pie"`
	UsagePercent float64    `json:"usage_percentage"`
	TrueShooting float64    `json:"true_shooting_percentage"`
}

type pageMeta struct {
	NextCursor *int `json:"next_cursor"`
	PerPage    int  `json:"per_page"`
}

type teamsResponse struct {
	Data []TeamData `json:"data"`
	Meta pageMeta   `json:"meta"`
}

type gamesResponse struct {
	Data []GameData `json:"data"`
	Meta pageMeta   `json:"meta"`
}

type statsResponse struct {
	Data []StatLineData `json:"data"`
	Meta pageMeta       `json:"meta"`
}

type advancedResponse struct {
	Data []AdvancedData `json:"data"`
	Meta pageMeta       `json:"meta"`
}

// ListTeams fetches all franchises.
func (c *StatsAPIClient) ListTeams(ctx context.Context) ([]TeamData, error) {
	var out []TeamData
	err := c.paginate(ctx, "/teams", url.Values{}, func(body []byte) (*int, error) {
		var page teamsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		return page.Meta.NextCursor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return out, nil
}

// GamesByDate fetches every game scheduled on the given date.
func (c *StatsAPIClient) GamesByDate(ctx context.Context, date time.Time) ([]GameData, error) {
	params := url.Values{}
	params.Add("dates[]", date.Format("2006-01-02"))

	var out []GameData
	err := c.paginate(ctx, "/games", params, func(body []byte) (*int, error) {
		var page gamesResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		return page.Meta.NextCursor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("games for %s: %w", date.Format("2006-01-02"), err)
	}
	return out, nil
}

// StatsByDate fetches every player box score on the given date.
func (c *StatsAPIClient) StatsByDate(ctx context.Context, date time.Time) ([]StatLineData, error) {
	params := url.Values{}
	params.Add("dates[]", date.Format("2006-01-02"))

	var out []StatLineData
	err := c.paginate(ctx, "/stats", params, func(body []byte) (*int, error) {
		var page statsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		return page.Meta.NextCursor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("stats for %s: %w", date.Format("2006-01-02"), err)
	}
	return out, nil
}

// AdvancedStatsByDate fetches every player advanced line on the given
// date.
func (c *StatsAPIClient) AdvancedStatsByDate(ctx context.Context, date time.Time) ([]AdvancedData, error) {
	params := url.Values{}
	params.Add("dates[]", date.Format("2006-01-02"))

	var out []AdvancedData
	err := c.paginate(ctx, "/stats/advanced", params, func(body []byte) (*int, error) {
		var page advancedResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		return page.Meta.NextCursor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("advanced stats for %s: %w", date.Format("2006-01-02"), err)
	}
	return out, nil
}

// paginate walks a cursor-paged endpoint, feeding each raw page to
// consume until the cursor runs out.
func (c *StatsAPIClient) paginate(ctx context.Context, path string, params url.Values, consume func(body []byte) (*int, error)) error {
	params.Set("per_page", "100")
	for {
		body, err := c.get(ctx, path, params)
		if err != nil {
			return err
		}
		cursor, err := consume(body)
		if err != nil {
			return fmt.Errorf("%w: decoding %s response: %v", utils.ErrUpstream, path, err)
		}
		if cursor == nil {
			return nil
		}
		params.Set("cursor", strconv.Itoa(*cursor))
	}
}

func (c *StatsAPIClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, path, params)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: stats API circuit open", utils.ErrUpstream)
		}
		return nil, err
	}
	return result.([]byte), nil
}

func (c *StatsAPIClient) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", utils.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrUpstream, err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Milliseconds(),
	}).Debug("Stats API request")

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: stats API throttled the request", utils.ErrUpstream)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: stats API returned %d for %s", utils.ErrUpstream, resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", utils.ErrUpstream, err)
	}
	return body, nil
}
