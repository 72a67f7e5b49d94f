package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsight/prop-engine/pkg/utils"
)

func testClient(t *testing.T, handler http.Handler) *StatsAPIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewStatsAPIClient(StatsAPIConfig{
		BaseURL:           server.URL,
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
		Timeout:           2 * time.Second,
		BreakerThreshold:  3,
	}, logger)
}

func TestListTeamsPaginates(t *testing.T) {
	var authHeader string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		assert.Equal(t, "/teams", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprint(w, `{"data":[{"id":1,"abbreviation":"BOS","full_name":"Boston Celtics"}],"meta":{"next_cursor":25,"per_page":100}}`)
			return
		}
		assert.Equal(t, "25", r.URL.Query().Get("cursor"))
		fmt.Fprint(w, `{"data":[{"id":2,"abbreviation":"LAL","full_name":"Los Angeles Lakers"}],"meta":{"next_cursor":null,"per_page":100}}`)
	}))

	teams, err := client.ListTeams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "BOS", teams[0].Abbreviation)
	assert.Equal(t, "LAL", teams[1].Abbreviation)
	assert.Equal(t, "test-key", authHeader)
}

func TestGamesByDate(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "2026-01-14", r.URL.Query().Get("dates[]"))
		fmt.Fprint(w, `{"data":[{"id":7,"date":"2026-01-14","season":2025,"status":"Final","home_team":{"id":1},"visitor_team":{"id":2},"home_team_score":112,"visitor_team_score":98}],"meta":{"next_cursor":null}}`)
	}))

	games, err := client.GamesByDate(context.Background(), time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 7, games[0].ID)
	assert.Equal(t, "Final", games[0].Status)
	assert.Equal(t, 112, games[0].HomeScore)
}

func TestStatsByDate(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		fmt.Fprint(w, `{"data":[{"player":{"id":3,"first_name":"Jayson","last_name":"Tatum"},"team":{"id":1},"game":{"id":7},"min":"36","pts":31,"ast":5,"reb":9}],"meta":{"next_cursor":null}}`)
	}))

	stats, err := client.StatsByDate(context.Background(), time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 31, stats[0].Points)
	assert.Equal(t, "Tatum", stats[0].Player.LastName)
}

func TestUpstreamErrorsAreClassified(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.ListTeams(context.Background())
	assert.ErrorIs(t, err, utils.ErrUpstream)
}

func TestThrottlingIsClassified(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.ListTeams(context.Background())
	assert.ErrorIs(t, err, utils.ErrUpstream)
}

func TestMalformedResponseIsClassified(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": "not-a-list"`)
	}))

	_, err := client.ListTeams(context.Background())
	assert.ErrorIs(t, err, utils.ErrUpstream)
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 5; i++ {
		_, err := client.ListTeams(context.Background())
		assert.ErrorIs(t, err, utils.ErrUpstream)
	}

	// Three consecutive failures trip the breaker; later calls never reach
	// the upstream.
	assert.Equal(t, 3, calls)
}
