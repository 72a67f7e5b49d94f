package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsight/prop-engine/internal/cache"
	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/internal/services"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

// fakeRepo backs both repository contracts for handler tests.
type fakeRepo struct {
	playerGames map[uint][]models.PlayerGameStats
	headToHead  []models.Game
	gamesByID   map[uint]models.Game
	nextGame    models.Game
	players     map[uint]models.Player
	teamStats   map[uint]models.TeamStats
	advanced    map[uint]models.PlayerAdvancedStats
}

func (f *fakeRepo) RecentGamesForPlayer(ctx context.Context, playerID uint, limit int) ([]models.PlayerGameStats, error) {
	games := f.playerGames[playerID]
	if len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (f *fakeRepo) GamesBeforeDate(ctx context.Context, playerID uint, before time.Time, limit int) ([]models.PlayerGameStats, error) {
	var out []models.PlayerGameStats
	for _, g := range f.playerGames[playerID] {
		if g.GameDate.Before(before) {
			out = append(out, g)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) HeadToHeadGames(ctx context.Context, teamA, teamB uint, limit int) ([]models.Game, error) {
	return f.headToHead, nil
}

func (f *fakeRepo) GameByID(ctx context.Context, id uint) (models.Game, error) {
	g, ok := f.gamesByID[id]
	if !ok {
		return models.Game{}, fmt.Errorf("%w: game %d", utils.ErrNotFound, id)
	}
	return g, nil
}

func (f *fakeRepo) NextGameForTeam(ctx context.Context, teamID uint, after time.Time) (models.Game, error) {
	if f.nextGame.ID == 0 {
		return models.Game{}, fmt.Errorf("%w: no scheduled game for team %d", utils.ErrNotFound, teamID)
	}
	return f.nextGame, nil
}

func (f *fakeRepo) PlayerByID(ctx context.Context, id uint) (models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return models.Player{}, fmt.Errorf("%w: player %d", utils.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeRepo) ActivePlayers(ctx context.Context, limit int) ([]models.Player, error) {
	var out []models.Player
	for _, p := range f.players {
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) TeamStats(ctx context.Context, teamID uint) (models.TeamStats, error) {
	s, ok := f.teamStats[teamID]
	if !ok {
		return models.TeamStats{}, fmt.Errorf("%w: team stats %d", utils.ErrNotFound, teamID)
	}
	return s, nil
}

func (f *fakeRepo) LatestAdvancedStats(ctx context.Context, playerID uint) (models.PlayerAdvancedStats, error) {
	s, ok := f.advanced[playerID]
	if !ok {
		return models.PlayerAdvancedStats{}, fmt.Errorf("%w: advanced stats %d", utils.ErrNotFound, playerID)
	}
	return s, nil
}

func fixtureRepo() *fakeRepo {
	return &fakeRepo{
		playerGames: map[uint][]models.PlayerGameStats{
			1: {
				{GameDate: day(12), OpponentID: 2, Points: 25, Assists: 5, Rebounds: 8, Minutes: 34},
				{GameDate: day(10), OpponentID: 3, Points: 25, Assists: 5, Rebounds: 8, Minutes: 34},
			},
		},
		gamesByID: map[uint]models.Game{
			9: {ID: 9, GameDate: day(14), HomeTeamID: 1, AwayTeamID: 2},
		},
		nextGame: models.Game{ID: 9, GameDate: day(14), HomeTeamID: 1, AwayTeamID: 2},
		players: map[uint]models.Player{
			1: {ID: 1, FirstName: "Jayson", LastName: "Tatum", TeamID: 1},
		},
		teamStats: map[uint]models.TeamStats{
			1: {TeamID: 1, NetRating: 5, Pace: 100, DefensiveRating: 112},
			2: {TeamID: 2, NetRating: 5, Pace: 100, DefensiveRating: 110},
		},
		advanced: map[uint]models.PlayerAdvancedStats{
			1: {PlayerID: 1, PIE: 0.10, UsageRate: 0.20, TrueShooting: 0.56},
		},
	}
}

// testRouter builds the handler stack on the fixture repo. The redis
// client points at a closed port: every cache read misses and every write
// fails soft, which exercises the compute path.
func testRouter(repo *fakeRepo) *gin.Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6399"})
	cacheData := cache.NewCacheService(redisClient, logger, time.Hour, time.Hour)
	cacheSync := cache.NewCacheSyncService(cache.NewLockRegistry(), logger, 3, time.Millisecond, 2, time.Minute)

	restSvc := services.NewRestImpactService(repo, logger, 10)
	blowoutSvc := services.NewBlowoutRiskService(repo, repo, logger, 60)
	contextSvc := services.NewGameContextService(repo, repo, logger, 10)
	advancedSvc := services.NewAdvancedMetricsService(repo, logger)
	confidenceSvc := services.NewConfidenceService(restSvc, blowoutSvc, contextSvc, advancedSvc, repo, logger, 0.15, 10)

	router := gin.New()
	confidenceHandler := NewConfidenceHandler(repo, confidenceSvc, cacheData, cacheSync, logger)
	impactsHandler := NewImpactsHandler(repo, repo, restSvc, blowoutSvc, contextSvc, advancedSvc, cacheData, logger)
	dashboardHandler := NewDashboardHandler(repo, confidenceSvc, cacheData, cacheSync, logger)

	router.GET("/players/:id/confidence", confidenceHandler.GetConfidence)
	router.GET("/players/:id/impacts/rest", impactsHandler.GetRestImpact)
	router.GET("/players/:id/impacts/advanced", impactsHandler.GetAdvancedImpact)
	router.GET("/players/:id/impacts/context", impactsHandler.GetGameContext)
	router.GET("/games/:id/blowout", impactsHandler.GetBlowoutRisk)
	router.GET("/dashboard", dashboardHandler.GetDashboard)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, utils.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestGetConfidence(t *testing.T) {
	router := testRouter(fixtureRepo())

	w, body := doRequest(t, router, "/players/1/confidence?category=POINTS&threshold=20")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, body.Success)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var score services.ConfidenceScore
	require.NoError(t, json.Unmarshal(data, &score))

	assert.Equal(t, "85.77", score.Score.String())
	assert.Equal(t, "100", score.HitRate.String())
	assert.Equal(t, 2, score.GamesCount)
}

func TestGetConfidenceValidation(t *testing.T) {
	router := testRouter(fixtureRepo())

	for _, path := range []string{
		"/players/abc/confidence?threshold=20",
		"/players/1/confidence?threshold=20&category=STEALS",
		"/players/1/confidence",
		"/players/1/confidence?threshold=0",
		"/players/1/confidence?threshold=-5",
		"/players/1/confidence?threshold=20&period=last99",
	} {
		w, body := doRequest(t, router, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.False(t, body.Success, path)
	}
}

func TestGetConfidenceUnknownPlayer(t *testing.T) {
	router := testRouter(fixtureRepo())

	w, body := doRequest(t, router, "/players/404/confidence?threshold=20")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, body.Success)
}

func TestGetConfidenceNoUpcomingGame(t *testing.T) {
	repo := fixtureRepo()
	repo.nextGame = models.Game{}
	router := testRouter(repo)

	w, _ := doRequest(t, router, "/players/1/confidence?threshold=20")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRestImpact(t *testing.T) {
	router := testRouter(fixtureRepo())

	w, body := doRequest(t, router, "/players/1/impacts/rest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
}

func TestGetAdvancedImpact(t *testing.T) {
	router := testRouter(fixtureRepo())

	w, body := doRequest(t, router, "/players/1/impacts/advanced?category=REBOUNDS")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
}

func TestGetGameContext(t *testing.T) {
	router := testRouter(fixtureRepo())

	w, body := doRequest(t, router, "/players/1/impacts/context?game_id=9")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)

	w, _ = doRequest(t, router, "/players/1/impacts/context?game_id=777")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBlowoutRisk(t *testing.T) {
	router := testRouter(fixtureRepo())

	w, body := doRequest(t, router, "/games/9/blowout")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, body.Success)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var resp blowoutResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "27.25", resp.Risk)
	assert.False(t, resp.HighRisk)

	w, _ = doRequest(t, router, "/games/nope/blowout")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDashboard(t *testing.T) {
	router := testRouter(fixtureRepo())

	w, body := doRequest(t, router, "/dashboard?category=POINTS&threshold=20")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, body.Success)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var scores []services.ConfidenceScore
	require.NoError(t, json.Unmarshal(data, &scores))
	require.Len(t, scores, 1)
	assert.Equal(t, uint(1), scores[0].PlayerID)
}

func TestGetDashboardValidation(t *testing.T) {
	router := testRouter(fixtureRepo())

	for _, path := range []string{
		"/dashboard?category=BLOCKS",
		"/dashboard?threshold=zero",
		"/dashboard?period=lastweek",
		"/dashboard?sortBy=salary",
		"/dashboard?sortDirection=sideways",
	} {
		w, body := doRequest(t, router, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.False(t, body.Success, path)
	}
}
