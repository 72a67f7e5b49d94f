package handlers

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/cache"
	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/internal/repository"
	"github.com/hoopsight/prop-engine/internal/services"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

// dashboardPlayerLimit bounds how many players one dashboard build scores.
const dashboardPlayerLimit = 50

var sortFields = map[string]bool{
	"confidence": true,
	"hit_rate":   true,
	"games":      true,
}

type DashboardHandler struct {
	stats      repository.StatsRepository
	confidence *services.ConfidenceService
	cacheData  *cache.CacheService
	cacheSync  *cache.CacheSyncService
	logger     *logrus.Logger
}

func NewDashboardHandler(
	stats repository.StatsRepository,
	confidence *services.ConfidenceService,
	cacheData *cache.CacheService,
	cacheSync *cache.CacheSyncService,
	logger *logrus.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		stats:      stats,
		confidence: confidence,
		cacheData:  cacheData,
		cacheSync:  cacheSync,
		logger:     logger,
	}
}

// GetDashboard scores the most productive players for one category and
// threshold, sorted as requested. The build is expensive, so results are
// cached per parameter combination and guarded by the per-key lock.
// GET /dashboard?period=last10&category=POINTS&threshold=20&sortBy=confidence&sortDirection=desc
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	category, err := models.ParseStatCategory(c.DefaultQuery("category", "POINTS"))
	if err != nil {
		utils.SendValidationError(c, "Invalid category", err.Error())
		return
	}

	threshold, err := strconv.Atoi(c.DefaultQuery("threshold", "20"))
	if err != nil || threshold <= 0 {
		utils.SendValidationError(c, "Invalid threshold", "threshold must be a positive integer")
		return
	}

	period := c.DefaultQuery("period", defaultPeriod)
	window, ok := periodWindows[period]
	if !ok {
		utils.SendValidationError(c, "Invalid period", "period must be one of last5, last10, last20, season")
		return
	}

	sortBy := c.DefaultQuery("sortBy", "confidence")
	if !sortFields[sortBy] {
		utils.SendValidationError(c, "Invalid sortBy", "sortBy must be one of confidence, hit_rate, games")
		return
	}
	sortDirection := c.DefaultQuery("sortDirection", "desc")
	if sortDirection != "asc" && sortDirection != "desc" {
		utils.SendValidationError(c, "Invalid sortDirection", "sortDirection must be asc or desc")
		return
	}

	cacheKey, err := cache.DashboardKey(period, category, threshold, sortBy, sortDirection)
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	ctx := c.Request.Context()

	var cached []services.ConfidenceScore
	if err := h.cacheData.Get(ctx, cacheKey, &cached); err == nil {
		utils.SendSuccess(c, cached)
		return
	}

	result, err := h.cacheSync.ExecuteCacheOperation(ctx, cacheKey, func(ctx context.Context) (interface{}, error) {
		scores, err := h.buildDashboard(ctx, category, threshold, window, sortBy, sortDirection)
		if err != nil {
			return nil, err
		}
		if err := h.cacheData.Set(ctx, cacheKey, scores, h.cacheData.VolatileTTL); err != nil {
			h.logger.WithError(err).WithField("cache_key", cacheKey).Warn("Failed to cache dashboard")
		}
		return scores, nil
	})
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	utils.SendSuccess(c, result)
}

func (h *DashboardHandler) buildDashboard(ctx context.Context, category models.StatCategory, threshold, window int, sortBy, sortDirection string) ([]services.ConfidenceScore, error) {
	players, err := h.stats.ActivePlayers(ctx, dashboardPlayerLimit)
	if err != nil {
		return nil, err
	}

	scores := make([]services.ConfidenceScore, 0, len(players))
	for _, player := range players {
		score, err := h.confidence.ScorePlayer(ctx, player, category, threshold, window)
		if err != nil {
			// Players whose team has no scheduled game simply drop off
			// the board.
			if errors.Is(err, utils.ErrNotFound) {
				continue
			}
			return nil, err
		}
		scores = append(scores, score)
	}

	sortScores(scores, sortBy, sortDirection)
	return scores, nil
}

func sortScores(scores []services.ConfidenceScore, sortBy, sortDirection string) {
	less := func(a, b services.ConfidenceScore) bool {
		switch sortBy {
		case "hit_rate":
			return a.HitRate.LessThan(b.HitRate)
		case "games":
			return a.GamesCount < b.GamesCount
		default:
			return a.Score.LessThan(b.Score)
		}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if sortDirection == "asc" {
			return less(scores[i], scores[j])
		}
		return less(scores[j], scores[i])
	})
}
