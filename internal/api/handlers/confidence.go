package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/cache"
	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/internal/repository"
	"github.com/hoopsight/prop-engine/internal/services"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

// periodWindows maps the public period names onto history window sizes.
var periodWindows = map[string]int{
	"last5":  5,
	"last10": 10,
	"last20": 20,
	"season": 82,
}

const defaultPeriod = "last10"

type ConfidenceHandler struct {
	stats      repository.StatsRepository
	confidence *services.ConfidenceService
	cacheData  *cache.CacheService
	cacheSync  *cache.CacheSyncService
	logger     *logrus.Logger
}

func NewConfidenceHandler(
	stats repository.StatsRepository,
	confidence *services.ConfidenceService,
	cacheData *cache.CacheService,
	cacheSync *cache.CacheSyncService,
	logger *logrus.Logger,
) *ConfidenceHandler {
	return &ConfidenceHandler{
		stats:      stats,
		confidence: confidence,
		cacheData:  cacheData,
		cacheSync:  cacheSync,
		logger:     logger,
	}
}

// GetConfidence computes (or serves the cached) confidence score for a
// player's next game.
// GET /players/:id/confidence?category=POINTS&threshold=25&period=last10
func (h *ConfidenceHandler) GetConfidence(c *gin.Context) {
	playerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid player ID", err.Error())
		return
	}

	category, err := models.ParseStatCategory(c.DefaultQuery("category", "POINTS"))
	if err != nil {
		utils.SendValidationError(c, "Invalid category", err.Error())
		return
	}

	threshold, err := strconv.Atoi(c.Query("threshold"))
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

	cacheKey, err := h.confidenceCacheKey(uint(playerID), category, threshold, period)
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	ctx := c.Request.Context()

	var cached services.ConfidenceScore
	if err := h.cacheData.Get(ctx, cacheKey, &cached); err == nil {
		utils.SendSuccess(c, cached)
		return
	}

	// The per-key lock keeps concurrent requests for the same player
	// from recomputing the same score.
	result, err := h.cacheSync.ExecuteCacheOperation(ctx, cacheKey, func(ctx context.Context) (interface{}, error) {
		player, err := h.stats.PlayerByID(ctx, uint(playerID))
		if err != nil {
			return nil, err
		}
		score, err := h.confidence.ScorePlayer(ctx, player, category, threshold, window)
		if err != nil {
			return nil, err
		}
		if err := h.cacheData.Set(ctx, cacheKey, score, h.cacheData.VolatileTTL); err != nil {
			h.logger.WithError(err).WithField("cache_key", cacheKey).Warn("Failed to cache confidence score")
		}
		return score, nil
	})
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	utils.SendSuccess(c, result)
}

// confidenceCacheKey uses the canonical confidence key for the default
// window and the generic endpoint key family for explicit periods.
func (h *ConfidenceHandler) confidenceCacheKey(playerID uint, category models.StatCategory, threshold int, period string) (string, error) {
	if period == defaultPeriod {
		return cache.ConfidenceKey(playerID, category, threshold)
	}
	return cache.APIKey("confidence",
		strconv.FormatUint(uint64(playerID), 10), category.String(), strconv.Itoa(threshold), period)
}
