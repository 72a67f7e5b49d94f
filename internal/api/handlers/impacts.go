package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/cache"
	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/internal/repository"
	"github.com/hoopsight/prop-engine/internal/services"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

var oneDecimal = decimal.NewFromInt(1)

type ImpactsHandler struct {
	stats     repository.StatsRepository
	games     repository.GameRepository
	rest      *services.RestImpactService
	blowout   *services.BlowoutRiskService
	context   *services.GameContextService
	advanced  *services.AdvancedMetricsService
	cacheData *cache.CacheService
	logger    *logrus.Logger
}

func NewImpactsHandler(
	stats repository.StatsRepository,
	games repository.GameRepository,
	rest *services.RestImpactService,
	blowout *services.BlowoutRiskService,
	gameContext *services.GameContextService,
	advanced *services.AdvancedMetricsService,
	cacheData *cache.CacheService,
	logger *logrus.Logger,
) *ImpactsHandler {
	return &ImpactsHandler{
		stats:     stats,
		games:     games,
		rest:      rest,
		blowout:   blowout,
		context:   gameContext,
		advanced:  advanced,
		cacheData: cacheData,
		logger:    logger,
	}
}

// GetRestImpact returns the rest situation for a player's next game plus
// their recent rest pattern.
// GET /players/:id/impacts/rest?category=POINTS
func (h *ImpactsHandler) GetRestImpact(c *gin.Context) {
	player, ok := h.resolvePlayer(c)
	if !ok {
		return
	}
	category, ok := h.resolveCategory(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	game, err := h.games.NextGameForTeam(ctx, player.TeamID, time.Now().UTC())
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	impact, err := h.rest.CalculateRestImpact(ctx, player, game)
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	pattern, err := h.rest.AnalyzeRecentRestPattern(ctx, player, category)
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"next_game":      impact,
		"recent_pattern": pattern,
	})
}

// GetAdvancedImpact returns the advanced-metrics impact for a player.
// GET /players/:id/impacts/advanced?category=POINTS
func (h *ImpactsHandler) GetAdvancedImpact(c *gin.Context) {
	player, ok := h.resolvePlayer(c)
	if !ok {
		return
	}
	category, ok := h.resolveCategory(c)
	if !ok {
		return
	}

	impact, err := h.advanced.CalculateAdvancedImpact(c.Request.Context(), player, category)
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"impact":  impact,
		"overall": impact.OverallScore(),
	})
}

// GetGameContext returns the matchup environment for a player in a given
// game, or their next game when no game_id is supplied.
// GET /players/:id/impacts/context?category=POINTS&game_id=7
func (h *ImpactsHandler) GetGameContext(c *gin.Context) {
	player, ok := h.resolvePlayer(c)
	if !ok {
		return
	}
	category, ok := h.resolveCategory(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var game models.Game
	var err error
	if raw := c.Query("game_id"); raw != "" {
		gameID, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			utils.SendValidationError(c, "Invalid game ID", parseErr.Error())
			return
		}
		game, err = h.games.GameByID(ctx, uint(gameID))
	} else {
		game, err = h.games.NextGameForTeam(ctx, player.TeamID, time.Now().UTC())
	}
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	gameContext, err := h.context.CalculateGameContext(ctx, player, game, category)
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"context":   gameContext,
		"overall":   gameContext.OverallScore(),
		"favorable": gameContext.OverallScore().GreaterThanOrEqual(oneDecimal),
	})
}

// GetBlowoutRisk returns the blowout risk and retention factors for a
// game.
// GET /games/:id/blowout
func (h *ImpactsHandler) GetBlowoutRisk(c *gin.Context) {
	gameID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid game ID", err.Error())
		return
	}
	ctx := c.Request.Context()

	cacheKey, err := cache.GameKey(uint(gameID), "blowout")
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	var cached blowoutResponse
	if err := h.cacheData.Get(ctx, cacheKey, &cached); err == nil {
		utils.SendSuccess(c, cached)
		return
	}

	game, err := h.games.GameByID(ctx, uint(gameID))
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	risk, err := h.blowout.CalculateBlowoutRisk(ctx, game)
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}
	high, err := h.blowout.IsHighBlowoutRisk(ctx, game)
	if err != nil {
		utils.SendClassifiedError(c, err)
		return
	}

	response := blowoutResponse{
		GameID:   game.ID,
		Risk:     risk.String(),
		HighRisk: high,
		Impact:   services.BlowoutImpactForRisk(risk),
	}
	if err := h.cacheData.Set(ctx, cacheKey, response, h.cacheData.VolatileTTL); err != nil {
		h.logger.WithError(err).WithField("cache_key", cacheKey).Warn("Failed to cache blowout risk")
	}

	utils.SendSuccess(c, response)
}

type blowoutResponse struct {
	GameID   uint                 `json:"game_id"`
	Risk     string               `json:"risk"`
	HighRisk bool                 `json:"high_risk"`
	Impact   models.BlowoutImpact `json:"impact"`
}

func (h *ImpactsHandler) resolvePlayer(c *gin.Context) (models.Player, bool) {
	playerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid player ID", err.Error())
		return models.Player{}, false
	}
	player, err := h.stats.PlayerByID(c.Request.Context(), uint(playerID))
	if err != nil {
		utils.SendClassifiedError(c, err)
		return models.Player{}, false
	}
	return player, true
}

func (h *ImpactsHandler) resolveCategory(c *gin.Context) (models.StatCategory, bool) {
	category, err := models.ParseStatCategory(c.DefaultQuery("category", "POINTS"))
	if err != nil {
		utils.SendValidationError(c, "Invalid category", err.Error())
		return "", false
	}
	return category, true
}
