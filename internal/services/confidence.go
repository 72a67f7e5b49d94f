package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/calc"
	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/internal/repository"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

// Bounds on the contextual multipliers so no single factor can swing a
// score more than its share. The blend stays monotonic in hit rate and
// sample size because every adjustment is independent of both.
var (
	restAdjFloor    = decimal.NewFromFloat(0.85)
	restAdjCeil     = decimal.NewFromFloat(1.15)
	contextAdjFloor = decimal.NewFromFloat(0.90)
	contextAdjCeil  = decimal.NewFromFloat(1.10)

	blowoutPenaltyShare = decimal.NewFromFloat(0.10)
	advancedSwingShare  = decimal.NewFromFloat(0.10)
	advancedAdjFloor    = decimal.NewFromFloat(0.95)

	hundred = decimal.NewFromInt(100)
)

// ConfidenceScore is the final blended prediction plus the components that
// produced it.
type ConfidenceScore struct {
	PlayerID    uint                  `json:"player_id"`
	GameID      uint                  `json:"game_id"`
	Category    models.StatCategory   `json:"category"`
	Threshold   int                   `json:"threshold"`
	Score       decimal.Decimal       `json:"score"`
	HitRate     decimal.Decimal       `json:"hit_rate"`
	GamesCount  int                   `json:"games_count"`
	Rest        models.RestImpact     `json:"rest"`
	Context     models.GameContext    `json:"context"`
	BlowoutRisk decimal.Decimal       `json:"blowout_risk"`
	Advanced    models.AdvancedImpact `json:"advanced"`
	ComputedAt  time.Time             `json:"computed_at"`
}

// ConfidenceService blends hit rate, sample size and the contextual
// impacts into the final 0-100 score.
type ConfidenceService struct {
	rest     *RestImpactService
	blowout  *BlowoutRiskService
	context  *GameContextService
	advanced *AdvancedMetricsService
	games    repository.GameRepository
	logger   *logrus.Logger

	decay          decimal.Decimal
	baselineWindow int
}

func NewConfidenceService(
	rest *RestImpactService,
	blowout *BlowoutRiskService,
	gameContext *GameContextService,
	advanced *AdvancedMetricsService,
	games repository.GameRepository,
	logger *logrus.Logger,
	decay float64,
	baselineWindow int,
) *ConfidenceService {
	return &ConfidenceService{
		rest:           rest,
		blowout:        blowout,
		context:        gameContext,
		advanced:       advanced,
		games:          games,
		logger:         logger,
		decay:          decimal.NewFromFloat(decay),
		baselineWindow: baselineWindow,
	}
}

// CalculateConfidenceScore blends an externally computed hit rate with the
// contextual impacts for the given upcoming game.
//
// Blend policy (recorded in DESIGN.md): the hit rate is discounted by a
// sample-size weight of 1 - decay*max(0, baseline-n)/baseline, then scaled
// by bounded multipliers for rest, game context, blowout risk and advanced
// metrics, and clamped to [0, 100].
func (s *ConfidenceService) CalculateConfidenceScore(ctx context.Context, player models.Player, game models.Game, category models.StatCategory, threshold int, hitRate decimal.Decimal, gamesCount int) (ConfidenceScore, error) {
	if player.ID == 0 {
		return ConfidenceScore{}, fmt.Errorf("%w: confidence score requires a player", utils.ErrInvalidInput)
	}
	if threshold <= 0 {
		return ConfidenceScore{}, fmt.Errorf("%w: threshold must be positive", utils.ErrInvalidInput)
	}
	if hitRate.IsNegative() || hitRate.GreaterThan(hundred) {
		return ConfidenceScore{}, fmt.Errorf("%w: hit rate must be within [0,100]", utils.ErrInvalidInput)
	}
	if gamesCount < 0 {
		return ConfidenceScore{}, fmt.Errorf("%w: games count must be non-negative", utils.ErrInvalidInput)
	}

	restImpact, err := s.rest.CalculateRestImpact(ctx, player, game)
	if err != nil {
		return ConfidenceScore{}, err
	}
	gameContext, err := s.context.CalculateGameContext(ctx, player, game, category)
	if err != nil {
		return ConfidenceScore{}, err
	}
	blowoutRisk, err := s.blowout.CalculateBlowoutRisk(ctx, game)
	if err != nil {
		return ConfidenceScore{}, err
	}
	advancedImpact, err := s.advanced.CalculateAdvancedImpact(ctx, player, category)
	if err != nil {
		return ConfidenceScore{}, err
	}

	score := s.blend(hitRate, gamesCount, restImpact, gameContext, blowoutRisk, advancedImpact)

	s.logger.WithFields(logrus.Fields{
		"player_id":   player.ID,
		"game_id":     game.ID,
		"category":    category.String(),
		"threshold":   threshold,
		"hit_rate":    hitRate,
		"games_count": gamesCount,
		"score":       score,
	}).Info("Calculated confidence score")

	return ConfidenceScore{
		PlayerID:    player.ID,
		GameID:      game.ID,
		Category:    category,
		Threshold:   threshold,
		Score:       score,
		HitRate:     hitRate,
		GamesCount:  gamesCount,
		Rest:        restImpact,
		Context:     gameContext,
		BlowoutRisk: blowoutRisk,
		Advanced:    advancedImpact,
		ComputedAt:  time.Now().UTC(),
	}, nil
}

// ScorePlayer is the end-to-end entry point: resolves the player's next
// game, computes the hit rate over the requested window, and blends.
func (s *ConfidenceService) ScorePlayer(ctx context.Context, player models.Player, category models.StatCategory, threshold int, window int) (ConfidenceScore, error) {
	if window <= 0 {
		return ConfidenceScore{}, fmt.Errorf("%w: games window must be positive", utils.ErrInvalidInput)
	}

	game, err := s.games.NextGameForTeam(ctx, player.TeamID, time.Now().UTC())
	if err != nil {
		return ConfidenceScore{}, err
	}

	history, err := s.games.RecentGamesForPlayer(ctx, player.ID, window)
	if err != nil {
		return ConfidenceScore{}, err
	}

	hitRate := calc.HitRate(history, category, threshold)
	return s.CalculateConfidenceScore(ctx, player, game, category, threshold, hitRate, len(history))
}

func (s *ConfidenceService) blend(hitRate decimal.Decimal, gamesCount int, rest models.RestImpact, gc models.GameContext, blowoutRisk decimal.Decimal, advanced models.AdvancedImpact) decimal.Decimal {
	base := hitRate.Mul(s.sampleWeight(gamesCount))

	restAdj := clampDecimal(rest.ImpactScore, restAdjFloor, restAdjCeil)
	contextAdj := clampDecimal(gc.OverallScore(), contextAdjFloor, contextAdjCeil)

	// High blowout risk shaves up to 10% off; strong advanced metrics swing
	// the score by at most +/-5%.
	blowoutAdj := decimal.NewFromInt(1).Sub(blowoutRisk.Div(hundred).Mul(blowoutPenaltyShare))
	advancedAdj := advancedAdjFloor.Add(advanced.OverallScore().Div(hundred).Mul(advancedSwingShare))

	score := base.Mul(restAdj).Mul(contextAdj).Mul(blowoutAdj).Mul(advancedAdj)
	return clampDecimal(score, decimal.Zero, hundred).Round(2)
}

// sampleWeight trusts the hit rate fully at the baseline window and
// discounts thinner samples linearly down to 1-decay.
func (s *ConfidenceService) sampleWeight(gamesCount int) decimal.Decimal {
	if gamesCount >= s.baselineWindow {
		return decimal.NewFromInt(1)
	}
	missing := decimal.NewFromInt(int64(s.baselineWindow - gamesCount)).
		Div(decimal.NewFromInt(int64(s.baselineWindow)))
	return decimal.NewFromInt(1).Sub(s.decay.Mul(missing))
}

func clampDecimal(v, floor, ceil decimal.Decimal) decimal.Decimal {
	if v.LessThan(floor) {
		return floor
	}
	if v.GreaterThan(ceil) {
		return ceil
	}
	return v
}
