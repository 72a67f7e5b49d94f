package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/calc"
	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/internal/repository"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

// headToHeadWindow bounds how many recent meetings feed the historical
// matchup factor.
const headToHeadWindow = 10

var maxRisk = decimal.NewFromInt(100)

// BlowoutRiskService estimates how likely a game turns lopsided enough to
// cut into star minutes.
type BlowoutRiskService struct {
	games     repository.GameRepository
	stats     repository.StatsRepository
	logger    *logrus.Logger
	threshold decimal.Decimal
}

func NewBlowoutRiskService(games repository.GameRepository, stats repository.StatsRepository, logger *logrus.Logger, riskThreshold float64) *BlowoutRiskService {
	return &BlowoutRiskService{
		games:     games,
		stats:     stats,
		logger:    logger,
		threshold: decimal.NewFromFloat(riskThreshold),
	}
}

// CalculateBlowoutRisk returns the blowout risk for a game on the 0-100
// scale: strength differential fed through the probability curve, then
// scaled by how often this pairing has historically gone sideways.
func (s *BlowoutRiskService) CalculateBlowoutRisk(ctx context.Context, game models.Game) (decimal.Decimal, error) {
	if game.HomeTeamID == 0 || game.AwayTeamID == 0 {
		return decimal.Zero, fmt.Errorf("%w: blowout risk requires both teams", utils.ErrInvalidInput)
	}

	home, err := s.stats.TeamStats(ctx, game.HomeTeamID)
	if err != nil {
		return decimal.Zero, err
	}
	away, err := s.stats.TeamStats(ctx, game.AwayTeamID)
	if err != nil {
		return decimal.Zero, err
	}

	differential := calc.TeamStrengthDifferential(
		decimal.NewFromFloat(home.NetRating),
		decimal.NewFromFloat(away.NetRating),
		decimal.NewFromFloat(home.Pace),
		decimal.NewFromFloat(away.Pace),
	)
	probability := calc.BlowoutProbability(differential)

	history, err := s.games.HeadToHeadGames(ctx, game.HomeTeamID, game.AwayTeamID, headToHeadWindow)
	if err != nil {
		return decimal.Zero, err
	}
	blowouts := 0
	for _, g := range history {
		if calc.WasBlowout(g.HomeScore, g.AwayScore) {
			blowouts++
		}
	}
	factor := calc.HistoricalMatchupFactor(blowouts, len(history))

	risk := probability.Mul(factor).Round(4)
	if risk.GreaterThan(maxRisk) {
		risk = maxRisk
	}

	s.logger.WithFields(logrus.Fields{
		"game_id":      game.ID,
		"differential": differential,
		"risk":         risk,
	}).Debug("Calculated blowout risk")

	return risk, nil
}

// IsHighBlowoutRisk reports whether the game's risk clears the configured
// threshold.
func (s *BlowoutRiskService) IsHighBlowoutRisk(ctx context.Context, game models.Game) (bool, error) {
	risk, err := s.CalculateBlowoutRisk(ctx, game)
	if err != nil {
		return false, err
	}
	return risk.GreaterThan(s.threshold), nil
}

// BlowoutImpactForRisk translates a risk percentage into the retention
// factors applied to a player's expected line. High risk drains garbage
// time minutes faster than per-minute production.
func BlowoutImpactForRisk(risk decimal.Decimal) models.BlowoutImpact {
	ratio := risk.Div(maxRisk)
	return models.BlowoutImpact{
		// Up to 15% of minutes at maximum risk.
		MinutesRetention: decimal.NewFromInt(1).Sub(ratio.Mul(decimal.NewFromFloat(0.15))).Round(4),
		// Per-minute production holds up better: at most 5% off.
		PerformanceRetention: decimal.NewFromInt(1).Sub(ratio.Mul(decimal.NewFromFloat(0.05))).Round(4),
		BaseRisk:             risk,
	}
}
