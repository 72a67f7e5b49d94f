package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/calc"
	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/internal/repository"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

// League-average anchors for the advanced metrics. A league-average player
// scores 0.5 on each component before normalization.
var (
	leagueAveragePIE      = decimal.NewFromFloat(0.10)
	leagueAverageUsage    = decimal.NewFromFloat(0.20)
	leagueAverageTrueShot = decimal.NewFromFloat(0.56)
	componentMidpoint     = decimal.NewFromFloat(0.5)
)

// Advanced component weights per category: playmaking leans on usage,
// rebounding on overall floor impact. Each row sums to exactly 1.00.
var advancedWeights = map[models.StatCategory]map[string]decimal.Decimal{
	models.CategoryPoints:   {"PIE": decimal.NewFromFloat(0.40), "USAGE": decimal.NewFromFloat(0.35), "EFFICIENCY": decimal.NewFromFloat(0.25)},
	models.CategoryAssists:  {"PIE": decimal.NewFromFloat(0.35), "USAGE": decimal.NewFromFloat(0.40), "EFFICIENCY": decimal.NewFromFloat(0.25)},
	models.CategoryRebounds: {"PIE": decimal.NewFromFloat(0.45), "USAGE": decimal.NewFromFloat(0.30), "EFFICIENCY": decimal.NewFromFloat(0.25)},
}

// AdvancedMetricsService converts a player's advanced-metrics line into a
// 0-100 impact score.
type AdvancedMetricsService struct {
	stats  repository.StatsRepository
	logger *logrus.Logger
}

func NewAdvancedMetricsService(stats repository.StatsRepository, logger *logrus.Logger) *AdvancedMetricsService {
	return &AdvancedMetricsService{stats: stats, logger: logger}
}

// CalculateAdvancedImpact builds the weighted advanced-metrics impact for
// a player and category. A player with no advanced-stats record scores a
// neutral 50.00.
func (s *AdvancedMetricsService) CalculateAdvancedImpact(ctx context.Context, player models.Player, category models.StatCategory) (models.AdvancedImpact, error) {
	if player.ID == 0 {
		return models.AdvancedImpact{}, fmt.Errorf("%w: advanced impact requires a player", utils.ErrInvalidInput)
	}

	weights := s.CategoryWeights(category)

	latest, err := s.stats.LatestAdvancedStats(ctx, player.ID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			neutral := decimal.NewFromInt(50)
			return models.AdvancedImpact{
				PIEImpact:        neutral,
				UsageRateImpact:  neutral,
				EfficiencyImpact: neutral,
				Category:         category,
				ComponentWeights: weights,
			}, nil
		}
		return models.AdvancedImpact{}, err
	}

	impact := models.AdvancedImpact{
		PIEImpact:        s.AnalyzePIEImpact(latest),
		UsageRateImpact:  s.AnalyzeUsageRateImpact(latest),
		EfficiencyImpact: s.analyzeEfficiencyImpact(latest),
		Category:         category,
		ComponentWeights: weights,
	}

	s.logger.WithFields(logrus.Fields{
		"player_id": player.ID,
		"category":  category.String(),
		"overall":   impact.OverallScore(),
	}).Debug("Calculated advanced impact")

	return impact, nil
}

// AnalyzePIEImpact scores the player's PIE against league average on the
// 0-100 scale: average lands at 50, a PIE twice the average at 100.
func (s *AdvancedMetricsService) AnalyzePIEImpact(stats models.PlayerAdvancedStats) decimal.Decimal {
	return normalizeAgainstAverage(decimal.NewFromFloat(stats.PIE), leagueAveragePIE)
}

// AnalyzeUsageRateImpact scores usage rate the same way.
func (s *AdvancedMetricsService) AnalyzeUsageRateImpact(stats models.PlayerAdvancedStats) decimal.Decimal {
	return normalizeAgainstAverage(decimal.NewFromFloat(stats.UsageRate), leagueAverageUsage)
}

func (s *AdvancedMetricsService) analyzeEfficiencyImpact(stats models.PlayerAdvancedStats) decimal.Decimal {
	return normalizeAgainstAverage(decimal.NewFromFloat(stats.TrueShooting), leagueAverageTrueShot)
}

// CategoryWeights returns the component weights for a category. The
// returned map always carries the PIE/USAGE/EFFICIENCY keys and sums to
// 1.00.
func (s *AdvancedMetricsService) CategoryWeights(category models.StatCategory) map[string]decimal.Decimal {
	w := advancedWeights[category]
	out := make(map[string]decimal.Decimal, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// LatestAdvancedStats exposes the most recent advanced record for the
// boundary layer.
func (s *AdvancedMetricsService) LatestAdvancedStats(ctx context.Context, player models.Player) (models.PlayerAdvancedStats, error) {
	if player.ID == 0 {
		return models.PlayerAdvancedStats{}, fmt.Errorf("%w: advanced stats require a player", utils.ErrInvalidInput)
	}
	return s.stats.LatestAdvancedStats(ctx, player.ID)
}

// normalizeAgainstAverage maps value/average onto 0-100 with the league
// average pinned to 50.
func normalizeAgainstAverage(value, average decimal.Decimal) decimal.Decimal {
	if average.IsZero() {
		return decimal.NewFromInt(50)
	}
	ratio := value.Div(average).Mul(componentMidpoint)
	return calc.NormalizeScore(ratio)
}
