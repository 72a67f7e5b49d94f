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

// matchupWindow is how many games against the upcoming opponent feed the
// matchup component.
const matchupWindow = 20

// GameContextService scores the matchup-level environment of an upcoming
// game for one player and category.
type GameContextService struct {
	games        repository.GameRepository
	stats        repository.StatsRepository
	logger       *logrus.Logger
	recentWindow int
}

func NewGameContextService(games repository.GameRepository, stats repository.StatsRepository, logger *logrus.Logger, recentWindow int) *GameContextService {
	return &GameContextService{
		games:        games,
		stats:        stats,
		logger:       logger,
		recentWindow: recentWindow,
	}
}

// CalculateGameContext assembles matchup, defense, pace and venue factors
// for the player's upcoming game.
func (s *GameContextService) CalculateGameContext(ctx context.Context, player models.Player, game models.Game, category models.StatCategory) (models.GameContext, error) {
	if player.ID == 0 {
		return models.GameContext{}, fmt.Errorf("%w: game context requires a player", utils.ErrInvalidInput)
	}
	if game.HomeTeamID == 0 || game.AwayTeamID == 0 {
		return models.GameContext{}, fmt.Errorf("%w: game context requires both teams", utils.ErrInvalidInput)
	}

	opponentID := game.AwayTeamID
	if player.TeamID == game.AwayTeamID {
		opponentID = game.HomeTeamID
	}

	playerTeam, err := s.stats.TeamStats(ctx, player.TeamID)
	if err != nil {
		return models.GameContext{}, err
	}
	opponent, err := s.stats.TeamStats(ctx, opponentID)
	if err != nil {
		return models.GameContext{}, err
	}

	matchup, err := s.matchupImpact(ctx, player, opponentID, category)
	if err != nil {
		return models.GameContext{}, err
	}

	gc := models.GameContext{
		MatchupImpact:   matchup,
		DefensiveImpact: calc.DefensiveImpact(decimal.NewFromFloat(opponent.DefensiveRating), category),
		PaceImpact:      calc.PaceFactor(decimal.NewFromFloat(playerTeam.Pace), decimal.NewFromFloat(opponent.Pace)),
		VenueImpact:     calc.VenueFactor(game, player.TeamID),
		Category:        category,
	}

	s.logger.WithFields(logrus.Fields{
		"player_id": player.ID,
		"game_id":   game.ID,
		"category":  category.String(),
		"overall":   gc.OverallScore(),
	}).Debug("Calculated game context")

	return gc, nil
}

// IsFavorableContext reports whether the weighted context sits above
// neutral.
func (s *GameContextService) IsFavorableContext(ctx context.Context, player models.Player, game models.Game, category models.StatCategory) (bool, error) {
	gc, err := s.CalculateGameContext(ctx, player, game, category)
	if err != nil {
		return false, err
	}
	return gc.OverallScore().GreaterThanOrEqual(decimal.NewFromInt(1)), nil
}

// matchupImpact compares the player's production against this opponent to
// their overall recent production. Neutral (1.00) without head-to-head
// history.
func (s *GameContextService) matchupImpact(ctx context.Context, player models.Player, opponentID uint, category models.StatCategory) (decimal.Decimal, error) {
	recent, err := s.games.RecentGamesForPlayer(ctx, player.ID, s.recentWindow)
	if err != nil {
		return decimal.Zero, err
	}
	overallAvg := calc.Average(recent, category)
	if overallAvg.IsZero() {
		return decimal.NewFromFloat(1.00), nil
	}

	history, err := s.games.RecentGamesForPlayer(ctx, player.ID, matchupWindow*4)
	if err != nil {
		return decimal.Zero, err
	}
	var versus []models.PlayerGameStats
	for _, g := range history {
		if g.OpponentID == opponentID {
			versus = append(versus, g)
			if len(versus) == matchupWindow {
				break
			}
		}
	}
	if len(versus) == 0 {
		return decimal.NewFromFloat(1.00), nil
	}

	return calc.Average(versus, category).Div(overallAvg).Round(2), nil
}
