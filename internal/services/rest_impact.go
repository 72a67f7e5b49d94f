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

// restPatternWindow bounds how far back rest-pattern queries reach.
// A season is 82 games.
const restPatternWindow = 82

// RestImpactService derives rest situations from a player's schedule
// history.
type RestImpactService struct {
	games        repository.GameRepository
	logger       *logrus.Logger
	recentWindow int
}

func NewRestImpactService(games repository.GameRepository, logger *logrus.Logger, recentWindow int) *RestImpactService {
	return &RestImpactService{
		games:        games,
		logger:       logger,
		recentWindow: recentWindow,
	}
}

// CalculateRestImpact builds the rest impact for a player's upcoming game
// from the games played before it.
func (s *RestImpactService) CalculateRestImpact(ctx context.Context, player models.Player, game models.Game) (models.RestImpact, error) {
	if player.ID == 0 {
		return models.RestImpact{}, fmt.Errorf("%w: rest impact requires a player", utils.ErrInvalidInput)
	}
	if game.GameDate.IsZero() {
		return models.RestImpact{}, fmt.Errorf("%w: rest impact requires a scheduled game date", utils.ErrInvalidInput)
	}

	recent, err := s.games.GamesBeforeDate(ctx, player.ID, game.GameDate, s.recentWindow)
	if err != nil {
		return models.RestImpact{}, err
	}

	previous := prevGameDate(recent)
	impact := calc.NewRestImpact(previous, game.GameDate, recent)

	s.logger.WithFields(logrus.Fields{
		"player_id":    player.ID,
		"days_of_rest": impact.DaysOfRest,
		"back_to_back": impact.IsBackToBack,
	}).Debug("Calculated rest impact")

	return impact, nil
}

// HistoricalRestPerformance averages the player's category production in
// games that followed exactly the given rest. Returns 0.00 when the player
// has no such games.
func (s *RestImpactService) HistoricalRestPerformance(ctx context.Context, player models.Player, daysOfRest int, category models.StatCategory) (decimal.Decimal, error) {
	if player.ID == 0 {
		return decimal.Zero, fmt.Errorf("%w: rest performance requires a player", utils.ErrInvalidInput)
	}

	games, err := s.games.RecentGamesForPlayer(ctx, player.ID, restPatternWindow)
	if err != nil {
		return decimal.Zero, err
	}

	var matching []models.PlayerGameStats
	for i := 0; i+1 < len(games); i++ {
		// Newest first: games[i+1] preceded games[i].
		rest := calc.DaysOfRest(games[i+1].GameDate, games[i].GameDate)
		if rest == daysOfRest {
			matching = append(matching, games[i])
		}
	}

	return calc.Average(matching, category), nil
}

// AnalyzeRecentRestPattern rebuilds the rest impact of each recent game,
// newest first, so callers can see how the player's category production
// tracked rest.
func (s *RestImpactService) AnalyzeRecentRestPattern(ctx context.Context, player models.Player, category models.StatCategory) ([]models.RestImpact, error) {
	if player.ID == 0 {
		return nil, fmt.Errorf("%w: rest pattern requires a player", utils.ErrInvalidInput)
	}

	games, err := s.games.RecentGamesForPlayer(ctx, player.ID, s.recentWindow)
	if err != nil {
		return nil, err
	}

	impacts := make([]models.RestImpact, 0, len(games))
	for i := 0; i+1 < len(games); i++ {
		impacts = append(impacts, calc.CategoryRestImpact(games[i+1].GameDate, games[i].GameDate, games[i+1:], category))
	}
	return impacts, nil
}

// IsBackToBack reports whether the player's upcoming game follows a game
// on the previous calendar day.
func (s *RestImpactService) IsBackToBack(ctx context.Context, game models.Game, player models.Player) (bool, error) {
	impact, err := s.CalculateRestImpact(ctx, player, game)
	if err != nil {
		return false, err
	}
	return impact.IsBackToBack, nil
}

func prevGameDate(recent []models.PlayerGameStats) time.Time {
	if len(recent) > 0 {
		return recent[0].GameDate
	}
	return time.Time{}
}
