package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/pkg/database"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

// GormRepository backs both repository contracts with the shared gorm
// connection.
type GormRepository struct {
	db *database.DB
}

func NewGormRepository(db *database.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) RecentGamesForPlayer(ctx context.Context, playerID uint, limit int) ([]models.PlayerGameStats, error) {
	if playerID == 0 {
		return nil, fmt.Errorf("%w: player id must be positive", utils.ErrInvalidInput)
	}
	var games []models.PlayerGameStats
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("game_date DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("%w: loading recent games for player %d: %v", utils.ErrUpstream, playerID, err)
	}
	return games, nil
}

func (r *GormRepository) GamesBeforeDate(ctx context.Context, playerID uint, before time.Time, limit int) ([]models.PlayerGameStats, error) {
	if playerID == 0 {
		return nil, fmt.Errorf("%w: player id must be positive", utils.ErrInvalidInput)
	}
	var games []models.PlayerGameStats
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND game_date < ?", playerID, before).
		Order("game_date DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("%w: loading games before %s for player %d: %v", utils.ErrUpstream, before.Format("2006-01-02"), playerID, err)
	}
	return games, nil
}

func (r *GormRepository) HeadToHeadGames(ctx context.Context, teamA, teamB uint, limit int) ([]models.Game, error) {
	var games []models.Game
	err := r.db.WithContext(ctx).
		Where("final = ?", true).
		Where("(home_team_id = ? AND away_team_id = ?) OR (home_team_id = ? AND away_team_id = ?)",
			teamA, teamB, teamB, teamA).
		Order("game_date DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("%w: loading head-to-head games for teams %d/%d: %v", utils.ErrUpstream, teamA, teamB, err)
	}
	return games, nil
}

func (r *GormRepository) GameByID(ctx context.Context, id uint) (models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Preload("HomeTeam").
		Preload("AwayTeam").
		First(&game, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Game{}, fmt.Errorf("%w: game %d", utils.ErrNotFound, id)
		}
		return models.Game{}, fmt.Errorf("%w: loading game %d: %v", utils.ErrUpstream, id, err)
	}
	return game, nil
}

func (r *GormRepository) NextGameForTeam(ctx context.Context, teamID uint, after time.Time) (models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Preload("HomeTeam").
		Preload("AwayTeam").
		Where("game_date >= ? AND (home_team_id = ? OR away_team_id = ?)", after, teamID, teamID).
		Order("game_date ASC").
		First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Game{}, fmt.Errorf("%w: no upcoming game for team %d", utils.ErrNotFound, teamID)
		}
		return models.Game{}, fmt.Errorf("%w: loading next game for team %d: %v", utils.ErrUpstream, teamID, err)
	}
	return game, nil
}

func (r *GormRepository) PlayerByID(ctx context.Context, id uint) (models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).Preload("Team").First(&player, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Player{}, fmt.Errorf("%w: player %d", utils.ErrNotFound, id)
		}
		return models.Player{}, fmt.Errorf("%w: loading player %d: %v", utils.ErrUpstream, id, err)
	}
	return player, nil
}

func (r *GormRepository) ActivePlayers(ctx context.Context, limit int) ([]models.Player, error) {
	var players []models.Player
	err := r.db.WithContext(ctx).
		Joins("JOIN player_game_stats ON player_game_stats.player_id = players.id").
		Group("players.id").
		Order("AVG(player_game_stats.points) DESC").
		Limit(limit).
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("%w: loading active players: %v", utils.ErrUpstream, err)
	}
	return players, nil
}

func (r *GormRepository) TeamStats(ctx context.Context, teamID uint) (models.TeamStats, error) {
	var stats models.TeamStats
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("season DESC").
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TeamStats{}, fmt.Errorf("%w: team stats for team %d", utils.ErrNotFound, teamID)
		}
		return models.TeamStats{}, fmt.Errorf("%w: loading team stats for team %d: %v", utils.ErrUpstream, teamID, err)
	}
	return stats, nil
}

func (r *GormRepository) LatestAdvancedStats(ctx context.Context, playerID uint) (models.PlayerAdvancedStats, error) {
	var stats models.PlayerAdvancedStats
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("as_of DESC").
		First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PlayerAdvancedStats{}, fmt.Errorf("%w: advanced stats for player %d", utils.ErrNotFound, playerID)
		}
		return models.PlayerAdvancedStats{}, fmt.Errorf("%w: loading advanced stats for player %d: %v", utils.ErrUpstream, playerID, err)
	}
	return stats, nil
}
