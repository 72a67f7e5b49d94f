package repository

import (
	"context"
	"time"

	"github.com/hoopsight/prop-engine/internal/models"
)

// GameRepository declares the historical-game lookups the impact services
// depend on. Implementations return domain models and surface the shared
// error kinds from pkg/utils, never driver errors.
type GameRepository interface {
	// RecentGamesForPlayer returns up to limit played games, newest first.
	RecentGamesForPlayer(ctx context.Context, playerID uint, limit int) ([]models.PlayerGameStats, error)
	// GamesBeforeDate returns up to limit games played strictly before the
	// given date, newest first.
	GamesBeforeDate(ctx context.Context, playerID uint, before time.Time, limit int) ([]models.PlayerGameStats, error)
	// HeadToHeadGames returns completed games between two teams in either
	// venue arrangement, newest first.
	HeadToHeadGames(ctx context.Context, teamA, teamB uint, limit int) ([]models.Game, error)
	// GameByID loads a game with both teams resolved.
	GameByID(ctx context.Context, id uint) (models.Game, error)
	// NextGameForTeam returns the team's first game on or after the given
	// time.
	NextGameForTeam(ctx context.Context, teamID uint, after time.Time) (models.Game, error)
}

// StatsRepository declares team/player aggregate lookups.
type StatsRepository interface {
	PlayerByID(ctx context.Context, id uint) (models.Player, error)
	// ActivePlayers returns up to limit players with at least one recorded
	// game, most productive first.
	ActivePlayers(ctx context.Context, limit int) ([]models.Player, error)
	// TeamStats returns a team's current-season pace/rating line.
	TeamStats(ctx context.Context, teamID uint) (models.TeamStats, error)
	// LatestAdvancedStats returns the most recent advanced-metrics record
	// for a player.
	LatestAdvancedStats(ctx context.Context, playerID uint) (models.PlayerAdvancedStats, error)
}
