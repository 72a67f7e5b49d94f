package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/pkg/utils"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

// fakeRepo is an in-memory GameRepository and StatsRepository. Game slices
// are stored newest first, matching the database ordering.
type fakeRepo struct {
	playerGames map[uint][]models.PlayerGameStats
	headToHead  []models.Game
	gamesByID   map[uint]models.Game
	nextGame    models.Game
	nextGameErr error
	players     map[uint]models.Player
	teamStats   map[uint]models.TeamStats
	advanced    map[uint]models.PlayerAdvancedStats
}

func (f *fakeRepo) RecentGamesForPlayer(ctx context.Context, playerID uint, limit int) ([]models.PlayerGameStats, error) {
	games := f.playerGames[playerID]
	if len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (f *fakeRepo) GamesBeforeDate(ctx context.Context, playerID uint, before time.Time, limit int) ([]models.PlayerGameStats, error) {
	var out []models.PlayerGameStats
	for _, g := range f.playerGames[playerID] {
		if g.GameDate.Before(before) {
			out = append(out, g)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) HeadToHeadGames(ctx context.Context, teamA, teamB uint, limit int) ([]models.Game, error) {
	games := f.headToHead
	if len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (f *fakeRepo) GameByID(ctx context.Context, id uint) (models.Game, error) {
	g, ok := f.gamesByID[id]
	if !ok {
		return models.Game{}, fmt.Errorf("%w: game %d", utils.ErrNotFound, id)
	}
	return g, nil
}

func (f *fakeRepo) NextGameForTeam(ctx context.Context, teamID uint, after time.Time) (models.Game, error) {
	if f.nextGameErr != nil {
		return models.Game{}, f.nextGameErr
	}
	return f.nextGame, nil
}

func (f *fakeRepo) PlayerByID(ctx context.Context, id uint) (models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return models.Player{}, fmt.Errorf("%w: player %d", utils.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeRepo) ActivePlayers(ctx context.Context, limit int) ([]models.Player, error) {
	var out []models.Player
	for _, p := range f.players {
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) TeamStats(ctx context.Context, teamID uint) (models.TeamStats, error) {
	s, ok := f.teamStats[teamID]
	if !ok {
		return models.TeamStats{}, fmt.Errorf("%w: team stats %d", utils.ErrNotFound, teamID)
	}
	return s, nil
}

func (f *fakeRepo) LatestAdvancedStats(ctx context.Context, playerID uint) (models.PlayerAdvancedStats, error) {
	s, ok := f.advanced[playerID]
	if !ok {
		return models.PlayerAdvancedStats{}, fmt.Errorf("%w: advanced stats %d", utils.ErrNotFound, playerID)
	}
	return s, nil
}

// playedGame builds a box-score line for day d, newest-first slices are
// assembled by the callers.
func playedGame(d int, opponentID uint, points, assists, rebounds int) models.PlayerGameStats {
	return models.PlayerGameStats{
		GameDate:   day(d),
		OpponentID: opponentID,
		Points:     points,
		Assists:    assists,
		Rebounds:   rebounds,
		Minutes:    34,
	}
}
