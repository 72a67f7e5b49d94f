package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"github.com/hoopsight/prop-engine/internal/cache"
	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/internal/providers"
	"github.com/hoopsight/prop-engine/pkg/database"
)

// syncTimeout bounds one full nightly run.
const syncTimeout = 15 * time.Minute

// StatsSyncService pulls finished games, box scores and advanced lines
// from the stats provider into the database on a nightly schedule.
type StatsSyncService struct {
	db        *database.DB
	client    *providers.StatsAPIClient
	cacheSync *cache.CacheSyncService
	cacheData *cache.CacheService
	logger    *logrus.Logger
	cron      *cron.Cron
	schedule  string

	mu        sync.Mutex
	isRunning bool
}

// NewStatsSyncService creates the sync job. Schedule is a standard cron
// expression, typically early morning after west-coast games finish.
func NewStatsSyncService(
	db *database.DB,
	client *providers.StatsAPIClient,
	cacheSync *cache.CacheSyncService,
	cacheData *cache.CacheService,
	logger *logrus.Logger,
	schedule string,
) *StatsSyncService {
	return &StatsSyncService{
		db:        db,
		client:    client,
		cacheSync: cacheSync,
		cacheData: cacheData,
		logger:    logger,
		cron:      cron.New(),
		schedule:  schedule,
	}
}

// Start schedules the nightly sync.
func (s *StatsSyncService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("stats sync is already running")
	}

	_, err := s.cron.AddFunc(s.schedule, s.runNightly)
	if err != nil {
		return fmt.Errorf("failed to schedule stats sync: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("schedule", s.schedule).Info("Stats sync service started")
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *StatsSyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Stats sync service stopped")
}

func (s *StatsSyncService) runNightly() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	// Games finish late; the nightly run covers the previous calendar day.
	date := time.Now().UTC().AddDate(0, 0, -1)
	if err := s.SyncDate(ctx, date); err != nil {
		s.logger.WithError(err).Error("Nightly stats sync failed")
	}
}

// SyncDate ingests everything the provider has for one calendar day:
// teams, games, box scores and advanced lines. The refresh lock keeps
// overlapping manual and scheduled runs from double-writing.
func (s *StatsSyncService) SyncDate(ctx context.Context, date time.Time) error {
	return s.cacheSync.CoordinateCacheRefresh("stats-sync", func() error {
		start := time.Now()

		if err := s.syncTeams(ctx); err != nil {
			return err
		}
		games, err := s.syncGames(ctx, date)
		if err != nil {
			return err
		}
		if err := s.syncTeamAggregates(ctx); err != nil {
			return err
		}
		players, err := s.syncBoxScores(ctx, date)
		if err != nil {
			return err
		}
		if err := s.syncAdvanced(ctx, date); err != nil {
			return err
		}
		s.invalidatePlayers(ctx, players)

		s.logger.WithFields(logrus.Fields{
			"date":     date.Format("2006-01-02"),
			"games":    games,
			"players":  len(players),
			"duration": time.Since(start).String(),
		}).Info("Stats sync completed")
		return nil
	})
}

func (s *StatsSyncService) syncTeams(ctx context.Context) error {
	teams, err := s.client.ListTeams(ctx)
	if err != nil {
		return err
	}

	for _, t := range teams {
		team := models.Team{
			ExternalID:   strconv.Itoa(t.ID),
			Abbreviation: t.Abbreviation,
			FullName:     t.FullName,
		}
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "external_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"abbreviation", "full_name", "updated_at"}),
			}).
			Create(&team).Error
		if err != nil {
			return fmt.Errorf("upserting team %s: %w", t.Abbreviation, err)
		}
	}
	return nil
}

func (s *StatsSyncService) syncGames(ctx context.Context, date time.Time) (int, error) {
	games, err := s.client.GamesByDate(ctx, date)
	if err != nil {
		return 0, err
	}

	for _, g := range games {
		homeID, err := s.teamIDByExternal(ctx, g.HomeTeam.ID)
		if err != nil {
			return 0, err
		}
		awayID, err := s.teamIDByExternal(ctx, g.VisitorTeam.ID)
		if err != nil {
			return 0, err
		}

		game := models.Game{
			ExternalID: strconv.Itoa(g.ID),
			Season:     strconv.Itoa(g.Season),
			GameDate:   date,
			HomeTeamID: homeID,
			AwayTeamID: awayID,
			Final:      g.Status == "Final",
		}
		if game.Final {
			home, away := g.HomeScore, g.VisitorScore
			game.HomeScore = &home
			game.AwayScore = &away
		}

		err = s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "external_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"home_score", "away_score", "final", "updated_at"}),
			}).
			Create(&game).Error
		if err != nil {
			return 0, fmt.Errorf("upserting game %d: %w", g.ID, err)
		}
	}
	return len(games), nil
}

// syncTeamAggregates recomputes every team's season line from the finals
// on record, so the rating tables the scorers read stay current with the
// ingested games. The provider exposes no team-aggregate endpoint, so the
// ratings are per-game approximations: points scored and allowed per game,
// their difference as net rating, and the average points a side sees per
// game as pace.
func (s *StatsSyncService) syncTeamAggregates(ctx context.Context) error {
	var games []models.Game
	err := s.db.WithContext(ctx).Where("final = ?", true).Find(&games).Error
	if err != nil {
		return fmt.Errorf("loading final games: %w", err)
	}

	type aggregate struct {
		played        int
		pointsFor     int
		pointsAgainst int
	}
	totals := map[string]map[uint]*aggregate{}
	add := func(season string, teamID uint, scored, allowed int) {
		if totals[season] == nil {
			totals[season] = map[uint]*aggregate{}
		}
		agg := totals[season][teamID]
		if agg == nil {
			agg = &aggregate{}
			totals[season][teamID] = agg
		}
		agg.played++
		agg.pointsFor += scored
		agg.pointsAgainst += allowed
	}
	for _, g := range games {
		if g.HomeScore == nil || g.AwayScore == nil {
			continue
		}
		add(g.Season, g.HomeTeamID, *g.HomeScore, *g.AwayScore)
		add(g.Season, g.AwayTeamID, *g.AwayScore, *g.HomeScore)
	}

	for season, teams := range totals {
		for teamID, agg := range teams {
			played := float64(agg.played)
			off := float64(agg.pointsFor) / played
			def := float64(agg.pointsAgainst) / played
			stats := models.TeamStats{
				TeamID:          teamID,
				Season:          season,
				NetRating:       off - def,
				OffensiveRating: off,
				DefensiveRating: def,
				Pace:            (off + def) / 2,
				GamesPlayed:     agg.played,
			}
			err := s.db.WithContext(ctx).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "team_id"}, {Name: "season"}},
					DoUpdates: clause.AssignmentColumns([]string{"net_rating", "offensive_rating", "defensive_rating", "pace", "games_played", "updated_at"}),
				}).
				Create(&stats).Error
			if err != nil {
				return fmt.Errorf("upserting team stats for team %d: %w", teamID, err)
			}
		}
	}
	return nil
}

func (s *StatsSyncService) syncBoxScores(ctx context.Context, date time.Time) ([]uint, error) {
	lines, err := s.client.StatsByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	var playerIDs []uint
	for _, line := range lines {
		playerID, err := s.upsertPlayer(ctx, line.Player, line.Team)
		if err != nil {
			return nil, err
		}
		playerIDs = append(playerIDs, playerID)

		game, err := s.gameByExternal(ctx, line.Game.ID)
		if err != nil {
			return nil, err
		}

		opponentID := game.AwayTeamID
		homeGame := true
		if line.Team.ID != 0 {
			teamID, err := s.teamIDByExternal(ctx, line.Team.ID)
			if err != nil {
				return nil, err
			}
			if teamID == game.AwayTeamID {
				opponentID = game.HomeTeamID
				homeGame = false
			}
		}

		raw, err := json.Marshal(line)
		if err != nil {
			return nil, fmt.Errorf("encoding box score for player %d: %w", line.Player.ID, err)
		}

		stats := models.PlayerGameStats{
			PlayerID:    playerID,
			GameID:      game.ID,
			GameDate:    game.GameDate,
			OpponentID:  opponentID,
			HomeGame:    homeGame,
			Minutes:     parseMinutes(line.Min),
			Points:      line.Points,
			Assists:     line.Assists,
			Rebounds:    line.Rebounds,
			RawBoxScore: datatypes.JSON(raw),
		}
		err = s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "player_id"}, {Name: "game_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"minutes", "points", "assists", "rebounds", "raw_box_score"}),
			}).
			Create(&stats).Error
		if err != nil {
			return nil, fmt.Errorf("upserting box score for player %d: %w", line.Player.ID, err)
		}
	}
	return playerIDs, nil
}

func (s *StatsSyncService) syncAdvanced(ctx context.Context, date time.Time) error {
	lines, err := s.client.AdvancedStatsByDate(ctx, date)
	if err != nil {
		return err
	}

	for _, line := range lines {
		playerID, err := s.playerIDByExternal(ctx, line.Player.ID)
		if err != nil {
			// Advanced lines can reference players with no box score yet.
			s.logger.WithField("external_id", line.Player.ID).Debug("Skipping advanced line for unknown player")
			continue
		}

		record := models.PlayerAdvancedStats{
			PlayerID:     playerID,
			Season:       strconv.Itoa(line.Game.Season),
			PIE:          line.PIE,
			UsageRate:    line.UsagePercent,
			TrueShooting: line.TrueShooting,
			AsOf:         date,
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("inserting advanced stats for player %d: %w", line.Player.ID, err)
		}
	}
	return nil
}

// invalidatePlayers drops the cached confidence scores of every player
// whose history changed. Misses are fine, the next read recomputes.
func (s *StatsSyncService) invalidatePlayers(ctx context.Context, playerIDs []uint) {
	for _, id := range playerIDs {
		for _, category := range []models.StatCategory{models.CategoryPoints, models.CategoryAssists, models.CategoryRebounds} {
			pattern := fmt.Sprintf("%s:confidence:%d:%s:*", cache.KeyVersion, id, category)
			if err := s.cacheData.DeleteByPattern(ctx, pattern); err != nil {
				s.logger.WithError(err).WithField("player_id", id).Warn("Failed to invalidate cached scores")
			}
		}
	}
}

func (s *StatsSyncService) upsertPlayer(ctx context.Context, p providers.PlayerData, team providers.TeamData) (uint, error) {
	teamID, err := s.teamIDByExternal(ctx, team.ID)
	if err != nil {
		return 0, err
	}

	player := models.Player{
		ExternalID: strconv.Itoa(p.ID),
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Position:   p.Position,
		TeamID:     teamID,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "position", "team_id", "updated_at"}),
		}).
		Create(&player).Error
	if err != nil {
		return 0, fmt.Errorf("upserting player %d: %w", p.ID, err)
	}
	return s.playerIDByExternal(ctx, p.ID)
}

func (s *StatsSyncService) teamIDByExternal(ctx context.Context, externalID int) (uint, error) {
	var team models.Team
	err := s.db.WithContext(ctx).Where("external_id = ?", strconv.Itoa(externalID)).First(&team).Error
	if err != nil {
		return 0, fmt.Errorf("looking up team %d: %w", externalID, err)
	}
	return team.ID, nil
}

func (s *StatsSyncService) playerIDByExternal(ctx context.Context, externalID int) (uint, error) {
	var player models.Player
	err := s.db.WithContext(ctx).Where("external_id = ?", strconv.Itoa(externalID)).First(&player).Error
	if err != nil {
		return 0, fmt.Errorf("looking up player %d: %w", externalID, err)
	}
	return player.ID, nil
}

func (s *StatsSyncService) gameByExternal(ctx context.Context, externalID int) (models.Game, error) {
	var game models.Game
	err := s.db.WithContext(ctx).Where("external_id = ?", strconv.Itoa(externalID)).First(&game).Error
	if err != nil {
		return models.Game{}, fmt.Errorf("looking up game %d: %w", externalID, err)
	}
	return game, nil
}

// parseMinutes handles the provider's "34" and "34:30" minute formats.
func parseMinutes(raw string) float64 {
	if raw == "" {
		return 0
	}
	var whole, seconds int
	if n, _ := fmt.Sscanf(raw, "%d:%d", &whole, &seconds); n == 2 {
		return float64(whole) + float64(seconds)/60
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	return 0
}
