package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/models"
	"github.com/hoopsight/prop-engine/pkg/config"
	"github.com/hoopsight/prop-engine/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		if err := runMigrations(db, cfg.DatabaseURL); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", os.Args[1])
	}
}

func runMigrations(db *database.DB, databaseURL string) error {
	if err := db.AutoMigrate(
		&models.Team{},
		&models.TeamStats{},
		&models.Player{},
		&models.Game{},
		&models.PlayerGameStats{},
		&models.PlayerAdvancedStats{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Composite indexes the hot query paths rely on. Postgres only; the
	// sqlite dev database gets by on the model-level indexes.
	if strings.HasPrefix(databaseURL, "sqlite://") {
		return nil
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_pgs_player_date ON player_game_stats(player_id, game_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_pgs_player_opponent ON player_game_stats(player_id, opponent_id)",
		"CREATE INDEX IF NOT EXISTS idx_games_teams_date ON games(home_team_id, away_team_id, game_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_games_date ON games(game_date)",
		"CREATE INDEX IF NOT EXISTS idx_advanced_player_asof ON player_advanced_stats(player_id, as_of DESC)",
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func dropTables(db *database.DB) error {
	// Reverse dependency order for the foreign keys.
	tables := []string{
		"player_advanced_stats",
		"player_game_stats",
		"games",
		"players",
		"team_stats",
		"teams",
	}
	for _, table := range tables {
		if err := db.Exec("DROP TABLE IF EXISTS " + table).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

// seedData loads a small two-team fixture for local development.
func seedData(db *database.DB) error {
	teams := []models.Team{
		{ExternalID: "2", Abbreviation: "BOS", FullName: "Boston Celtics"},
		{ExternalID: "14", Abbreviation: "LAL", FullName: "Los Angeles Lakers"},
	}
	for i := range teams {
		if err := db.FirstOrCreate(&teams[i], models.Team{ExternalID: teams[i].ExternalID}).Error; err != nil {
			return fmt.Errorf("failed to seed team %s: %w", teams[i].Abbreviation, err)
		}
	}

	season := "2025"
	stats := []models.TeamStats{
		{TeamID: teams[0].ID, Season: season, NetRating: 8.4, OffensiveRating: 120.1, DefensiveRating: 111.7, Pace: 98.9, GamesPlayed: 40},
		{TeamID: teams[1].ID, Season: season, NetRating: 1.2, OffensiveRating: 115.3, DefensiveRating: 114.1, Pace: 101.2, GamesPlayed: 41},
	}
	for i := range stats {
		if err := db.Save(&stats[i]).Error; err != nil {
			return fmt.Errorf("failed to seed team stats: %w", err)
		}
	}

	players := []models.Player{
		{ExternalID: "3547238", FirstName: "Jayson", LastName: "Tatum", Position: "F", EligiblePositions: pq.StringArray{"SF", "PF"}, TeamID: teams[0].ID},
		{ExternalID: "2544", FirstName: "LeBron", LastName: "James", Position: "F", EligiblePositions: pq.StringArray{"SF", "PF", "PG"}, TeamID: teams[1].ID},
	}
	for i := range players {
		if err := db.FirstOrCreate(&players[i], models.Player{ExternalID: players[i].ExternalID}).Error; err != nil {
			return fmt.Errorf("failed to seed player %s: %w", players[i].LastName, err)
		}
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	homeScore, awayScore := 118, 102
	past := models.Game{
		ExternalID: "seed-past-1",
		Season:     season,
		GameDate:   now.AddDate(0, 0, -2),
		HomeTeamID: teams[0].ID,
		AwayTeamID: teams[1].ID,
		HomeScore:  &homeScore,
		AwayScore:  &awayScore,
		Final:      true,
	}
	upcoming := models.Game{
		ExternalID: "seed-next-1",
		Season:     season,
		GameDate:   now.AddDate(0, 0, 1),
		HomeTeamID: teams[1].ID,
		AwayTeamID: teams[0].ID,
	}
	for _, g := range []*models.Game{&past, &upcoming} {
		if err := db.FirstOrCreate(g, models.Game{ExternalID: g.ExternalID}).Error; err != nil {
			return fmt.Errorf("failed to seed game %s: %w", g.ExternalID, err)
		}
	}

	lines := []models.PlayerGameStats{
		{PlayerID: players[0].ID, GameID: past.ID, GameDate: past.GameDate, OpponentID: teams[1].ID, HomeGame: true, Minutes: 36.5, Points: 31, Assists: 5, Rebounds: 9},
		{PlayerID: players[1].ID, GameID: past.ID, GameDate: past.GameDate, OpponentID: teams[0].ID, HomeGame: false, Minutes: 35.0, Points: 24, Assists: 8, Rebounds: 7},
	}
	for i := range lines {
		err := db.FirstOrCreate(&lines[i], models.PlayerGameStats{PlayerID: lines[i].PlayerID, GameID: lines[i].GameID}).Error
		if err != nil {
			return fmt.Errorf("failed to seed box score: %w", err)
		}
	}

	advanced := []models.PlayerAdvancedStats{
		{PlayerID: players[0].ID, Season: season, PIE: 0.152, UsageRate: 0.298, TrueShooting: 0.601, AsOf: past.GameDate},
		{PlayerID: players[1].ID, Season: season, PIE: 0.148, UsageRate: 0.276, TrueShooting: 0.592, AsOf: past.GameDate},
	}
	for i := range advanced {
		if err := db.Create(&advanced[i]).Error; err != nil {
			return fmt.Errorf("failed to seed advanced stats: %w", err)
		}
	}

	return nil
}
