package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Player is an NBA player tracked by the engine.
type Player struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	ExternalID        string         `gorm:"uniqueIndex;size:50" json:"external_id"`
	FirstName         string         `gorm:"size:100;not null" json:"first_name"`
	LastName          string         `gorm:"size:100;not null" json:"last_name"`
	Position          string         `gorm:"size:10" json:"position"`
	EligiblePositions pq.StringArray `gorm:"type:text[]" json:"eligible_positions"`
	TeamID            uint           `gorm:"index" json:"team_id"`
	Team              Team           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"team"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Team holds a franchise plus its current season aggregates.
type Team struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ExternalID   string    `gorm:"uniqueIndex;size:50" json:"external_id"`
	Abbreviation string    `gorm:"uniqueIndex;size:10;not null" json:"abbreviation"`
	FullName     string    `gorm:"size:100;not null" json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TeamStats is a team's current-season pace and rating line, refreshed by
// the stats sync job.
type TeamStats struct {
	TeamID          uint      `gorm:"primaryKey" json:"team_id"`
	Team            Team      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Season          string    `gorm:"primaryKey;size:10" json:"season"`
	NetRating       float64   `json:"net_rating"`
	OffensiveRating float64   `json:"offensive_rating"`
	DefensiveRating float64   `json:"defensive_rating"`
	Pace            float64   `json:"pace"`
	GamesPlayed     int       `json:"games_played"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Game is a scheduled or completed matchup.
type Game struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"uniqueIndex;size:50" json:"external_id"`
	Season     string    `gorm:"size:10;index" json:"season"`
	GameDate   time.Time `gorm:"index;not null" json:"game_date"`
	HomeTeamID uint      `gorm:"index" json:"home_team_id"`
	HomeTeam   Team      `gorm:"foreignKey:HomeTeamID" json:"home_team"`
	AwayTeamID uint      `gorm:"index" json:"away_team_id"`
	AwayTeam   Team      `gorm:"foreignKey:AwayTeamID" json:"away_team"`
	HomeScore  *int      `json:"home_score"`
	AwayScore  *int      `json:"away_score"`
	Final      bool      `json:"final"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PlayerGameStats is one played game's box-score line for a player.
// Immutable once the game is final.
type PlayerGameStats struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PlayerID    uint           `gorm:"index:idx_player_game,unique" json:"player_id"`
	Player      Player         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	GameID      uint           `gorm:"index:idx_player_game,unique" json:"game_id"`
	Game        Game           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"game"`
	GameDate    time.Time      `gorm:"index;not null" json:"game_date"`
	OpponentID  uint           `json:"opponent_id"`
	HomeGame    bool           `json:"home_game"`
	Minutes     float64        `json:"minutes"`
	Points      int            `json:"points"`
	Assists     int            `json:"assists"`
	Rebounds    int            `json:"rebounds"`
	RawBoxScore datatypes.JSON `json:"raw_box_score"` // provider payload, kept for reprocessing
	CreatedAt   time.Time      `json:"created_at"`
}

// PlayerAdvancedStats is a player's advanced-metrics line for a season,
// refreshed by the stats sync job.
type PlayerAdvancedStats struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PlayerID     uint      `gorm:"index" json:"player_id"`
	Player       Player    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Season       string    `gorm:"size:10;index" json:"season"`
	PIE          float64   `json:"pie"`
	UsageRate    float64   `json:"usage_rate"`
	TrueShooting float64   `json:"true_shooting"`
	AsOf         time.Time `gorm:"index" json:"as_of"`
	CreatedAt    time.Time `json:"created_at"`
}
