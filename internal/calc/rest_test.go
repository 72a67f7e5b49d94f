package calc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hoopsight/prop-engine/internal/models"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 19, 0, 0, 0, time.UTC)
}

func TestDaysOfRest(t *testing.T) {
	tests := []struct {
		name     string
		previous time.Time
		current  time.Time
		expected int
	}{
		{"back to back", day(10), day(11), 0},
		{"same day", day(10), day(10), 0},
		{"one off-day", day(10), day(12), 1},
		{"two off-days", day(10), day(13), 2},
		{"long layoff", day(10), day(18), 7},
		{"missing previous", time.Time{}, day(10), DefaultDaysOfRest},
		{"missing current", day(10), time.Time{}, DefaultDaysOfRest},
		{"inverted order", day(12), day(10), DefaultDaysOfRest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysOfRest(tt.previous, tt.current))
		})
	}
}

func TestRestMultiplierFixedPoints(t *testing.T) {
	assert.True(t, RestMultiplier(0).Equal(decimal.NewFromFloat(0.90)))
	assert.True(t, RestMultiplier(1).Equal(decimal.NewFromFloat(1.00)))
	assert.True(t, RestMultiplier(2).Equal(decimal.NewFromFloat(1.02)))

	// Constant above the knee.
	for _, days := range []int{3, 4, 7, 30} {
		assert.True(t, RestMultiplier(days).Equal(decimal.NewFromFloat(1.05)),
			"%d days of rest", days)
	}

	// Garbage input falls back to baseline.
	assert.True(t, RestMultiplier(-1).Equal(decimal.NewFromFloat(1.00)))
	assert.True(t, RestMultiplier(-100).Equal(decimal.NewFromFloat(1.00)))
}

func steadyGames(n, points int) []models.PlayerGameStats {
	games := make([]models.PlayerGameStats, n)
	for i := range games {
		games[i] = models.PlayerGameStats{Points: points, Rebounds: 5, Assists: 4, GameDate: day(20 - i)}
	}
	return games
}

func TestRestImpactScore(t *testing.T) {
	// Empty history is neutral.
	assert.True(t, RestImpactScore(nil, 2).Equal(decimal.NewFromFloat(1.00)))
	assert.True(t, RestImpactScore([]models.PlayerGameStats{}, 2).Equal(decimal.NewFromFloat(1.00)))

	// A steady player on one day's rest sits exactly at baseline.
	score := RestImpactScore(steadyGames(10, 25), 1)
	assert.True(t, score.Equal(decimal.NewFromFloat(1.0000)), "got %v", score)

	// Same player on a back-to-back picks up the 0.90 penalty.
	b2b := RestImpactScore(steadyGames(10, 25), 0)
	assert.True(t, b2b.Equal(decimal.NewFromFloat(0.9000)), "got %v", b2b)

	// Scoreless history is neutral rather than dividing by zero.
	empty := make([]models.PlayerGameStats, 4)
	assert.True(t, RestImpactScore(empty, 3).Equal(decimal.NewFromFloat(1.00)))
}

func TestNewRestImpact(t *testing.T) {
	games := steadyGames(8, 20)

	impact := NewRestImpact(day(10), day(10), games)
	assert.Equal(t, 0, impact.DaysOfRest)
	assert.True(t, impact.IsBackToBack)
	assert.True(t, impact.Multiplier.Equal(decimal.NewFromFloat(0.90)))
	assert.Equal(t, day(10), impact.GameDate)

	rested := NewRestImpact(day(10), day(14), games)
	assert.Equal(t, 3, rested.DaysOfRest)
	assert.False(t, rested.IsBackToBack)
	assert.True(t, rested.Multiplier.Equal(decimal.NewFromFloat(1.05)))
	assert.True(t, rested.ImpactScore.GreaterThan(decimal.Zero))
}
