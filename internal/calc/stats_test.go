package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hoopsight/prop-engine/internal/models"
)

func gamesWithPoints(points ...int) []models.PlayerGameStats {
	games := make([]models.PlayerGameStats, len(points))
	for i, p := range points {
		games[i] = models.PlayerGameStats{Points: p, Assists: p / 3, Rebounds: p / 2}
	}
	return games
}

func TestAverage(t *testing.T) {
	assert.True(t, Average(nil, models.CategoryPoints).Equal(decimal.Zero))
	assert.True(t, Average([]models.PlayerGameStats{}, models.CategoryAssists).Equal(decimal.Zero))

	games := gamesWithPoints(20, 25, 30)
	assert.True(t, Average(games, models.CategoryPoints).Equal(decimal.NewFromInt(25)))

	// Rounds half up at two places: (21+22+22)/3 = 21.666... -> 21.67.
	uneven := gamesWithPoints(21, 22, 22)
	assert.True(t, Average(uneven, models.CategoryPoints).Equal(decimal.NewFromFloat(21.67)))

	// Category selection reads the right column.
	mixed := []models.PlayerGameStats{
		{Points: 30, Assists: 11, Rebounds: 4},
		{Points: 18, Assists: 7, Rebounds: 6},
	}
	assert.True(t, Average(mixed, models.CategoryAssists).Equal(decimal.NewFromInt(9)))
	assert.True(t, Average(mixed, models.CategoryRebounds).Equal(decimal.NewFromInt(5)))
}

func TestHitRate(t *testing.T) {
	assert.True(t, HitRate(nil, models.CategoryPoints, 20).Equal(decimal.Zero))

	games := gamesWithPoints(18, 22, 25, 31)

	// Threshold met in 3 of 4 games.
	assert.True(t, HitRate(games, models.CategoryPoints, 20).Equal(decimal.NewFromInt(75)))

	// Threshold is inclusive.
	assert.True(t, HitRate(games, models.CategoryPoints, 18).Equal(decimal.NewFromInt(100)))

	// Nobody clears an absurd threshold.
	assert.True(t, HitRate(games, models.CategoryPoints, 80).Equal(decimal.Zero))

	// Repeating-decimal rate rounds half up: 2/3 -> 66.67.
	third := gamesWithPoints(25, 25, 10)
	assert.True(t, HitRate(third, models.CategoryPoints, 20).Equal(decimal.NewFromFloat(66.67)))
}

func TestHitRateBounded(t *testing.T) {
	games := gamesWithPoints(5, 12, 19, 26, 33, 40)
	for threshold := 0; threshold <= 50; threshold += 5 {
		rate := HitRate(games, models.CategoryPoints, threshold)
		assert.True(t, rate.GreaterThanOrEqual(decimal.Zero))
		assert.True(t, rate.LessThanOrEqual(decimal.NewFromInt(100)))
	}
}

func TestStatValuePanicsOnUnknownCategory(t *testing.T) {
	assert.Panics(t, func() {
		models.StatCategory("STEALS").StatValue(models.PlayerGameStats{})
	})
}
