package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hoopsight/prop-engine/internal/models"
)

func TestPaceFactor(t *testing.T) {
	tests := []struct {
		name     string
		team     float64
		opponent float64
		expected string
	}{
		{"league average", 100, 100, "1"},
		{"fast matchup", 104, 100, "1.02"},
		{"slow matchup", 96, 96, "0.96"},
		{"mixed", 102, 98, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PaceFactor(decimal.NewFromFloat(tt.team), decimal.NewFromFloat(tt.opponent))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %v", got)
		})
	}
}

func TestVenueFactor(t *testing.T) {
	game := models.Game{HomeTeamID: 7, AwayTeamID: 12}

	assert.True(t, VenueFactor(game, 7).Equal(decimal.NewFromFloat(1.02)))
	assert.True(t, VenueFactor(game, 12).Equal(decimal.NewFromFloat(0.98)))
}

func TestDefensiveImpact(t *testing.T) {
	// League-average defense is neutral.
	avg := DefensiveImpact(decimal.NewFromFloat(110.0), models.CategoryPoints)
	assert.True(t, avg.Equal(decimal.NewFromFloat(1.00)))

	// Weak defense boosts, strong defense suppresses.
	weak := DefensiveImpact(decimal.NewFromFloat(118.0), models.CategoryPoints)
	assert.True(t, weak.GreaterThan(decimal.NewFromFloat(1.0)))

	strong := DefensiveImpact(decimal.NewFromFloat(104.0), models.CategoryRebounds)
	assert.True(t, strong.LessThan(decimal.NewFromFloat(1.0)))

	// Rounded to two places.
	assert.True(t, DefensiveImpact(decimal.NewFromFloat(112.0), models.CategoryAssists).Equal(decimal.NewFromFloat(0.98)))
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{1.5, "100"},
		{-0.25, "0"},
		{0, "0"},
		{1, "100"},
		{0.735, "73.5"},
		{0.4267, "42.67"},
	}

	for _, tt := range tests {
		got := NormalizeScore(decimal.NewFromFloat(tt.input))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
			"normalize %v: expected %s, got %v", tt.input, tt.expected, got)
	}
}
