package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestWasBlowout(t *testing.T) {
	tests := []struct {
		name      string
		homeScore *int
		awayScore *int
		expected  bool
	}{
		{"exact margin", intPtr(120), intPtr(100), true},
		{"over margin", intPtr(135), intPtr(98), true},
		{"under margin", intPtr(110), intPtr(101), false},
		{"tied game", intPtr(100), intPtr(100), false},
		{"missing home score", nil, intPtr(100), false},
		{"missing away score", intPtr(100), nil, false},
		{"both missing", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WasBlowout(tt.homeScore, tt.awayScore))
		})
	}
}

// Blowout detection depends only on the absolute margin, so swapping home
// and away never changes the answer.
func TestWasBlowoutSymmetric(t *testing.T) {
	scores := []struct{ a, b int }{
		{120, 100}, {100, 120}, {95, 130}, {101, 100}, {88, 88},
	}
	for _, s := range scores {
		assert.Equal(t, WasBlowout(intPtr(s.a), intPtr(s.b)), WasBlowout(intPtr(s.b), intPtr(s.a)),
			"swap of %d/%d changed the result", s.a, s.b)
	}
}

func TestBlowoutProbabilityBounds(t *testing.T) {
	for _, d := range []float64{-50, -10, -6.67, 0, 1.5, 10, 21.5, 40, 500} {
		p := BlowoutProbability(decimal.NewFromFloat(d))
		assert.True(t, p.GreaterThanOrEqual(decimal.NewFromInt(15)), "differential %v below floor: %v", d, p)
		assert.True(t, p.LessThanOrEqual(decimal.NewFromInt(85)), "differential %v above ceiling: %v", d, p)
	}
}

func TestBlowoutProbabilityMonotonic(t *testing.T) {
	prev := BlowoutProbability(decimal.NewFromFloat(-100))
	for d := -99.0; d <= 100; d += 0.5 {
		p := BlowoutProbability(decimal.NewFromFloat(d))
		assert.True(t, p.GreaterThanOrEqual(prev), "probability decreased at differential %v", d)
		prev = p
	}
}

func TestBlowoutProbabilityValues(t *testing.T) {
	tests := []struct {
		differential float64
		expected     string
	}{
		{0, "25"},
		{10, "40"},
		{40, "85"},   // clamped
		{-20, "15"},  // clamped
		{1.5, "27.25"},
	}
	for _, tt := range tests {
		p := BlowoutProbability(decimal.NewFromFloat(tt.differential))
		assert.True(t, p.Equal(decimal.RequireFromString(tt.expected)),
			"differential %v: expected %s, got %v", tt.differential, tt.expected, p)
	}
}

func TestTeamStrengthDifferential(t *testing.T) {
	// Identical teams leave only the home-court constant.
	even := TeamStrengthDifferential(
		decimal.NewFromInt(100), decimal.NewFromInt(100),
		decimal.NewFromInt(100), decimal.NewFromInt(100),
	)
	assert.Equal(t, "1.5", even.String())

	// Strong, fast home team against a weak slow visitor.
	lopsided := TeamStrengthDifferential(
		decimal.NewFromInt(115), decimal.NewFromInt(95),
		decimal.NewFromInt(102), decimal.NewFromInt(98),
	)
	assert.Equal(t, "21.5", lopsided.String())

	p := BlowoutProbability(lopsided)
	assert.True(t, p.GreaterThan(decimal.NewFromInt(55)))
	assert.True(t, p.LessThanOrEqual(decimal.NewFromInt(85)))
}

func TestHistoricalMatchupFactor(t *testing.T) {
	one := decimal.NewFromFloat(1.0)

	// No history is neutral, regardless of the blowout count.
	assert.True(t, HistoricalMatchupFactor(0, 0).Equal(one))
	assert.True(t, HistoricalMatchupFactor(7, 0).Equal(one))

	// No blowouts in history is neutral too.
	assert.True(t, HistoricalMatchupFactor(0, 12).Equal(one))

	// Every game a blowout caps the factor at 1.05.
	for _, n := range []int{1, 4, 25} {
		assert.True(t, HistoricalMatchupFactor(n, n).Equal(decimal.NewFromFloat(1.05)),
			"all-blowout history of %d games", n)
	}

	// Partial history lands in between.
	half := HistoricalMatchupFactor(5, 10)
	assert.True(t, half.Equal(decimal.NewFromFloat(1.025)))
}
