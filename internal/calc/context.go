package calc

import (
	"github.com/shopspring/decimal"

	"github.com/hoopsight/prop-engine/internal/models"
)

var (
	leagueAverageDefRating = decimal.NewFromFloat(110.0)

	homeVenueFactor = decimal.NewFromFloat(1.02)
	awayVenueFactor = decimal.NewFromFloat(0.98)

	normalizeCeil = decimal.NewFromFloat(100)
)

// PaceFactor is the expected game pace relative to league average (100).
// Callers are responsible for having resolved both paces; the calculators
// do not guard missing team stats.
func PaceFactor(teamPace, opponentPace decimal.Decimal) decimal.Decimal {
	avgPace := teamPace.Add(opponentPace).Div(decimal.NewFromInt(2))
	return avgPace.Div(leagueAveragePace).Round(2)
}

// VenueFactor gives the player's team a small home bump or road haircut.
func VenueFactor(game models.Game, playerTeamID uint) decimal.Decimal {
	if game.HomeTeamID == playerTeamID {
		return homeVenueFactor
	}
	return awayVenueFactor
}

// DefensiveImpact is league-average defensive rating over the opponent's:
// above 1.0 against weak defenses, below against strong ones. The category
// parameter is reserved for per-category defensive weighting and does not
// yet enter the formula. Scale 2.
func DefensiveImpact(opponentDefRating decimal.Decimal, category models.StatCategory) decimal.Decimal {
	return leagueAverageDefRating.Div(opponentDefRating).Round(2)
}

// NormalizeScore maps a 0..1 raw score onto the 0..100 scale, clamped.
// Scale 2.
func NormalizeScore(rawScore decimal.Decimal) decimal.Decimal {
	scaled := rawScore.Mul(decimal.NewFromInt(100))
	if scaled.IsNegative() {
		return decimal.Zero.Round(2)
	}
	if scaled.GreaterThan(normalizeCeil) {
		return normalizeCeil.Round(2)
	}
	return scaled.Round(2)
}
