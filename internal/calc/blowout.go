package calc

import (
	"github.com/shopspring/decimal"
)

// BlowoutMargin is the final-score margin that counts as a blowout.
const BlowoutMargin = 20

var (
	leagueAveragePace = decimal.NewFromFloat(100.00)
	homeCourtEdge     = decimal.NewFromFloat(1.5)
	paceWeight        = decimal.NewFromFloat(0.01)

	probabilityBase   = decimal.NewFromFloat(25)
	probabilitySlope  = decimal.NewFromFloat(1.5)
	probabilityFloor  = decimal.NewFromFloat(15)
	probabilityCeil   = decimal.NewFromFloat(85)

	matchupFactorSlope = decimal.NewFromFloat(0.05)
)

// TeamStrengthDifferential estimates how far apart two teams are going
// into a game. The pace term is deliberately dampened (0.01) and the home
// edge fixed at 1.5 so the formula does not over-predict blowouts. Scale 4.
func TeamStrengthDifferential(homeNetRating, awayNetRating, homePace, awayPace decimal.Decimal) decimal.Decimal {
	avgPace := homePace.Add(awayPace).Div(decimal.NewFromInt(2))
	paceTerm := avgPace.Sub(leagueAveragePace).Mul(paceWeight)
	return homeNetRating.Sub(awayNetRating).Add(paceTerm).Add(homeCourtEdge).Round(4)
}

// WasBlowout reports whether a final score was decided by BlowoutMargin or
// more. Missing scores (game not final) are not blowouts, not errors.
func WasBlowout(homeScore, awayScore *int) bool {
	if homeScore == nil || awayScore == nil {
		return false
	}
	margin := *homeScore - *awayScore
	if margin < 0 {
		margin = -margin
	}
	return margin >= BlowoutMargin
}

// BlowoutProbability converts a strength differential into a blowout
// probability percentage, clamped to [15, 85]. Scale 4.
func BlowoutProbability(strengthDifferential decimal.Decimal) decimal.Decimal {
	p := probabilityBase.Add(strengthDifferential.Mul(probabilitySlope))
	if p.LessThan(probabilityFloor) {
		p = probabilityFloor
	}
	if p.GreaterThan(probabilityCeil) {
		p = probabilityCeil
	}
	return p.Round(4)
}

// HistoricalMatchupFactor bumps the risk for pairings with a history of
// lopsided games: 1 + (blowouts/total) * 0.05, so at most 1.05. Neutral
// (1.0) with no history. Scale 4.
func HistoricalMatchupFactor(blowoutGames, totalGames int) decimal.Decimal {
	if totalGames == 0 {
		return decimal.NewFromFloat(1.0).Round(4)
	}
	ratio := decimal.NewFromInt(int64(blowoutGames)).Div(decimal.NewFromInt(int64(totalGames)))
	return decimal.NewFromFloat(1.0).Add(ratio.Mul(matchupFactorSlope)).Round(4)
}
