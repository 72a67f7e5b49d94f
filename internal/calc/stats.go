package calc

import (
	"github.com/shopspring/decimal"

	"github.com/hoopsight/prop-engine/internal/models"
)

// Average is the mean of the category's stat across games, scale 2,
// HALF_UP. Empty history averages to 0.00.
func Average(games []models.PlayerGameStats, category models.StatCategory) decimal.Decimal {
	if len(games) == 0 {
		return decimal.Zero.Round(2)
	}
	total := 0
	for _, g := range games {
		total += category.StatValue(g)
	}
	return decimal.NewFromInt(int64(total)).
		Div(decimal.NewFromInt(int64(len(games)))).
		Round(2)
}

// HitRate is the percentage of games where the category's stat met or
// exceeded the threshold, scale 2, HALF_UP. Empty history rates 0.00.
func HitRate(games []models.PlayerGameStats, category models.StatCategory, threshold int) decimal.Decimal {
	if len(games) == 0 {
		return decimal.Zero.Round(2)
	}
	hits := 0
	for _, g := range games {
		if category.StatValue(g) >= threshold {
			hits++
		}
	}
	return decimal.NewFromInt(int64(hits * 100)).
		Div(decimal.NewFromInt(int64(len(games)))).
		Round(2)
}
