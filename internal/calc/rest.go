package calc

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hoopsight/prop-engine/internal/models"
)

// DefaultDaysOfRest is returned when rest cannot be derived (missing or
// inverted dates). Policy decision: assume normal rest instead of failing,
// so one bad schedule row never blocks a score. Documented in DESIGN.md.
const DefaultDaysOfRest = 1

var (
	backToBackMultiplier = decimal.NewFromFloat(0.90)
	baselineMultiplier   = decimal.NewFromFloat(1.00)
	twoDayMultiplier     = decimal.NewFromFloat(1.02)
	extendedMultiplier   = decimal.NewFromFloat(1.05)

	neutralImpact = decimal.NewFromFloat(1.00)
)

// DaysOfRest returns full off-days between a player's previous game and
// the upcoming one: games on consecutive calendar days are a back-to-back
// (0). Zero-value dates or an inverted order fall back to
// DefaultDaysOfRest.
func DaysOfRest(previousGameDate, currentGameDate time.Time) int {
	if previousGameDate.IsZero() || currentGameDate.IsZero() {
		return DefaultDaysOfRest
	}
	prev := truncateToDate(previousGameDate)
	cur := truncateToDate(currentGameDate)
	if cur.Before(prev) {
		return DefaultDaysOfRest
	}
	diff := int(cur.Sub(prev).Hours() / 24)
	if diff == 0 {
		return 0
	}
	return diff - 1
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RestMultiplier maps days of rest onto a production multiplier. Back-to-
// backs are penalized, extended rest rewarded, with a hard ceiling at
// three-plus days. Negative input gets the baseline.
func RestMultiplier(daysOfRest int) decimal.Decimal {
	switch {
	case daysOfRest < 0:
		return baselineMultiplier
	case daysOfRest == 0:
		return backToBackMultiplier
	case daysOfRest == 1:
		return baselineMultiplier
	case daysOfRest == 2:
		return twoDayMultiplier
	default:
		return extendedMultiplier
	}
}

// RestImpactScore scales the player's recent form by the rest multiplier.
// Form is the ratio of the latest games' composite production to the full
// window's, so a steady player on normal rest lands at 1.0000. Neutral
// (1.00) when there is no history. Scale 4, HALF_UP.
func RestImpactScore(recentGames []models.PlayerGameStats, daysOfRest int) decimal.Decimal {
	if len(recentGames) == 0 {
		return neutralImpact
	}

	windowAvg := compositeAverage(recentGames)
	if windowAvg.IsZero() {
		return neutralImpact
	}

	// Latest half of the window, at least one game. Games arrive most
	// recent first.
	recentSpan := (len(recentGames) + 1) / 2
	recentAvg := compositeAverage(recentGames[:recentSpan])

	form := recentAvg.Div(windowAvg)
	return form.Mul(RestMultiplier(daysOfRest)).Round(4)
}

// NewRestImpact composes days of rest, multiplier, and impact score into
// one immutable result for the upcoming game.
func NewRestImpact(previousGameDate, currentGameDate time.Time, recentGames []models.PlayerGameStats) models.RestImpact {
	days := DaysOfRest(previousGameDate, currentGameDate)
	return models.RestImpact{
		DaysOfRest:   days,
		Multiplier:   RestMultiplier(days),
		ImpactScore:  RestImpactScore(recentGames, days),
		GameDate:     currentGameDate,
		IsBackToBack: days == 0,
	}
}

// CategoryRestImpact is NewRestImpact with form measured on one stat
// category instead of the composite line, for category-scoped rest
// pattern views.
func CategoryRestImpact(previousGameDate, currentGameDate time.Time, recentGames []models.PlayerGameStats, category models.StatCategory) models.RestImpact {
	days := DaysOfRest(previousGameDate, currentGameDate)
	return models.RestImpact{
		DaysOfRest:   days,
		Multiplier:   RestMultiplier(days),
		ImpactScore:  categoryImpactScore(recentGames, days, category),
		GameDate:     currentGameDate,
		IsBackToBack: days == 0,
	}
}

func categoryImpactScore(recentGames []models.PlayerGameStats, daysOfRest int, category models.StatCategory) decimal.Decimal {
	if len(recentGames) == 0 {
		return neutralImpact
	}
	windowAvg := Average(recentGames, category)
	if windowAvg.IsZero() {
		return neutralImpact
	}
	recentSpan := (len(recentGames) + 1) / 2
	form := Average(recentGames[:recentSpan], category).Div(windowAvg)
	return form.Mul(RestMultiplier(daysOfRest)).Round(4)
}

// compositeAverage is the mean DraftKings-style composite line over games:
// points plus weighted rebounds and assists.
func compositeAverage(games []models.PlayerGameStats) decimal.Decimal {
	if len(games) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, g := range games {
		composite := decimal.NewFromInt(int64(g.Points)).
			Add(decimal.NewFromInt(int64(g.Rebounds)).Mul(decimal.NewFromFloat(1.25))).
			Add(decimal.NewFromInt(int64(g.Assists)).Mul(decimal.NewFromFloat(1.5)))
		total = total.Add(composite)
	}
	return total.Div(decimal.NewFromInt(int64(len(games))))
}
