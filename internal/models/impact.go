package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Impact values are plain immutable records. Derived overall scores live in
// pure functions (OverallScore) rather than being baked in at construction,
// so a record round-tripped through the cache stays consistent with its
// components.

// RestImpact describes how a player's rest situation affects expected
// production for one upcoming game.
type RestImpact struct {
	DaysOfRest   int             `json:"days_of_rest"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	ImpactScore  decimal.Decimal `json:"impact_score"`
	GameDate     time.Time       `json:"game_date"`
	IsBackToBack bool            `json:"is_back_to_back"`
}

// BlowoutImpact bundles the retention factors describing how a lopsided
// final score eats into a player's production.
type BlowoutImpact struct {
	MinutesRetention     decimal.Decimal `json:"minutes_retention"`
	PerformanceRetention decimal.Decimal `json:"performance_retention"`
	BaseRisk             decimal.Decimal `json:"base_risk"`
}

// GameContext bundles the matchup-level adjustment factors for one
// player/game/category.
type GameContext struct {
	MatchupImpact   decimal.Decimal `json:"matchup_impact"`
	DefensiveImpact decimal.Decimal `json:"defensive_impact"`
	PaceImpact      decimal.Decimal `json:"pace_impact"`
	VenueImpact     decimal.Decimal `json:"venue_impact"`
	Category        StatCategory    `json:"category"`
}

// Context component weights. Uniform across categories today; keyed by
// category so per-category tuning stays a data change.
var contextWeights = map[StatCategory]map[string]decimal.Decimal{
	CategoryPoints:   {"MATCHUP": decimal.NewFromFloat(0.40), "DEFENSE": decimal.NewFromFloat(0.35), "PACE": decimal.NewFromFloat(0.15), "VENUE": decimal.NewFromFloat(0.10)},
	CategoryAssists:  {"MATCHUP": decimal.NewFromFloat(0.40), "DEFENSE": decimal.NewFromFloat(0.35), "PACE": decimal.NewFromFloat(0.15), "VENUE": decimal.NewFromFloat(0.10)},
	CategoryRebounds: {"MATCHUP": decimal.NewFromFloat(0.40), "DEFENSE": decimal.NewFromFloat(0.35), "PACE": decimal.NewFromFloat(0.15), "VENUE": decimal.NewFromFloat(0.10)},
}

// ContextWeights returns the component weights for a category. The weights
// for any one category sum to exactly 1.00.
func ContextWeights(category StatCategory) map[string]decimal.Decimal {
	w := contextWeights[category]
	out := make(map[string]decimal.Decimal, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// OverallScore computes the weighted context score from the stored
// components, scale 4.
func (gc GameContext) OverallScore() decimal.Decimal {
	w := contextWeights[gc.Category]
	score := gc.MatchupImpact.Mul(w["MATCHUP"]).
		Add(gc.DefensiveImpact.Mul(w["DEFENSE"])).
		Add(gc.PaceImpact.Mul(w["PACE"])).
		Add(gc.VenueImpact.Mul(w["VENUE"]))
	return score.Round(4)
}

// AdvancedImpact bundles advanced-metric components for one
// player/category, with the caller-supplied component weights retained so
// the overall score is reproducible from the record alone.
type AdvancedImpact struct {
	PIEImpact        decimal.Decimal            `json:"pie_impact"`
	UsageRateImpact  decimal.Decimal            `json:"usage_rate_impact"`
	EfficiencyImpact decimal.Decimal            `json:"efficiency_impact"`
	Category         StatCategory               `json:"category"`
	ComponentWeights map[string]decimal.Decimal `json:"component_weights"`
}

// OverallScore computes the weighted advanced-metrics score from the
// stored components and weights, scale 4. Weights must carry the
// PIE/USAGE/EFFICIENCY keys.
func (ai AdvancedImpact) OverallScore() decimal.Decimal {
	score := ai.PIEImpact.Mul(ai.ComponentWeights["PIE"]).
		Add(ai.UsageRateImpact.Mul(ai.ComponentWeights["USAGE"])).
		Add(ai.EfficiencyImpact.Mul(ai.ComponentWeights["EFFICIENCY"]))
	return score.Round(4)
}
