package analytics

import (
	"fmt"
	"math"

	"CryptoSignal/internal/domain/models"
	domsvc "CryptoSignal/internal/domain/service"
)

const insufficientReason = "insufficient data"

var (
	trendScores = map[string]int{
		models.TrendBullish: 2,
		models.TrendBearish: -2,
	}
	momentumScores = map[string]int{
		models.ActionStrongBuy:  3,
		models.ActionBuy:        1,
		models.ActionSell:       -1,
		models.ActionStrongSell: -3,
	}
)

// RuleScorer fuses trend and momentum with a fixed integer score.
// The forecast is reported alongside but never scored.
type RuleScorer struct{}

func NewRuleScorer() *RuleScorer { return &RuleScorer{} }

func (s *RuleScorer) Score(trend models.TrendResult, momentum models.MomentumResult) models.Recommendation {
	if trend.Error != nil || momentum.Error != nil {
		return models.Recommendation{Action: models.ActionHold, Confidence: 0, Reason: insufficientReason}
	}

	score := trendScores[trend.Trend] + momentumScores[momentum.Signal]
	abs := math.Abs(float64(score))

	var action string
	var confidence float64
	switch {
	case score >= 3:
		action, confidence = models.ActionStrongBuy, math.Min(0.9, 0.6+abs*0.1)
	case score >= 1:
		action, confidence = models.ActionBuy, 0.6
	case score <= -3:
		action, confidence = models.ActionStrongSell, math.Min(0.9, 0.6+abs*0.1)
	case score <= -1:
		action, confidence = models.ActionSell, 0.6
	default:
		action, confidence = models.ActionHold, 0.5
	}

	return models.Recommendation{
		Action:     action,
		Confidence: clamp01(confidence),
		Reason:     fmt.Sprintf("Trend: %s, Momentum: %s", trend.Trend, momentum.Signal),
		Score:      score,
	}
}

var _ domsvc.Scorer = (*RuleScorer)(nil)
