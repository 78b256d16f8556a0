package analytics

import (
	"math"
	"time"

	"CryptoSignal/internal/domain/models"
	"CryptoSignal/internal/services/indicators"
)

const (
	fallbackReturns   = 5
	fallbackThreshold = 0.01
)

// Fallback is the last-resort heuristic: extrapolate the mean of the last
// few percent changes. It never panics.
func Fallback(timeframe string, prices []float64) (out models.FallbackPrediction) {
	out = models.FallbackPrediction{
		Timeframe:   timeframe,
		Action:      models.ActionHold,
		Confidence:  0.5,
		Fallback:    true,
		GeneratedAt: time.Now().UTC(),
	}
	defer func() {
		if recover() != nil {
			out.PredictedPrice = out.CurrentPrice
			out.PriceChangePercent = 0
			out.Action = models.ActionHold
			out.Confidence = 0.5
		}
	}()

	if len(prices) == 0 {
		return out
	}
	current := prices[len(prices)-1]
	if math.IsNaN(current) || math.IsInf(current, 0) {
		return out
	}
	out.CurrentPrice = current
	out.PredictedPrice = current

	changes := indicators.PctChange(prices)
	if len(changes) > fallbackReturns {
		changes = changes[len(changes)-fallbackReturns:]
	}
	var sum float64
	var n int
	for _, c := range changes {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		sum += c
		n++
	}
	if n == 0 {
		return out
	}
	mean := sum / float64(n)

	out.PredictedPrice = current * (1 + mean)
	out.PriceChangePercent = mean * 100
	switch {
	case mean > fallbackThreshold:
		out.Action, out.Confidence = models.ActionBuy, 0.6
	case mean < -fallbackThreshold:
		out.Action, out.Confidence = models.ActionSell, 0.6
	}
	return out
}
