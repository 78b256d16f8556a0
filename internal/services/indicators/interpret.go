package indicators

import "CryptoSignal/internal/domain/models"

// Interpret turns the latest indicator values into readable hints.
// Undefined indicators are skipped.
func Interpret(set models.IndicatorSet) map[string]string {
	out := map[string]string{}
	if rsi, ok := set.Value(models.IndRSI14); ok {
		switch {
		case rsi > 70:
			out["rsi"] = "Overbought - Consider selling"
		case rsi < 30:
			out["rsi"] = "Oversold - Consider buying"
		default:
			out["rsi"] = "Neutral"
		}
	}
	short, okS := set.Value(models.IndSMA7)
	long, okL := set.Value(models.IndSMA25)
	if okS && okL {
		if short > long {
			out["ma_cross"] = "Bullish - Short MA above long MA"
		} else {
			out["ma_cross"] = "Bearish - Short MA below long MA"
		}
	}
	if macd, ok := set.Value(models.IndMACD); ok {
		if macd > 0 {
			out["macd"] = "Bullish momentum"
		} else {
			out["macd"] = "Bearish momentum"
		}
	}
	return out
}
