package indicators

import (
	"testing"

	"CryptoSignal/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func TestInterpret(t *testing.T) {
	set := models.IndicatorSet{
		models.IndRSI14: f(75),
		models.IndSMA7:  f(10),
		models.IndSMA25: f(12),
		models.IndMACD:  f(0.5),
	}
	got := Interpret(set)
	if got["rsi"] != "Overbought - Consider selling" {
		t.Fatalf("unexpected rsi hint %q", got["rsi"])
	}
	if got["ma_cross"] != "Bearish - Short MA below long MA" {
		t.Fatalf("unexpected ma hint %q", got["ma_cross"])
	}
	if got["macd"] != "Bullish momentum" {
		t.Fatalf("unexpected macd hint %q", got["macd"])
	}
}

func TestInterpretSkipsUndefined(t *testing.T) {
	got := Interpret(models.IndicatorSet{models.IndRSI14: nil, models.IndSMA7: f(1)})
	if len(got) != 0 {
		t.Fatalf("expected no hints, got %v", got)
	}
}
