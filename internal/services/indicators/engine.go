package indicators

import (
	"errors"
	"fmt"
	"math"

	"CryptoSignal/internal/domain/models"
	domsvc "CryptoSignal/internal/domain/service"
)

var (
	ErrEmptySeries     = errors.New("empty bar series")
	ErrUnorderedSeries = errors.New("bar timestamps must strictly increase")
	ErrNonFinitePrice  = errors.New("non-finite price")
	ErrNegativeVolume  = errors.New("negative volume")
)

const (
	rsiPeriod       = 14
	bollingerPeriod = 20
	bollingerK      = 2.0
	volatilityWin   = 20
)

// Engine computes the standard indicator table over a bar series.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Validate checks ordering and numeric sanity of a bar series.
func (e *Engine) Validate(bars []models.Bar) error {
	if len(bars) == 0 {
		return ErrEmptySeries
	}
	for i, b := range bars {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("bar %d: %w", i, ErrNonFinitePrice)
			}
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d: %w", i, ErrNegativeVolume)
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bar %d: %w", i, ErrUnorderedSeries)
		}
	}
	return nil
}

// Compute builds the per-bar indicator table. It does not validate.
func (e *Engine) Compute(bars []models.Bar) *models.IndicatorTable {
	closes := models.Closes(bars)
	ts := make([]int64, len(bars))
	for i, b := range bars {
		ts[i] = b.Timestamp.Unix()
	}

	ema12 := EMA(closes, 12)
	ema26 := EMA(closes, 26)
	macd := sub(ema12, ema26)
	sma20 := SMA(closes, bollingerPeriod)
	std20 := RollingStd(closes, bollingerPeriod)

	cols := map[string][]float64{
		models.IndSMA7:       SMA(closes, 7),
		models.IndSMA20:      sma20,
		models.IndSMA25:      SMA(closes, 25),
		models.IndSMA50:      SMA(closes, 50),
		models.IndEMA12:      ema12,
		models.IndEMA26:      ema26,
		models.IndMACD:       macd,
		models.IndMACDSignal: EMA(macd, 9),
		models.IndRSI14:      RSI(closes, rsiPeriod),
		models.IndBBMiddle:   sma20,
		models.IndBBUpper:    addScaled(sma20, std20, bollingerK),
		models.IndBBLower:    addScaled(sma20, std20, -bollingerK),
		models.IndVolatility: RollingStd(PctChange(closes), volatilityWin),
	}
	return &models.IndicatorTable{Timestamps: ts, Columns: cols}
}

var _ domsvc.IndicatorEngine = (*Engine)(nil)
