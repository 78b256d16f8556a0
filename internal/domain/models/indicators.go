package models

import "math"

// Standard indicator names.
const (
	IndSMA7       = "sma_7"
	IndSMA20      = "sma_20"
	IndSMA25      = "sma_25"
	IndSMA50      = "sma_50"
	IndEMA12      = "ema_12"
	IndEMA26      = "ema_26"
	IndMACD       = "macd"
	IndMACDSignal = "macd_signal"
	IndRSI14      = "rsi_14"
	IndBBMiddle   = "bb_middle"
	IndBBUpper    = "bb_upper"
	IndBBLower    = "bb_lower"
	IndVolatility = "volatility"
)

// IndicatorNames lists every indicator in table column order.
var IndicatorNames = []string{
	IndSMA7, IndSMA20, IndSMA25, IndSMA50,
	IndEMA12, IndEMA26, IndMACD, IndMACDSignal,
	IndRSI14, IndBBMiddle, IndBBUpper, IndBBLower, IndVolatility,
}

// IndicatorSet maps an indicator name to its value. A nil value means
// the indicator is undefined (not enough history).
type IndicatorSet map[string]*float64

// Value returns the indicator value and whether it is defined.
func (s IndicatorSet) Value(name string) (float64, bool) {
	v, ok := s[name]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// IndicatorTable holds one column per indicator, aligned with the bar series.
// Undefined positions are NaN.
type IndicatorTable struct {
	Timestamps []int64
	Columns    map[string][]float64
}

// Len returns the number of rows.
func (t *IndicatorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Timestamps)
}

// At returns the value of an indicator at row i, nil when undefined.
func (t *IndicatorTable) At(name string, i int) *float64 {
	col, ok := t.Columns[name]
	if !ok || i < 0 || i >= len(col) {
		return nil
	}
	v := col[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Latest returns the indicator values of the last row.
func (t *IndicatorTable) Latest() IndicatorSet {
	set := make(IndicatorSet, len(IndicatorNames))
	last := t.Len() - 1
	for _, name := range IndicatorNames {
		set[name] = t.At(name, last)
	}
	return set
}
