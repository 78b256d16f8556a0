package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA returns the simple moving average; the first period-1 positions are NaN.
func SMA(values []float64, period int) []float64 {
	if period < 1 || len(values) < period {
		return nanSlice(len(values))
	}
	out := talib.Sma(values, period)
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// EMA returns the recursive exponential moving average seeded with the first value.
// alpha = 2/(span+1). NaN inputs keep the previous average.
func EMA(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span < 1 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	prev := math.NaN()
	for i, v := range values {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(prev):
			prev = v
		default:
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// RollingStd returns the sample standard deviation over each full window.
// Windows touching a NaN are NaN.
func RollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 2 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		if hasNaN(window) {
			continue
		}
		out[i] = stat.StdDev(window, nil)
	}
	return out
}

// PctChange returns (v[i]-v[i-1])/v[i-1]; position 0 is NaN.
func PctChange(values []float64) []float64 {
	if len(values) < 2 {
		return nanSlice(len(values))
	}
	out := talib.Rocp(values, 1)
	out[0] = math.NaN()
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out[i] = math.NaN()
		}
	}
	return out
}

// RSI computes the relative strength index from rolling means of gains and
// losses. Flat windows (no gain, no loss) are NaN; windows with gains and no
// losses are 100.
func RSI(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 1 || len(values) <= period {
		return out
	}
	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	for i := period; i < len(values); i++ {
		var g, l float64
		for j := i - period + 1; j <= i; j++ {
			g += gains[j]
			l += losses[j]
		}
		g /= float64(period)
		l /= float64(period)
		switch {
		case l == 0 && g == 0:
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func addScaled(a, b []float64, k float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + k*b[i]
	}
	return out
}
