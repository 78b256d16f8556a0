package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSignal/internal/domain/models"
)

func barsFromCloses(closes []float64) []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c, High: c, Low: c, Close: c, Volume: 1,
		}
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputeConstantSeries(t *testing.T) {
	table := NewEngine().Compute(barsFromCloses(constant(60, 100)))
	latest := table.Latest()

	for _, name := range []string{models.IndSMA7, models.IndSMA20, models.IndSMA25, models.IndSMA50, models.IndEMA12, models.IndEMA26, models.IndBBMiddle} {
		v, ok := latest.Value(name)
		require.True(t, ok, name)
		assert.InDelta(t, 100.0, v, 1e-9, name)
	}

	upper, ok := latest.Value(models.IndBBUpper)
	require.True(t, ok)
	lower, ok := latest.Value(models.IndBBLower)
	require.True(t, ok)
	assert.InDelta(t, 0.0, upper-lower, 1e-12)

	macd, _ := latest.Value(models.IndMACD)
	assert.InDelta(t, 0.0, macd, 1e-9)

	assert.Nil(t, latest[models.IndRSI14], "flat series has no RSI")
	for i := 0; i < table.Len(); i++ {
		assert.Nil(t, table.At(models.IndRSI14, i))
	}
}

func TestComputeWindowsAreUndefinedUntilFull(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	table := NewEngine().Compute(barsFromCloses(closes))

	assert.Nil(t, table.At(models.IndSMA7, 5))
	assert.NotNil(t, table.At(models.IndSMA7, 6))
	assert.Nil(t, table.At(models.IndSMA20, 18))
	assert.NotNil(t, table.At(models.IndSMA20, 19))
	assert.Nil(t, table.At(models.IndBBUpper, 18))
	assert.Nil(t, table.At(models.IndRSI14, 13))
	assert.NotNil(t, table.At(models.IndRSI14, 14))
	assert.Nil(t, table.At(models.IndVolatility, 19))
	assert.NotNil(t, table.At(models.IndVolatility, 20))

	latest := table.Latest()
	assert.Nil(t, latest[models.IndSMA50])
	assert.NotNil(t, latest[models.IndSMA25])

	sma7, _ := latest.Value(models.IndSMA7)
	assert.InDelta(t, 126.0, sma7, 1e-9)

	rsi, ok := latest.Value(models.IndRSI14)
	require.True(t, ok)
	assert.Equal(t, 100.0, rsi, "only gains in window")
}

func TestComputeSingleBar(t *testing.T) {
	table := NewEngine().Compute(barsFromCloses([]float64{42}))
	latest := table.Latest()
	ema, ok := latest.Value(models.IndEMA12)
	require.True(t, ok)
	assert.Equal(t, 42.0, ema)
	assert.Nil(t, latest[models.IndSMA7])
	assert.Nil(t, latest[models.IndVolatility])
}

func TestEMAMatchesRecursiveDefinition(t *testing.T) {
	got := EMA([]float64{1, 2, 3}, 3)
	// alpha = 0.5
	assert.Equal(t, []float64{1, 1.5, 2.25}, got)
}

func TestRSIKnownValue(t *testing.T) {
	// Alternating +2 / -1 moves over 15 bars: 7 gains of 2 and 7 losses of 1.
	closes := []float64{100}
	for i := 0; i < 14; i++ {
		last := closes[len(closes)-1]
		if i%2 == 0 {
			closes = append(closes, last+2)
		} else {
			closes = append(closes, last-1)
		}
	}
	rsi := RSI(closes, 14)
	// avg gain 1.0, avg loss 0.5 => RS 2 => RSI 66.67
	assert.InDelta(t, 100-100.0/3, rsi[14], 1e-9)
}

func TestPctChangeMasksFirstAndZeroBase(t *testing.T) {
	got := PctChange([]float64{0, 10, 11})
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 0.1, got[2], 1e-12)
}

func TestRollingStdSample(t *testing.T) {
	got := RollingStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	// sample std of the classic example: sqrt(32/7)
	assert.InDelta(t, math.Sqrt(32.0/7.0), got[7], 1e-12)
	assert.True(t, math.IsNaN(got[6]))
}

func TestValidate(t *testing.T) {
	e := NewEngine()
	good := barsFromCloses([]float64{1, 2, 3})

	assert.NoError(t, e.Validate(good))
	assert.ErrorIs(t, e.Validate(nil), ErrEmptySeries)

	unordered := append([]models.Bar(nil), good...)
	unordered[2].Timestamp = unordered[1].Timestamp
	assert.ErrorIs(t, e.Validate(unordered), ErrUnorderedSeries)

	nan := append([]models.Bar(nil), good...)
	nan[1].Close = math.NaN()
	assert.ErrorIs(t, e.Validate(nan), ErrNonFinitePrice)

	neg := append([]models.Bar(nil), good...)
	neg[0].Volume = -1
	err := e.Validate(neg)
	assert.True(t, errors.Is(err, ErrNegativeVolume))
}

func TestComputeIsDeterministic(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i)*0.3
	}
	bars := barsFromCloses(closes)
	a := NewEngine().Compute(bars)
	b := NewEngine().Compute(bars)
	for _, name := range models.IndicatorNames {
		for i := 0; i < a.Len(); i++ {
			av, bv := a.At(name, i), b.At(name, i)
			if av == nil || bv == nil {
				assert.Equal(t, av == nil, bv == nil, name)
				continue
			}
			assert.Equal(t, math.Float64bits(*av), math.Float64bits(*bv), name)
		}
	}
}
