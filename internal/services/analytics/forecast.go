package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"CryptoSignal/internal/domain/models"
	domsvc "CryptoSignal/internal/domain/service"
)

const (
	arOrder           = 5
	forecastMinPoints = 20
	minVariance       = 1e-12
	forecastMethod    = "ARIMA(5,1,0)"
)

// ARIMA fits an ARIMA(p,1,0) model: an AR(p) without intercept on first
// differences, estimated by conditional least squares.
type ARIMA struct {
	order int
}

func NewARIMA() *ARIMA { return &ARIMA{order: arOrder} }

// Forecast never panics; numerical problems come back as a fit-failure marker.
func (f *ARIMA) Forecast(prices []float64, horizon int) (res models.ForecastResult) {
	defer func() {
		if r := recover(); r != nil {
			res = models.ForecastResult{Error: models.FitFailure(fmt.Sprintf("forecast failed: %v", r))}
		}
	}()

	if len(prices) < forecastMinPoints {
		return models.ForecastResult{Error: models.InsufficientData(
			fmt.Sprintf("forecast needs at least %d points, got %d", forecastMinPoints, len(prices)))}
	}
	if !allFinite(prices) {
		return models.ForecastResult{Error: models.FitFailure("non-finite price in series")}
	}
	if horizon < 1 {
		horizon = 1
	}

	p := f.order
	diffs := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		diffs[i-1] = prices[i] - prices[i-1]
	}
	rows := len(diffs) - p
	if rows <= p {
		return models.ForecastResult{Error: models.InsufficientData("not enough differences for the AR order")}
	}

	// Row t regresses diffs[t+p] on diffs[t+p-1] ... diffs[t].
	design := mat.NewDense(rows, p, nil)
	target := mat.NewVecDense(rows, nil)
	for t := 0; t < rows; t++ {
		for k := 0; k < p; k++ {
			design.Set(t, k, diffs[t+p-1-k])
		}
		target.SetVec(t, diffs[t+p])
	}

	var phi mat.VecDense
	if err := phi.SolveVec(design, target); err != nil {
		return models.ForecastResult{Error: models.FitFailure(fmt.Sprintf("ar solve: %v", err))}
	}

	var fitted mat.VecDense
	fitted.MulVec(design, &phi)
	var sse float64
	for t := 0; t < rows; t++ {
		e := target.AtVec(t) - fitted.AtVec(t)
		sse += e * e
	}
	sigma2 := math.Max(sse/float64(rows), minVariance)
	m := float64(rows)
	aic := m*(math.Log(2*math.Pi*sigma2)+1) + 2*float64(p+1)

	history := append([]float64(nil), diffs...)
	level := prices[len(prices)-1]
	preds := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		var next float64
		for k := 0; k < p; k++ {
			next += phi.AtVec(k) * history[len(history)-1-k]
		}
		history = append(history, next)
		level += next
		if math.IsNaN(level) || math.IsInf(level, 0) {
			return models.ForecastResult{Error: models.FitFailure("forecast diverged")}
		}
		preds[h] = level
	}

	return models.ForecastResult{Predictions: preds, Method: forecastMethod, AIC: aic}
}

var _ domsvc.Forecaster = (*ARIMA)(nil)
