package usecase

import (
	"errors"
	"fmt"
	"time"

	"CryptoSignal/internal/domain/models"
	domsvc "CryptoSignal/internal/domain/service"
	"CryptoSignal/internal/services/analytics"
	"CryptoSignal/internal/services/indicators"
)

// MinPipelineBars is the smallest series every scored model can handle.
const MinPipelineBars = 10

var ErrTooFewBars = errors.New("too few bars")

// Pipeline runs indicators, the three models and the scorer over one bar series.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	engine   domsvc.IndicatorEngine
	trend    domsvc.TrendModel
	momentum domsvc.MomentumAnalyzer
	forecast domsvc.Forecaster
	scorer   domsvc.Scorer
	now      func() time.Time
}

func NewPipeline(engine domsvc.IndicatorEngine, trend domsvc.TrendModel, momentum domsvc.MomentumAnalyzer, forecast domsvc.Forecaster, scorer domsvc.Scorer) *Pipeline {
	return &Pipeline{
		engine:   engine,
		trend:    trend,
		momentum: momentum,
		forecast: forecast,
		scorer:   scorer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewDefaultPipeline wires the built-in models.
func NewDefaultPipeline() *Pipeline {
	return NewPipeline(
		indicators.NewEngine(),
		analytics.NewLinearTrend(),
		analytics.NewMomentum(),
		analytics.NewARIMA(),
		analytics.NewRuleScorer(),
	)
}

// Run produces a complete prediction or an error; never a partial one.
func (p *Pipeline) Run(tf models.TimeframeConfig, bars []models.Bar) (*models.TimeframePrediction, error) {
	if err := p.engine.Validate(bars); err != nil {
		return nil, fmt.Errorf("invalid series: %w", err)
	}
	if len(bars) < MinPipelineBars {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrTooFewBars, MinPipelineBars, len(bars))
	}

	table := p.engine.Compute(bars)
	closes := models.Closes(bars)

	trend := p.trend.Fit(closes, tf.Horizon)
	momentum := p.momentum.Analyze(closes)
	forecast := p.forecast.Forecast(closes, tf.Horizon)

	return &models.TimeframePrediction{
		Timeframe:      tf.Name,
		CurrentPrice:   closes[len(closes)-1],
		Trend:          trend,
		Momentum:       momentum,
		Forecast:       forecast,
		Recommendation: p.scorer.Score(trend, momentum),
		Indicators:     table.Latest(),
		GeneratedAt:    p.now(),
	}, nil
}

// Analyze returns the latest indicators and their interpretation for a series.
func (p *Pipeline) Analyze(symbol string, bars []models.Bar) (*models.Analysis, error) {
	if err := p.engine.Validate(bars); err != nil {
		return nil, fmt.Errorf("invalid series: %w", err)
	}
	latest := p.engine.Compute(bars).Latest()
	return &models.Analysis{
		Symbol:         symbol,
		CurrentPrice:   bars[len(bars)-1].Close,
		Indicators:     latest,
		Interpretation: indicators.Interpret(latest),
		GeneratedAt:    p.now(),
	}, nil
}
