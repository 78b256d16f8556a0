package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CryptoSignal/internal/domain/models"
	domrepo "CryptoSignal/internal/domain/repository"
	"CryptoSignal/internal/services/analytics"
	"CryptoSignal/pkg/logger"
)

var (
	ErrNoPredictions    = errors.New("no timeframe produced a prediction")
	ErrNoMarketData     = errors.New("no market data")
	ErrUnknownTimeframe = errors.New("unknown timeframe")
)

// Prediction outcomes reported to metrics.
const (
	OutcomeOK       = "ok"
	OutcomeWarning  = "warning"
	OutcomeFallback = "fallback"
)

// SinglePrediction is either a full pipeline result or the fallback heuristic.
type SinglePrediction struct {
	Symbol     string                      `json:"symbol"`
	Prediction *models.TimeframePrediction `json:"prediction,omitempty"`
	Fallback   *models.FallbackPrediction  `json:"fallback,omitempty"`
}

// Orchestrator runs the pipeline once per registered timeframe.
type Orchestrator struct {
	source   domrepo.BarSource
	pipeline *Pipeline
	metrics  domrepo.Metrics
	log      *logger.Logger
	timeout  time.Duration
}

func NewOrchestrator(source domrepo.BarSource, pipeline *Pipeline, metrics domrepo.Metrics, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Orchestrator{source: source, pipeline: pipeline, metrics: metrics, log: log, timeout: 20 * time.Second}
}

// WithTimeout bounds how long one batch may wait on the data source.
func (o *Orchestrator) WithTimeout(d time.Duration) *Orchestrator {
	if d > 0 {
		o.timeout = d
	}
	return o
}

type tfOutcome struct {
	name string
	pred *models.TimeframePrediction
	err  error
}

// Predict builds a bundle for symbol over the named timeframes (all when none given).
// A failing timeframe becomes a warning. ErrNoPredictions is returned, together
// with the bundle carrying the warnings, only when nothing succeeded. That covers
// both no bars for any timeframe and bars that every pipeline rejected.
func (o *Orchestrator) Predict(ctx context.Context, symbol string, names ...string) (*models.PredictionBundle, error) {
	if len(names) == 0 {
		names = domrepo.TimeframeNames()
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	bundle := &models.PredictionBundle{
		Symbol:      symbol,
		Predictions: map[string]models.TimeframePrediction{},
		GeneratedAt: time.Now().UTC(),
	}

	ch := make(chan tfOutcome, len(names))
	var wg sync.WaitGroup
	var order []string
	for _, name := range names {
		tf, ok := domrepo.LookupTimeframe(name)
		if !ok {
			bundle.Warnings = append(bundle.Warnings, models.Warning{Timeframe: name, Reason: ErrUnknownTimeframe.Error()})
			continue
		}
		order = append(order, name)
		wg.Add(1)
		go func(tf models.TimeframeConfig) {
			defer wg.Done()
			pred, err := o.runTimeframe(ctx, symbol, tf)
			ch <- tfOutcome{name: tf.Name, pred: pred, err: err}
		}(tf)
	}
	go func() { wg.Wait(); close(ch) }()

	failed := map[string]error{}
	for out := range ch {
		if out.err != nil {
			failed[out.name] = out.err
			o.record(out.name, OutcomeWarning)
			continue
		}
		bundle.Predictions[out.name] = *out.pred
		o.record(out.name, OutcomeOK)
	}
	// Warnings follow registry order so repeated runs report identically.
	for _, name := range order {
		if err, ok := failed[name]; ok {
			bundle.Warnings = append(bundle.Warnings, models.Warning{Timeframe: name, Reason: err.Error()})
		}
	}

	if len(bundle.Predictions) == 0 {
		o.log.Warn("no timeframe produced a prediction",
			logger.String("symbol", symbol),
			logger.Int("warnings", len(bundle.Warnings)))
		return bundle, ErrNoPredictions
	}
	if len(bundle.Warnings) > 0 {
		o.log.Debug("bundle built with warnings",
			logger.String("symbol", symbol),
			logger.Int("predictions", len(bundle.Predictions)),
			logger.Int("warnings", len(bundle.Warnings)))
	}
	return bundle, nil
}

// PredictOne runs a single timeframe. Pipeline failures degrade to the fallback
// heuristic as long as at least one bar is available.
func (o *Orchestrator) PredictOne(ctx context.Context, symbol, name string) (*SinglePrediction, error) {
	tf, ok := domrepo.LookupTimeframe(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTimeframe, name)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	bars, err := o.fetch(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}

	pred, err := o.runPipeline(tf, bars)
	if err == nil {
		o.record(tf.Name, OutcomeOK)
		return &SinglePrediction{Symbol: symbol, Prediction: pred}, nil
	}

	o.log.Warn("pipeline failed, using fallback",
		logger.String("symbol", symbol),
		logger.String("timeframe", tf.Name),
		logger.Error(err))
	o.record(tf.Name, OutcomeFallback)
	fb := analytics.Fallback(tf.Name, models.Closes(bars))
	return &SinglePrediction{Symbol: symbol, Fallback: &fb}, nil
}

func (o *Orchestrator) runTimeframe(ctx context.Context, symbol string, tf models.TimeframeConfig) (*models.TimeframePrediction, error) {
	bars, err := o.fetch(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}
	return o.runPipeline(tf, bars)
}

func (o *Orchestrator) fetch(ctx context.Context, symbol string, tf models.TimeframeConfig) ([]models.Bar, error) {
	start := time.Now()
	bars, err := o.source.Fetch(ctx, symbol, tf.Interval, tf.Limit)
	if o.metrics != nil {
		o.metrics.RecordLatency("fetch_bars", time.Since(start).Seconds())
	}
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordError("fetch_bars")
		}
		o.log.Warn("fetch bars failed",
			logger.String("symbol", symbol),
			logger.String("timeframe", tf.Name),
			logger.String("source", o.source.Name()),
			logger.Error(err))
		return nil, fmt.Errorf("fetch %s bars: %w", tf.Interval, err)
	}
	if len(bars) == 0 {
		return nil, ErrNoMarketData
	}
	if o.metrics != nil {
		o.metrics.RecordLastPrice(symbol, bars[len(bars)-1].Close)
	}
	return bars, nil
}

// runPipeline converts a pipeline panic into an error so one timeframe cannot take the batch down.
func (o *Orchestrator) runPipeline(tf models.TimeframeConfig, bars []models.Bar) (pred *models.TimeframePrediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			pred, err = nil, fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	start := time.Now()
	pred, err = o.pipeline.Run(tf, bars)
	if o.metrics != nil {
		o.metrics.RecordLatency("pipeline", time.Since(start).Seconds())
	}
	return pred, err
}

func (o *Orchestrator) record(tf, outcome string) {
	if o.metrics != nil {
		o.metrics.RecordPrediction(tf, outcome)
	}
}
