package usecase

import (
	"context"
	"errors"
	"time"

	"CryptoSignal/internal/domain/models"
	domrepo "CryptoSignal/internal/domain/repository"
	svccache "CryptoSignal/internal/service/cache"
	svcmetrics "CryptoSignal/internal/service/metrics"
	"CryptoSignal/pkg/logger"

	"github.com/google/uuid"
)

// PredictionUseCase adds cache-aside and event notification around the orchestrator.
type PredictionUseCase struct {
	orch   *Orchestrator
	store  *svccache.Store
	events domrepo.EventPublisher
	log    *logger.Logger
}

func NewPredictionUseCase(orch *Orchestrator, store *svccache.Store, events domrepo.EventPublisher, log *logger.Logger) *PredictionUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	return &PredictionUseCase{orch: orch, store: store, events: events, log: log}
}

// RecommendationResult is the recommendation view of a single prediction.
type RecommendationResult struct {
	Symbol         string                `json:"symbol"`
	Timeframe      string                `json:"timeframe"`
	CurrentPrice   float64               `json:"current_price"`
	Recommendation models.Recommendation `json:"recommendation"`
	Fallback       bool                  `json:"fallback"`
}

// Predict returns a single-timeframe prediction for coin.
func (uc *PredictionUseCase) Predict(ctx context.Context, coin, timeframe string) (*SinglePrediction, error) {
	start := time.Now()
	defer observe("predict", start)

	symbol := models.ResolveSymbol(coin)
	key := uc.store.PredictionKey(symbol, timeframe)

	var cached SinglePrediction
	hit := uc.store.Get(ctx, key, &cached)
	svcmetrics.Lookup("prediction", hit)
	if hit {
		return &cached, nil
	}

	res, err := uc.orch.PredictOne(ctx, symbol, timeframe)
	if err != nil {
		return nil, err
	}
	uc.put(ctx, key, res, uc.store.TTLs().Prediction)
	return res, nil
}

// PredictAll returns a bundle over the named timeframes, all of them when names is empty.
// A bundle without any prediction is returned with ErrNoPredictions and is not cached.
func (uc *PredictionUseCase) PredictAll(ctx context.Context, coin string, names []string) (*models.PredictionBundle, error) {
	start := time.Now()
	defer observe("predict_all", start)

	if len(names) == 0 {
		names = domrepo.TimeframeNames()
	}
	symbol := models.ResolveSymbol(coin)
	key := uc.store.BundleKey(symbol, names)

	var cached models.PredictionBundle
	hit := uc.store.Get(ctx, key, &cached)
	svcmetrics.Lookup("bundle", hit)
	if hit {
		return &cached, nil
	}

	bundle, err := uc.orch.Predict(ctx, symbol, names...)
	if err != nil {
		return bundle, err
	}
	uc.put(ctx, key, bundle, uc.store.TTLs().Bundle)
	uc.notify(ctx, bundle)
	return bundle, nil
}

// Recommendation reduces a single prediction to its action; fallback results map onto the same shape.
func (uc *PredictionUseCase) Recommendation(ctx context.Context, coin, timeframe string) (*RecommendationResult, error) {
	symbol := models.ResolveSymbol(coin)
	key := uc.store.Key("recommendation", symbol, timeframe)

	var cached RecommendationResult
	hit := uc.store.Get(ctx, key, &cached)
	svcmetrics.Lookup("recommendation", hit)
	if hit {
		return &cached, nil
	}

	single, err := uc.Predict(ctx, coin, timeframe)
	if err != nil {
		return nil, err
	}
	out := &RecommendationResult{Symbol: symbol, Timeframe: timeframe}
	switch {
	case single.Prediction != nil:
		out.CurrentPrice = single.Prediction.CurrentPrice
		out.Recommendation = single.Prediction.Recommendation
	case single.Fallback != nil:
		out.CurrentPrice = single.Fallback.CurrentPrice
		out.Fallback = true
		out.Recommendation = models.Recommendation{
			Action:     single.Fallback.Action,
			Confidence: single.Fallback.Confidence,
			Reason:     "fallback: recent average change",
		}
	default:
		return nil, errors.New("empty prediction")
	}
	uc.put(ctx, key, out, uc.store.TTLs().Recommend)
	return out, nil
}

// Warm computes and caches bundles for coins, skipping the cache read.
func (uc *PredictionUseCase) Warm(ctx context.Context, coins []string) (ok int, err error) {
	var errs []error
	for _, coin := range coins {
		symbol := models.ResolveSymbol(coin)
		names := domrepo.TimeframeNames()
		bundle, perr := uc.orch.Predict(ctx, symbol, names...)
		if perr != nil {
			errs = append(errs, perr)
			continue
		}
		uc.put(ctx, uc.store.BundleKey(symbol, names), bundle, uc.store.TTLs().Bundle)
		uc.notify(ctx, bundle)
		ok++
	}
	return ok, errors.Join(errs...)
}

func (uc *PredictionUseCase) put(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := uc.store.Set(ctx, key, value, ttl); err != nil {
		uc.log.Warn("cache set failed", logger.String("key", key), logger.Error(err))
	}
}

func (uc *PredictionUseCase) notify(ctx context.Context, bundle *models.PredictionBundle) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishPrediction(ctx, NewPredictionEvent(bundle)); err != nil {
		uc.log.Warn("publish prediction event failed",
			logger.String("symbol", bundle.Symbol),
			logger.Error(err))
	}
}

// NewPredictionEvent summarises a bundle; timeframes follow registry order.
func NewPredictionEvent(bundle *models.PredictionBundle) *models.PredictionEvent {
	ev := &models.PredictionEvent{
		ID:          uuid.NewString(),
		Symbol:      bundle.Symbol,
		Actions:     make(map[string]string, len(bundle.Predictions)),
		Warnings:    len(bundle.Warnings),
		GeneratedAt: bundle.GeneratedAt,
	}
	for _, name := range domrepo.TimeframeNames() {
		if p, ok := bundle.Predictions[name]; ok {
			ev.Timeframes = append(ev.Timeframes, name)
			ev.Actions[name] = p.Recommendation.Action
		}
	}
	return ev
}

func observe(op string, start time.Time) {
	svcmetrics.EndpointLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
