package usecase

import (
	"context"
	"fmt"

	"CryptoSignal/internal/domain/models"
	domrepo "CryptoSignal/internal/domain/repository"
	svccache "CryptoSignal/internal/service/cache"
	svcmetrics "CryptoSignal/internal/service/metrics"
	"CryptoSignal/pkg/logger"
)

// Analysis runs over the latest daily bars.
const (
	analysisInterval = "1d"
	analysisLimit    = 100
)

// AnalysisUseCase reports the latest indicators with their interpretation.
type AnalysisUseCase struct {
	source   domrepo.BarSource
	pipeline *Pipeline
	store    *svccache.Store
	log      *logger.Logger
}

func NewAnalysisUseCase(source domrepo.BarSource, pipeline *Pipeline, store *svccache.Store, log *logger.Logger) *AnalysisUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalysisUseCase{source: source, pipeline: pipeline, store: store, log: log}
}

func (uc *AnalysisUseCase) Analyze(ctx context.Context, coin string) (*models.Analysis, error) {
	symbol := models.ResolveSymbol(coin)
	key := uc.store.Key("analysis", symbol)
	var cached models.Analysis
	hit := uc.store.Get(ctx, key, &cached)
	svcmetrics.Lookup("analysis", hit)
	if hit {
		return &cached, nil
	}

	bars, err := uc.source.Fetch(ctx, symbol, analysisInterval, analysisLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch analysis bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, ErrNoMarketData
	}
	out, err := uc.pipeline.Analyze(symbol, bars)
	if err != nil {
		return nil, err
	}
	if err := uc.store.Set(ctx, key, out, uc.store.TTLs().Analysis); err != nil {
		uc.log.Warn("cache set failed", logger.String("key", key), logger.Error(err))
	}
	return out, nil
}
