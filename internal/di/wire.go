//go:build wireinject
// +build wireinject

package di

import (
	"CryptoSignal/internal/usecase"
	"CryptoSignal/pkg/config"
	"CryptoSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideRedisCache,
		ProvideCacheBackend,
		ProvideStore,
		ProvideLimiter,
		ProvideBarStore,
		ProvideKafkaProducer,

		// Market data
		ProvideBinance,
		ProvideCoinGecko,
		ProvideBarSource,
		ProvideCatalog,
		ProvidePriceSource,
		ProvideEventPublisher,

		// Use cases
		ProvidePipeline,
		ProvideOrchestrator,
		ProvidePredictionUseCase,
		ProvideMarketUseCase,
		ProvideAnalysisUseCase,
		ProvideWarmQueue,
		ProvideWarmup,

		// Transport and lifecycle
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializePredictions wires only what the one-shot CLI needs.
func InitializePredictions(cfg *config.Config) (*usecase.PredictionUseCase, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideRedisCache,
		ProvideCacheBackend,
		ProvideStore,
		ProvideLimiter,
		ProvideBarStore,
		ProvideKafkaProducer,
		ProvideBinance,
		ProvideCoinGecko,
		ProvideBarSource,
		ProvideEventPublisher,
		ProvidePipeline,
		ProvideOrchestrator,
		ProvidePredictionUseCase,
	)
	return nil, nil
}
