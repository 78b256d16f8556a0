package repository

import (
	"context"

	"CryptoSignal/internal/domain/models"
)

// BarSource returns bars ordered by time. An empty slice with nil error means no data.
type BarSource interface {
	Name() string
	Fetch(ctx context.Context, symbol, interval string, limit int) ([]models.Bar, error)
}

// MarketCatalog provides reference data for the boundary.
type MarketCatalog interface {
	ListCoins(ctx context.Context) ([]models.Coin, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// BarStore persists raw bars so they can be served back as a BarSource.
type BarStore interface {
	BarSource
	Init(ctx context.Context) error
	StoreBars(ctx context.Context, symbol, interval string, bars []models.Bar) error
	Health(ctx context.Context) error
	Close() error
}

type EventPublisher interface {
	PublishPrediction(ctx context.Context, ev *models.PredictionEvent) error
	Close() error
}

type Metrics interface {
	RecordPrediction(timeframe, outcome string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

// PriceSource quotes the latest traded price for an exchange pair.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}
