package usecase

import (
	"context"
	"fmt"
	"time"

	"CryptoSignal/internal/domain/models"
	domrepo "CryptoSignal/internal/domain/repository"
	svccache "CryptoSignal/internal/service/cache"
	svcmetrics "CryptoSignal/internal/service/metrics"
	"CryptoSignal/pkg/logger"
)

const maxHistoricalDays = 1000

// MarketUseCase serves reference data: coin list, spot price and daily history.
type MarketUseCase struct {
	catalog domrepo.MarketCatalog
	quotes  domrepo.PriceSource
	source  domrepo.BarSource
	store   *svccache.Store
	log     *logger.Logger
	now     func() time.Time
}

func NewMarketUseCase(catalog domrepo.MarketCatalog, quotes domrepo.PriceSource, source domrepo.BarSource, store *svccache.Store, log *logger.Logger) *MarketUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	return &MarketUseCase{catalog: catalog, quotes: quotes, source: source, store: store, log: log, now: time.Now}
}

type CoinList struct {
	Popular []models.Coin `json:"popular"`
	All     []models.Coin `json:"all"`
}

type HistoricalResult struct {
	Coin   string       `json:"coin_id"`
	Symbol string       `json:"symbol"`
	Days   int          `json:"days"`
	Count  int          `json:"count"`
	Bars   []models.Bar `json:"data"`
}

// Coins returns the popular list plus the catalog. A catalog failure leaves All empty.
func (uc *MarketUseCase) Coins(ctx context.Context) (*CoinList, error) {
	key := uc.store.StaticKey("supported_coins")
	var cached CoinList
	hit := uc.store.Get(ctx, key, &cached)
	svcmetrics.Lookup("coins", hit)
	if hit {
		return &cached, nil
	}

	out := &CoinList{Popular: models.PopularCoins, All: []models.Coin{}}
	if uc.catalog == nil {
		return out, nil
	}
	all, err := uc.catalog.ListCoins(ctx)
	if err != nil {
		uc.log.Warn("list coins failed", logger.Error(err))
		return out, nil
	}
	out.All = all
	uc.put(ctx, key, out, uc.store.TTLs().Coins)
	return out, nil
}

// Price quotes coin from the exchange first and the catalog second.
func (uc *MarketUseCase) Price(ctx context.Context, coin string) (*models.PriceQuote, error) {
	symbol := models.ResolveSymbol(coin)
	key := uc.store.StaticKey("price", symbol)
	var cached models.PriceQuote
	hit := uc.store.Get(ctx, key, &cached)
	svcmetrics.Lookup("price", hit)
	if hit {
		return &cached, nil
	}

	var lastErr error
	for _, src := range []domrepo.PriceSource{uc.quotes, uc.catalog} {
		if src == nil {
			continue
		}
		price, err := src.CurrentPrice(ctx, symbol)
		if err != nil {
			lastErr = err
			uc.log.Warn("price source failed", logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		q := &models.PriceQuote{Coin: coin, Symbol: symbol, Price: price, Timestamp: uc.now().UTC()}
		uc.put(ctx, key, q, uc.store.TTLs().Price)
		return q, nil
	}
	if lastErr == nil {
		lastErr = ErrNoMarketData
	}
	return nil, fmt.Errorf("price %s: %w", symbol, lastErr)
}

// Historical returns up to days daily bars for coin.
func (uc *MarketUseCase) Historical(ctx context.Context, coin string, days int) (*HistoricalResult, error) {
	if days <= 0 {
		days = 30
	}
	if days > maxHistoricalDays {
		days = maxHistoricalDays
	}
	symbol := models.ResolveSymbol(coin)
	key := uc.store.StaticKey("historical", symbol, days)
	var cached HistoricalResult
	hit := uc.store.Get(ctx, key, &cached)
	svcmetrics.Lookup("historical", hit)
	if hit {
		return &cached, nil
	}

	bars, err := uc.source.Fetch(ctx, symbol, "1d", days)
	if err != nil {
		return nil, fmt.Errorf("historical %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, ErrNoMarketData
	}
	out := &HistoricalResult{Coin: coin, Symbol: symbol, Days: days, Count: len(bars), Bars: bars}
	uc.put(ctx, key, out, uc.store.TTLs().Historical)
	return out, nil
}

func (uc *MarketUseCase) put(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := uc.store.Set(ctx, key, value, ttl); err != nil {
		uc.log.Warn("cache set failed", logger.String("key", key), logger.Error(err))
	}
}
