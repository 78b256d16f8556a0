package models

import "strings"

// QuoteAsset is the quote currency used for exchange pairs.
const QuoteAsset = "USDT"

// PopularCoins is the quick-access list served next to the full catalog.
var PopularCoins = []Coin{
	{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
	{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
	{ID: "binancecoin", Symbol: "bnb", Name: "Binance Coin"},
	{ID: "cardano", Symbol: "ada", Name: "Cardano"},
	{ID: "solana", Symbol: "sol", Name: "Solana"},
	{ID: "ripple", Symbol: "xrp", Name: "XRP"},
}

// ResolveSymbol maps a coin id ("bitcoin") or ticker ("btc", "BTCUSDT") to an exchange pair.
func ResolveSymbol(coin string) string {
	c := strings.ToLower(strings.TrimSpace(coin))
	for _, p := range PopularCoins {
		if p.ID == c || p.Symbol == c {
			return strings.ToUpper(p.Symbol) + QuoteAsset
		}
	}
	s := strings.ToUpper(c)
	if s == "" || strings.HasSuffix(s, QuoteAsset) {
		return s
	}
	return s + QuoteAsset
}

// BaseAsset strips the quote currency from an exchange pair.
func BaseAsset(symbol string) string {
	s := strings.ToUpper(symbol)
	if strings.HasSuffix(s, QuoteAsset) && len(s) > len(QuoteAsset) {
		return s[:len(s)-len(QuoteAsset)]
	}
	return s
}

// CoinID returns the catalog id for an exchange pair, falling back to the lower-case base asset.
func CoinID(symbol string) string {
	base := strings.ToLower(BaseAsset(symbol))
	for _, p := range PopularCoins {
		if p.Symbol == base {
			return p.ID
		}
	}
	return base
}
