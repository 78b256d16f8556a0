package models

// Requests for prediction HTTP endpoints. Defined in domain for consistency and reuse.

type CoinRequest struct {
	Coin string `param:"coin" json:"coin" validate:"required,max=32"`
}

type HistoricalRequest struct {
	Coin string `param:"coin" json:"coin" validate:"required,max=32"`
	Days int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=1000"`
}

type PredictRequest struct {
	Coin      string `param:"coin" json:"coin" validate:"required,max=32"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"daily" validate:"oneof=1m 5m 10m 30m 1h daily monthly yearly"`
}

type PredictAllRequest struct {
	Coin       string `param:"coin" json:"coin" validate:"required,max=32"`
	Timeframes string `query:"timeframes" json:"timeframes"`
}

type StreamRequest struct {
	Coin       string `param:"coin" json:"coin" validate:"required,max=32"`
	Interval   int    `query:"interval" json:"interval" default:"30" validate:"gte=5,lte=3600"`
	Timeframes string `query:"timeframes" json:"timeframes"`
}

type RecommendationRequest struct {
	Coin      string `param:"coin" json:"coin" validate:"required,max=32"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1h" validate:"oneof=1m 5m 10m 30m 1h daily monthly yearly"`
}
