package api

import (
	"errors"
	"net/http"

	models "CryptoSignal/internal/domain/models"
	domrepo "CryptoSignal/internal/domain/repository"
	"CryptoSignal/internal/usecase"
	xhttp "CryptoSignal/pkg/http"
	xlogger "CryptoSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	serviceName    = "crypto-signal-api"
	serviceVersion = "1.0.0"
)

// SignalsEchoHandler serves market data, predictions and analysis under /api.
type SignalsEchoHandler struct {
	logger      *xlogger.Logger
	predictions *usecase.PredictionUseCase
	market      *usecase.MarketUseCase
	analysis    *usecase.AnalysisUseCase
}

func NewSignalsEchoHandler(logger *xlogger.Logger, predictions *usecase.PredictionUseCase, market *usecase.MarketUseCase, analysis *usecase.AnalysisUseCase) *SignalsEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &SignalsEchoHandler{logger: logger, predictions: predictions, market: market, analysis: analysis}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/coins", h.Coins)
	g.GET("/price/:coin", h.Price)
	g.GET("/historical/:coin", h.Historical)
	g.GET("/predict/:coin", h.Predict)
	g.GET("/predict/:coin/all", h.PredictAll)
	g.GET("/analyze/:coin", h.Analyze)
	g.GET("/recommendation/:coin", h.Recommendation)
}

func (h *SignalsEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (h *SignalsEchoHandler) Coins(c echo.Context) error {
	res, err := h.market.Coins(c.Request().Context())
	if err != nil {
		return h.fail(c, "coins", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Price(c echo.Context) error {
	req := &models.CoinRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.market.Price(c.Request().Context(), req.Coin)
	if err != nil {
		return h.fail(c, "price", xhttp.NotFoundError("failed to fetch price data").WithError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Historical(c echo.Context) error {
	req := &models.HistoricalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.market.Historical(c.Request().Context(), req.Coin, req.Days)
	if errors.Is(err, usecase.ErrNoMarketData) {
		return h.fail(c, "historical", xhttp.NotFoundError("failed to fetch historical data").WithError(err))
	}
	if err != nil {
		return h.fail(c, "historical", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.predictions.Predict(c.Request().Context(), req.Coin, req.Timeframe)
	if err != nil {
		return h.fail(c, "predict", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) PredictAll(c echo.Context) error {
	req := &models.PredictAllRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	names := domrepo.ParseTimeframeList(req.Timeframes)
	res, err := h.predictions.PredictAll(c.Request().Context(), req.Coin, names)
	if err != nil {
		if errors.Is(err, usecase.ErrNoPredictions) && res != nil {
			return xhttp.DataResponse(c, http.StatusUnprocessableEntity, res)
		}
		return h.fail(c, "predict_all", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Analyze(c echo.Context) error {
	req := &models.CoinRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.analysis.Analyze(c.Request().Context(), req.Coin)
	if errors.Is(err, usecase.ErrNoMarketData) {
		return h.fail(c, "analyze", xhttp.NotFoundError("failed to fetch data").WithError(err))
	}
	if err != nil {
		return h.fail(c, "analyze", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Recommendation(c echo.Context) error {
	req := &models.RecommendationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.predictions.Recommendation(c.Request().Context(), req.Coin, req.Timeframe)
	if err != nil {
		return h.fail(c, "recommendation", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := MapError(err)
	fields := []xlogger.Field{
		xlogger.String("endpoint", endpoint),
		xlogger.String("path", c.Request().URL.Path),
		xlogger.Error(err),
	}
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request failed", fields...)
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// MapError translates use-case errors into transport errors.
func MapError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrUnknownTimeframe):
		return xhttp.BadRequestError("unknown timeframe").WithError(err)
	case errors.Is(err, usecase.ErrNoMarketData):
		return xhttp.NotFoundError("unable to generate prediction").WithError(err)
	case errors.Is(err, usecase.ErrNoPredictions):
		return xhttp.UnprocessableError("unable to generate prediction").WithError(err)
	case errors.Is(err, models.ErrInsufficientData), errors.Is(err, usecase.ErrTooFewBars):
		return xhttp.UnprocessableError("insufficient data").WithError(err)
	default:
		return xhttp.BadGatewayError("market data provider failed").WithError(err)
	}
}
