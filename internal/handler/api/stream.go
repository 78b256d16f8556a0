package api

import (
	"context"
	"net/http"
	"time"

	models "CryptoSignal/internal/domain/models"
	domrepo "CryptoSignal/internal/domain/repository"
	"CryptoSignal/internal/service/ratelimit"
	xhttp "CryptoSignal/pkg/http"
	xlogger "CryptoSignal/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeWait = 10 * time.Second

type bundleSource interface {
	PredictAll(ctx context.Context, coin string, names []string) (*models.PredictionBundle, error)
}

// StreamMessage is one websocket frame pushed to the client.
type StreamMessage struct {
	Type   string                   `json:"type"`
	Data   *models.PredictionBundle `json:"data,omitempty"`
	Error  string                   `json:"error,omitempty"`
	SentAt time.Time                `json:"sent_at"`
}

// StreamHandler pushes a fresh bundle for one coin every interval until the client leaves.
type StreamHandler struct {
	logger   *xlogger.Logger
	bundles  bundleSource
	limiter  *ratelimit.Limiter
	upgrader websocket.Upgrader
}

func NewStreamHandler(logger *xlogger.Logger, bundles bundleSource, limiter *ratelimit.Limiter) *StreamHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &StreamHandler{
		logger:  logger,
		bundles: bundles,
		limiter: limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/ws/predict/:coin", h.Stream)
}

func (h *StreamHandler) Stream(c echo.Context) error {
	req := &models.StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()+":stream") {
		h.logger.Warn("stream rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", http.StatusTooManyRequests))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Reads only detect the client going away; inbound frames are ignored.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	names := domrepo.ParseTimeframeList(req.Timeframes)
	interval := time.Duration(req.Interval) * time.Second
	h.logger.Info("stream opened",
		xlogger.String("coin", req.Coin),
		xlogger.Duration("interval_ms", interval),
		xlogger.String("remote", c.RealIP()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := h.push(ctx, conn, req.Coin, names); err != nil {
			h.logger.Debug("stream closed", xlogger.String("coin", req.Coin), xlogger.Error(err))
			return nil
		}
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		case <-ticker.C:
		}
	}
}

func (h *StreamHandler) push(ctx context.Context, conn *websocket.Conn, coin string, names []string) error {
	bundle, err := h.bundles.PredictAll(ctx, coin, names)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	msg := StreamMessage{Type: "bundle", Data: bundle, SentAt: time.Now().UTC()}
	if err != nil {
		msg.Type = "error"
		msg.Error = MapError(err).Message
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
