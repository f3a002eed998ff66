package api

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"SetupScanner/internal/domain/models"
	"SetupScanner/internal/stream"
	"SetupScanner/internal/usecase"
	xhttp "SetupScanner/pkg/http"
	xlogger "SetupScanner/pkg/logger"
	"SetupScanner/pkg/util"
)

type scanner interface {
	Scan(ctx context.Context, req models.ScanRequest) (*models.ScanResult, error)
	QuickScore(p models.PatternRecord) models.OddsScoreResult
}

type feed interface {
	Track(ctx context.Context, symbol, interval string) error
	Untrack(symbol string) bool
	Status(symbol string) models.ConnectionState
	Statuses() []models.StreamStatus
}

// ScanEchoHandler serves scans, quick odds scores and stream subscriptions.
type ScanEchoHandler struct {
	logger  *xlogger.Logger
	scanner scanner
	feed    feed
}

func NewScanEchoHandler(logger *xlogger.Logger, scanner *usecase.Scanner, feed *usecase.LiveFeed) *ScanEchoHandler {
	return &ScanEchoHandler{logger: logger, scanner: scanner, feed: feed}
}

func (h *ScanEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/scan", h.Scan)
	g.POST("/odds/quick", h.QuickScore)
	g.GET("/streams", h.ListStreams)
	g.GET("/streams/:symbol", h.StreamStatus)
	g.POST("/streams/:symbol", h.Subscribe)
	g.DELETE("/streams/:symbol", h.Unsubscribe)
}

func (h *ScanEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.scanner.Scan(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("scan usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, scanError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScanEchoHandler) QuickScore(c echo.Context) error {
	req := &models.PatternRecord{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.scanner.QuickScore(*req))
}

func (h *ScanEchoHandler) ListStreams(c echo.Context) error {
	rows := h.feed.Statuses()
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ScanEchoHandler) StreamStatus(c echo.Context) error {
	symbol := util.NormalizeSymbol(c.Param("symbol"))
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": symbol,
		"state":  h.feed.Status(symbol),
	})
}

// Subscribe tracks the symbol on the optional interval query parameter.
func (h *ScanEchoHandler) Subscribe(c echo.Context) error {
	symbol := util.NormalizeSymbol(c.Param("symbol"))
	interval := c.QueryParam("interval")

	if err := h.feed.Track(c.Request().Context(), symbol, interval); err != nil {
		h.logger.Warn("subscribe failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, streamError(err))
	}
	return xhttp.CreatedResponse(c, map[string]interface{}{
		"symbol": symbol,
		"state":  h.feed.Status(symbol),
	})
}

func (h *ScanEchoHandler) Unsubscribe(c echo.Context) error {
	symbol := util.NormalizeSymbol(c.Param("symbol"))
	if !h.feed.Untrack(symbol) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("symbol is not tracked").WithParam("symbol", symbol))
	}
	return xhttp.NoContentResponse(c)
}

func scanError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrCandleFetch):
		return xhttp.BadGatewayError("candle history unavailable").WithError(err)
	}
	return xhttp.InternalError("scan failed").WithError(err)
}

func streamError(err error) error {
	switch {
	case errors.Is(err, stream.ErrInvalidSymbol), errors.Is(err, stream.ErrInvalidInterval):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, stream.ErrManagerClosed):
		return xhttp.ServiceUnavailableError(err.Error()).WithError(err)
	}
	return xhttp.InternalError("subscribe failed").WithError(err)
}
