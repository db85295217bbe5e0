package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/service/metrics"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"
)

// ForecastHandler serves regime-conditional forecasts.
type ForecastHandler struct {
	logger  *xlogger.Logger
	uc      *usecase.ForecastUseCase
	rl      *ratelimit.Limiter
	timeout time.Duration
}

func NewForecastHandler(logger *xlogger.Logger, uc *usecase.ForecastUseCase, rl *ratelimit.Limiter, timeout time.Duration) *ForecastHandler {
	metrics.Register()
	return &ForecastHandler{logger: logger, uc: uc, rl: rl, timeout: timeout}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/forecast", h.Forecast)
	g.GET("/forecast", h.ForecastSymbol)
}

// Forecast handles POST /api/forecast with an inline price series.
func (h *ForecastHandler) Forecast(c echo.Context) error {
	const endpoint = "forecast"
	defer metrics.ObserveSince(endpoint, time.Now())
	if !h.allow(c, endpoint) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "400").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := h.context(c)
	defer cancel()
	res, err := h.uc.RunRequest(ctx, req)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// ForecastSymbol handles GET /api/forecast?symbol=&n=&tf= using stored prices.
func (h *ForecastHandler) ForecastSymbol(c echo.Context) error {
	const endpoint = "forecast_symbol"
	defer metrics.ObserveSince(endpoint, time.Now())
	if !h.allow(c, endpoint) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	q := &models.ForecastQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, q); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "400").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx, cancel := h.context(c)
	defer cancel()
	res, err := h.uc.RunForSymbol(ctx, q)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastHandler) allow(c echo.Context, endpoint string) bool {
	if h.rl == nil || h.rl.Allow(c.RealIP()+":"+endpoint) {
		return true
	}
	metrics.RateLimited.WithLabelValues(endpoint).Inc()
	h.logger.Warn("rate limited", xlogger.String("endpoint", endpoint), xlogger.String("remote", c.RealIP()))
	return false
}

func (h *ForecastHandler) context(c echo.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.Request().Context(), h.timeout)
	}
	return context.WithCancel(c.Request().Context())
}

func (h *ForecastHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.EndpointErrors.WithLabelValues(endpoint, statusLabel(appErr.Status)).Inc()
	if appErr.Status >= 500 {
		h.logger.Error("forecast usecase error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
