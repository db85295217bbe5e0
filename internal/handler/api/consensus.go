package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/service/metrics"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"
)

// ConsensusHandler serves the consensus endpoints.
type ConsensusHandler struct {
	logger *xlogger.Logger
	uc     *usecase.ConsensusUseCase
}

func NewConsensusHandler(logger *xlogger.Logger, uc *usecase.ConsensusUseCase) *ConsensusHandler {
	metrics.Register()
	return &ConsensusHandler{logger: logger, uc: uc}
}

func (h *ConsensusHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/consensus")
	g.POST("", h.Decide)
	g.POST("/collect", h.Collect)
}

// Decide handles POST /api/consensus with an explicit signal batch.
func (h *ConsensusHandler) Decide(c echo.Context) error {
	const endpoint = "consensus"
	defer metrics.ObserveSince(endpoint, time.Now())

	req := &models.ConsensusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "400").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Decide(c.Request().Context(), req.Symbol, req.Signals)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Collect handles POST /api/consensus/collect by polling the configured
// remote sources for symbol.
func (h *ConsensusHandler) Collect(c echo.Context) error {
	const endpoint = "consensus_collect"
	defer metrics.ObserveSince(endpoint, time.Now())

	req := &models.CollectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "400").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Collect(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ConsensusHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.EndpointErrors.WithLabelValues(endpoint, statusLabel(appErr.Status)).Inc()
	if appErr.Status >= 500 {
		h.logger.Error("consensus usecase error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func statusLabel(code int) string { return strconv.Itoa(code) }
