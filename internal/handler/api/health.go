package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	xhttp "SignalDesk/pkg/http"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves GET /health.
type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{checks: map[string]HealthCheck{}}
}

// AddCheck registers a dependency probe under name.
func (h *HealthHandler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return xhttp.DataResponse(c, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
