package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Probe checks one backing service.
type Probe func(ctx context.Context) error

// HealthHandler reports connectivity of the database and the cache.
type HealthHandler struct {
	database Probe
	cache    Probe
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(database, cache Probe) *HealthHandler {
	return &HealthHandler{database: database, cache: cache}
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Check godoc
// @Summary Health check
// @Description Only a database failure makes the service unavailable; a cache outage is reported as degraded.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "connected", Cache: "connected"}
	status := http.StatusOK

	if h.cache(ctx) != nil {
		resp.Cache = "error"
		resp.Status = "degraded"
	}
	if h.database(ctx) != nil {
		resp.Database = "error"
		resp.Status = "error"
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, resp)
}
