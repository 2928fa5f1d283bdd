package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// SystemHandler serves liveness and build information
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	checks    map[string]HealthCheck
}

// NewSystemHandler creates a SystemHandler running checks on every /health call
func NewSystemHandler(checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{startTime: time.Now(), checks: checks}
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Success   bool              `json:"success"`
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
}

// Health godoc
// @Summary      Liveness and dependency checks
// @Description  Any failing check answers 503
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /fulfillment/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Success:   true,
		Status:    "ok",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			logger.L(ctx).Warn("health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ok" {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "service degraded")
		return
	}
	c.JSON(http.StatusOK, resp)
}
