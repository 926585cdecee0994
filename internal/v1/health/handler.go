// Package health exposes the liveness/readiness endpoints of SPEC_FULL.md
// §6.4, adapted from the teacher's internal/v1/health/handler.go. The
// teacher's gRPC/SFU readiness check has no equivalent in this domain (see
// DESIGN.md) and is dropped; a Redis ping against the persisted room log
// is substituted in its place.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adeyems/wordround/internal/v1/logging"
)

// Pinger is satisfied by *persist.Log; kept as an interface here so health
// never needs to import the persist package's concrete Redis client type.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves /healthz.
type Handler struct {
	persistLog Pinger
}

// NewHandler builds a Handler. persistLog may be nil (Redis disabled,
// single-instance mode), in which case the redis check always reports
// healthy.
func NewHandler(persistLog Pinger) *Handler {
	return &Handler{persistLog: persistLog}
}

// LivenessResponse is the liveness probe response.
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse is the readiness probe response.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness reports 200 as long as the process is running; it checks no
// dependency.
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports 200 only if every dependency check passes, 503
// otherwise.
func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"redis": h.checkRedis(ctx)}
	allHealthy := checks["redis"] == "healthy"

	status := "ready"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) checkRedis(ctx context.Context) string {
	if h.persistLog == nil {
		return "healthy"
	}
	if err := h.persistLog.Ping(ctx); err != nil {
		logging.Error(ctx, "redis health check failed", zap.Error(err))
		return "unhealthy"
	}
	return "healthy"
}
