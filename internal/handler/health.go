package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	"github.com/Payphone-Digital/learnpath/pkg/circuit"
	"github.com/Payphone-Digital/learnpath/pkg/database"
	"github.com/Payphone-Digital/learnpath/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RedisProbe is the part of the Redis client the readiness check needs.
type RedisProbe interface {
	Ping(ctx context.Context) error
	Breaker() *circuit.Breaker
}

type HealthHandler struct {
	db    *gorm.DB
	redis RedisProbe
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Breaker *circuit.Snapshot `json:"breaker,omitempty"`
}

// NewHealthHandler takes a nil redis when Redis is disabled.
func NewHealthHandler(db *gorm.DB, redis RedisProbe) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// BasicHealth returns a simple health check (for load balancers)
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   constants.AppVersion,
		"timestamp": time.Now().UTC(),
	})
}

// Ready reports 503 when the database is unreachable. Redis is optional
// and never fails readiness.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthCheckResponse{
		Status:    "healthy",
		Version:   constants.AppVersion,
		Timestamp: time.Now().UTC(),
		Checks: map[string]HealthCheck{
			"database": h.checkDatabase(ctx),
			"redis":    h.checkRedis(ctx),
		},
	}

	statusCode := http.StatusOK
	if response.Checks["database"].Status != "healthy" {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	logger.DebugWithContext(ctx, "Readiness check performed").
		String("overall_status", response.Status).
		StatusCode(statusCode).
		Log()

	c.JSON(statusCode, response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	if h.db == nil {
		return HealthCheck{Status: "unhealthy", Message: "Database connection not initialized"}
	}
	if err := database.Ping(ctx, h.db); err != nil {
		logger.ErrorWithContext(ctx, "Database ping failed").Err(err).Log()
		return HealthCheck{Status: "unhealthy", Message: "Database ping failed"}
	}
	return HealthCheck{Status: "healthy"}
}

func (h *HealthHandler) checkRedis(ctx context.Context) HealthCheck {
	if h.redis == nil {
		return HealthCheck{Status: "disabled", Message: "Redis is disabled, rate limits are kept in process"}
	}

	snapshot := h.redis.Breaker().Snapshot()
	if err := h.redis.Ping(ctx); err != nil {
		logger.WarnWithContext(ctx, "Redis ping failed").Err(err).Log()
		return HealthCheck{Status: "degraded", Message: "Redis ping failed", Breaker: &snapshot}
	}
	return HealthCheck{Status: "healthy", Breaker: &snapshot}
}
