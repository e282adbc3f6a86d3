package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/quienpaga/quienpaga-backend/logger"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	pool    *pgxpool.Pool
	redis   *redis.Client
	version string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client, version string) *HealthHandler {
	return &HealthHandler{pool: pool, redis: redisClient, version: version}
}

// LivenessCheck handles GET /health/liveness. Always OK while the process
// is serving.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}

// ReadinessCheck handles GET /health/readiness. Fails when the database is
// unreachable; Redis being down only degrades the response.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	log := logger.GetLogger()
	ctx := c.Request.Context()

	status := http.StatusOK
	components := gin.H{}

	dbStart := time.Now()
	if err := h.pool.Ping(ctx); err != nil {
		log.Errorw("Database readiness check failed", "error", err)
		components["database"] = gin.H{"status": "down", "error": "unreachable"}
		status = http.StatusServiceUnavailable
	} else {
		components["database"] = gin.H{"status": "up", "latency_ms": time.Since(dbStart).Milliseconds()}
	}

	if h.redis != nil {
		redisStart := time.Now()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			log.Warnw("Redis readiness check failed", "error", err)
			components["redis"] = gin.H{"status": "down", "error": "unreachable"}
		} else {
			components["redis"] = gin.H{"status": "up", "latency_ms": time.Since(redisStart).Milliseconds()}
		}
	}

	c.JSON(status, gin.H{
		"status":     statusText(status),
		"version":    h.version,
		"components": components,
	})
}

// DetailedHealth handles GET /health.
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	h.ReadinessCheck(c)
}

func statusText(status int) string {
	if status == http.StatusOK {
		return "up"
	}
	return "degraded"
}
