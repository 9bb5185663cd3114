package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

// Ping calls the wrapped function
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler serves liveness and dependency checks
type HealthHandler struct {
	BaseHandler
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a new HealthHandler. Either dependency may be nil.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok"}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status["database"] = "unreachable"
			healthy = false
		} else {
			status["database"] = "ok"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			status["redis"] = "unreachable"
			healthy = false
		} else {
			status["redis"] = "ok"
		}
	}

	if !healthy {
		status["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
