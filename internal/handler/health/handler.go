package health

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports backend health; nil checks are skipped (memory persister).
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	storage   Pinger
	transport Pinger
}

func NewHandler(storage, transport Pinger) *Handler {
	return &Handler{
		storage:   storage,
		transport: transport,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx := c.Request.Context()

	if h.storage != nil {
		if err := h.storage.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "DOWN",
				"reason": "storage connection failed",
			})
			return
		}
	}
	if h.transport != nil {
		if err := h.transport.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "DOWN",
				"reason": "event stream connection failed",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
