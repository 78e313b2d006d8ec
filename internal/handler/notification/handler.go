package notification

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/major-app/notify-engine/internal/handler"
	"github.com/major-app/notify-engine/internal/model"
	"github.com/major-app/notify-engine/internal/service/notification"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("", h.Add)
		notifications.POST("/read-all", h.MarkAllAsRead)
		notifications.POST("/:id/read", h.MarkAsRead)
		notifications.DELETE("/:id", h.Remove)
		notifications.DELETE("", h.ClearAll)
	}
}

type addNotificationRequest struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Timestamp  *time.Time     `json:"timestamp"`
	IsRead     bool           `json:"isRead"`
	Link       string         `json:"link"`
	Meta       map[string]any `json:"meta"`
	ExternalID string         `json:"externalId"`
	Priority   string         `json:"priority" binding:"omitempty,oneof=normal high"`
	Icon       string         `json:"icon"`
}

// List returns the ordered notification list, newest-arrival first.
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"notifications": h.service.List(),
		"unreadCount":   h.service.UnreadCount(),
	}))
}

func (h *Handler) UnreadCount(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"unreadCount": h.service.UnreadCount(),
	}))
}

// Add injects a synthetic/manual notification. An unknown type falls back
// to general; a duplicate externalId is a silent no-op.
func (h *Handler) Add(c *gin.Context) {
	var req addNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	draft := model.Draft{
		ID:         req.ID,
		Type:       req.Type,
		Title:      req.Title,
		Message:    req.Message,
		IsRead:     req.IsRead,
		Link:       req.Link,
		Meta:       req.Meta,
		ExternalID: req.ExternalID,
		Priority:   req.Priority,
		Icon:       req.Icon,
	}
	if req.Timestamp != nil {
		draft.Timestamp = *req.Timestamp
	}

	created := h.service.Add(c.Request.Context(), draft)
	if created == nil {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deduplicated": true}))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	h.service.MarkAsRead(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"unreadCount": h.service.UnreadCount(),
	}))
}

func (h *Handler) MarkAllAsRead(c *gin.Context) {
	h.service.MarkAllAsRead(c.Request.Context())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"unreadCount": h.service.UnreadCount(),
	}))
}

func (h *Handler) Remove(c *gin.Context) {
	h.service.Remove(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ClearAll(c *gin.Context) {
	h.service.ClearAll(c.Request.Context())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
