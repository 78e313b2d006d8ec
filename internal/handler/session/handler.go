package session

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/major-app/notify-engine/internal/handler"
	"github.com/major-app/notify-engine/internal/model"
	"github.com/major-app/notify-engine/internal/service/stats"
	"github.com/major-app/notify-engine/internal/service/suppression"
	"github.com/major-app/notify-engine/internal/session"
	apperrors "github.com/major-app/notify-engine/pkg/errors"
)

var validate = validator.New()

type Handler struct {
	binder   *session.Binder
	tracker  *suppression.Tracker
	detector *stats.Detector
}

func NewHandler(binder *session.Binder, tracker *suppression.Tracker, detector *stats.Detector) *Handler {
	return &Handler{
		binder:   binder,
		tracker:  tracker,
		detector: detector,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sess := r.Group("/session")
	{
		sess.POST("", h.Bind)
		sess.DELETE("", h.Unbind)
		sess.PUT("/location", h.SetLocation)
		sess.POST("/stats", h.ObserveStats)
	}
}

type bindRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

type locationRequest struct {
	Location string `json:"location"`
}

// Bind attaches the event stream to the given user. A previous bind is torn
// down completely before the new one is established.
func (h *Handler) Bind(c *gin.Context) {
	var req bindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	handle, err := h.binder.Bind(c.Request.Context(), req.UserID, req.Token)
	if err != nil {
		c.Error(apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"userId": handle.UserID(),
	}))
}

// Unbind is idempotent; unbinding an already-unbound session succeeds.
func (h *Handler) Unbind(c *gin.Context) {
	h.binder.Unbind(h.binder.Current())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// SetLocation records the current UI location for the suppression policy.
func (h *Handler) SetLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	h.tracker.Set(req.Location)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// ObserveStats feeds one stats snapshot to the delta detector. Malformed
// payloads are rejected; missing stat fields are simply absent.
func (h *Handler) ObserveStats(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read body"))
		return
	}

	snapshot, err := model.DecodeStatsSnapshot(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	h.detector.Observe(c.Request.Context(), snapshot)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
