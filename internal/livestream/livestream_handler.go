package livestream

import (
	"errors"
	"net/http"

	"bounce-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service LivestreamService
}

func NewHandler(service LivestreamService) *Handler {
	return &Handler{service: service}
}

type StartStreamRequest struct {
	PostID string `json:"post_id"`
}

// Start godoc
// @Summary  Start a livestream and get a room id
// @Tags     livestreams
// @Accept   json
// @Produce  json
// @Param    request body StartStreamRequest false "optional attached post"
// @Success  201 {object} StreamResponse
// @Security BearerAuth
// @Router   /livestreams [post]
func (h *Handler) Start(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	// Body is optional.
	var req StartStreamRequest
	_ = c.ShouldBindJSON(&req)

	resp, err := h.service.Start(c.Request.Context(), userID, req.PostID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Stop godoc
// @Summary  Stop an own livestream
// @Tags     livestreams
// @Produce  json
// @Param    room_id path string true "room id"
// @Success  200 {object} map[string]string
// @Security BearerAuth
// @Router   /livestreams/{room_id} [delete]
func (h *Handler) Stop(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	roomID := c.Param("room_id")

	switch err := h.service.Stop(c.Request.Context(), userID, roomID); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ended"})
	case errors.Is(err, ErrStreamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "livestream not found"})
	case errors.Is(err, ErrNotStreamer):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the stream owner"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Get godoc
// @Summary  Get a livestream by room id
// @Tags     livestreams
// @Produce  json
// @Param    room_id path string true "room id"
// @Success  200 {object} StreamResponse
// @Security BearerAuth
// @Router   /livestreams/{room_id} [get]
func (h *Handler) Get(c *gin.Context) {
	resp, err := h.service.Get(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		if errors.Is(err, ErrStreamNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "livestream not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListActive godoc
// @Summary  Livestreams that are currently live
// @Tags     livestreams
// @Produce  json
// @Success  200 {array} StreamResponse
// @Security BearerAuth
// @Router   /livestreams [get]
func (h *Handler) ListActive(c *gin.Context) {
	streams, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, streams)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	streams := r.Group("/livestreams")
	{
		streams.POST("", h.Start)
		streams.GET("", h.ListActive)
		streams.GET("/:room_id", h.Get)
		streams.DELETE("/:room_id", h.Stop)
	}
}
