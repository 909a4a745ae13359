package checkin

import (
	"errors"
	"net/http"
	"strconv"

	"bounce-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service CheckInService
}

func NewHandler(service CheckInService) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary  Check in at the current location
// @Tags     checkins
// @Accept   json
// @Produce  json
// @Param    request body CreateCheckInRequest true "coordinates"
// @Success  201 {object} CheckInResponse
// @Security BearerAuth
// @Router   /checkins [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req CreateCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrOutsideGeofence) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "location is outside the event area"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Recent godoc
// @Summary  Check-ins from the last 24 hours
// @Tags     checkins
// @Produce  json
// @Param    limit query int false "max results"
// @Success  200 {array} CheckInResponse
// @Security BearerAuth
// @Router   /checkins [get]
func (h *Handler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	checkIns, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, checkIns)
}

// Mine godoc
// @Summary  The authenticated user's check-in history
// @Tags     checkins
// @Produce  json
// @Param    limit query int false "max results"
// @Success  200 {array} CheckInResponse
// @Security BearerAuth
// @Router   /checkins/me [get]
func (h *Handler) Mine(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	checkIns, err := h.service.ForUser(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, checkIns)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	checkins := r.Group("/checkins")
	{
		checkins.POST("", h.Create)
		checkins.GET("", h.Recent)
		checkins.GET("/me", h.Mine)
	}
}
