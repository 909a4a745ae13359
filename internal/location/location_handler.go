package location

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service LocationService
}

func NewHandler(service LocationService) *Handler {
	return &Handler{service: service}
}

// Update godoc
// @Summary  Drop or move an anonymous map marker
// @Tags     locations
// @Accept   json
// @Produce  json
// @Param    request body UpdateLocationRequest true "marker position"
// @Success  200 {object} LocationResponse
// @Security BearerAuth
// @Router   /locations [post]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Update(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Active godoc
// @Summary  Anonymous markers updated within the TTL
// @Tags     locations
// @Produce  json
// @Success  200 {array} LocationResponse
// @Security BearerAuth
// @Router   /locations [get]
func (h *Handler) Active(c *gin.Context) {
	locs, err := h.service.Active(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, locs)
}

// Remove godoc
// @Summary  Remove an anonymous marker
// @Tags     locations
// @Produce  json
// @Param    id path string true "location id"
// @Success  200 {object} map[string]string
// @Security BearerAuth
// @Router   /locations/{id} [delete]
func (h *Handler) Remove(c *gin.Context) {
	locationID := c.Param("id")

	if err := h.service.Remove(c.Request.Context(), locationID); err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	locations := r.Group("/locations")
	{
		locations.POST("", h.Update)
		locations.GET("", h.Active)
		locations.DELETE("/:id", h.Remove)
	}
}
