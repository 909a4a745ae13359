package bounce

import (
	"errors"
	"net/http"
	"strconv"

	"bounce-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service BounceService
}

func NewHandler(service BounceService) *Handler {
	return &Handler{service: service}
}

type InviteRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type RespondRequest struct {
	Accept bool `json:"accept"`
}

// Create godoc
// @Summary  Create a bounce (a spontaneous or scheduled meetup)
// @Tags     bounces
// @Accept   json
// @Produce  json
// @Param    request body CreateBounceRequest true "bounce details"
// @Success  201 {object} BounceResponse
// @Security BearerAuth
// @Router   /bounces [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req CreateBounceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListActive godoc
// @Summary  Active and upcoming bounces
// @Tags     bounces
// @Produce  json
// @Param    limit query int false "max results"
// @Success  200 {array} BounceResponse
// @Security BearerAuth
// @Router   /bounces [get]
func (h *Handler) ListActive(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	bounces, err := h.service.ListActive(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bounces)
}

// ListMine godoc
// @Summary  Bounces the user created or attends
// @Tags     bounces
// @Produce  json
// @Success  200 {array} BounceResponse
// @Security BearerAuth
// @Router   /bounces/me [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	bounces, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bounces)
}

// Get godoc
// @Summary  Get a single bounce
// @Tags     bounces
// @Produce  json
// @Param    id path int true "bounce id"
// @Success  200 {object} BounceResponse
// @Security BearerAuth
// @Router   /bounces/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	bounceID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounce id"})
		return
	}

	resp, err := h.service.Get(c.Request.Context(), bounceID)
	if err != nil {
		if errors.Is(err, ErrBounceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "bounce not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary  Cancel an own bounce
// @Tags     bounces
// @Produce  json
// @Param    id path int true "bounce id"
// @Success  200 {object} map[string]string
// @Security BearerAuth
// @Router   /bounces/{id} [delete]
func (h *Handler) Cancel(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	bounceID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounce id"})
		return
	}

	switch err := h.service.Cancel(c.Request.Context(), userID, bounceID); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	case errors.Is(err, ErrBounceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "bounce not found"})
	case errors.Is(err, ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the bounce creator"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Invite godoc
// @Summary  Invite a user to a bounce
// @Tags     bounces
// @Accept   json
// @Produce  json
// @Param    id path int true "bounce id"
// @Param    request body InviteRequest true "invitee"
// @Success  200 {object} map[string]string
// @Security BearerAuth
// @Router   /bounces/{id}/invite [post]
func (h *Handler) Invite(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	bounceID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounce id"})
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch err := h.service.Invite(c.Request.Context(), userID, bounceID, req.UserID); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "invited"})
	case errors.Is(err, ErrBounceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "bounce not found"})
	case errors.Is(err, ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the bounce creator"})
	case errors.Is(err, ErrSelfInvite):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot invite yourself"})
	case errors.Is(err, ErrAlreadyInvited):
		c.JSON(http.StatusConflict, gin.H{"error": "already invited"})
	case errors.Is(err, ErrBounceInactive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "bounce is no longer active"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Respond godoc
// @Summary  Accept or decline a bounce invite
// @Tags     bounces
// @Accept   json
// @Produce  json
// @Param    id path int true "bounce id"
// @Param    request body RespondRequest true "response"
// @Success  200 {object} map[string]string
// @Security BearerAuth
// @Router   /bounces/{id}/respond [post]
func (h *Handler) Respond(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	bounceID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bounce id"})
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch err := h.service.Respond(c.Request.Context(), userID, bounceID, req.Accept); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "responded"})
	case errors.Is(err, ErrInviteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
	case errors.Is(err, ErrInviteResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "invite already responded to"})
	case errors.Is(err, ErrAlreadyAttendee):
		c.JSON(http.StatusConflict, gin.H{"error": "already attending"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Invites godoc
// @Summary  Pending invites for the authenticated user
// @Tags     bounces
// @Produce  json
// @Success  200 {array} models.BounceInvite
// @Security BearerAuth
// @Router   /bounces/invites [get]
func (h *Handler) Invites(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	invites, err := h.service.PendingInvites(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, invites)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bounces := r.Group("/bounces")
	{
		bounces.POST("", h.Create)
		bounces.GET("", h.ListActive)
		bounces.GET("/me", h.ListMine)
		bounces.GET("/invites", h.Invites)
		bounces.GET("/:id", h.Get)
		bounces.DELETE("/:id", h.Cancel)
		bounces.POST("/:id/invite", h.Invite)
		bounces.POST("/:id/respond", h.Respond)
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	return uint(id), err
}
