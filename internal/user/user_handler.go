package user

import (
	"errors"
	"net/http"
	"strconv"

	"bounce-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service UserService
}

func NewHandler(service UserService) *Handler {
	return &Handler{service: service}
}

// Me godoc
// @Summary  Get the authenticated user's profile
// @Tags     users
// @Produce  json
// @Success  200 {object} ProfileResponse
// @Security BearerAuth
// @Router   /users/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	h.profile(c, userID)
}

// Profile godoc
// @Summary  Get a user's profile by id
// @Tags     users
// @Produce  json
// @Param    id path int true "user id"
// @Success  200 {object} ProfileResponse
// @Security BearerAuth
// @Router   /users/{id} [get]
func (h *Handler) Profile(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	h.profile(c, id)
}

func (h *Handler) profile(c *gin.Context, userID uint) {
	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMe godoc
// @Summary  Update the authenticated user's profile
// @Tags     users
// @Accept   json
// @Produce  json
// @Param    request body UpdateProfileRequest true "fields to update"
// @Success  200 {object} ProfileResponse
// @Security BearerAuth
// @Router   /users/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadPicture godoc
// @Summary  Upload a profile picture
// @Tags     users
// @Accept   multipart/form-data
// @Produce  json
// @Param    image formData file true "image file"
// @Success  200 {object} map[string]string
// @Security BearerAuth
// @Router   /users/me/picture [post]
func (h *Handler) UploadPicture(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	url, err := h.service.UploadProfilePicture(c.Request.Context(), userID, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile_picture": url})
}

// Follow godoc
// @Summary  Follow a user
// @Tags     users
// @Produce  json
// @Param    id path int true "user id to follow"
// @Success  200 {object} map[string]string
// @Security BearerAuth
// @Router   /users/{id}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	targetID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	switch err := h.service.Follow(c.Request.Context(), userID, targetID); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "following"})
	case errors.Is(err, ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
	case errors.Is(err, ErrAlreadyFollow):
		c.JSON(http.StatusConflict, gin.H{"error": "already following"})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Unfollow godoc
// @Summary  Unfollow a user
// @Tags     users
// @Produce  json
// @Param    id path int true "user id to unfollow"
// @Success  200 {object} map[string]string
// @Security BearerAuth
// @Router   /users/{id}/follow [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	targetID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	switch err := h.service.Unfollow(c.Request.Context(), userID, targetID); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "unfollowed"})
	case errors.Is(err, ErrNotFollowing):
		c.JSON(http.StatusNotFound, gin.H{"error": "not following"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Followers godoc
// @Summary  List a user's followers
// @Tags     users
// @Produce  json
// @Param    id path int true "user id"
// @Success  200 {array} models.UserResponse
// @Security BearerAuth
// @Router   /users/{id}/followers [get]
func (h *Handler) Followers(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	users, err := h.service.Followers(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// Following godoc
// @Summary  List who a user follows
// @Tags     users
// @Produce  json
// @Param    id path int true "user id"
// @Success  200 {array} models.UserResponse
// @Security BearerAuth
// @Router   /users/{id}/following [get]
func (h *Handler) Following(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	users, err := h.service.Following(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/me", h.Me)
		users.PUT("/me", h.UpdateMe)
		users.POST("/me/picture", h.UploadPicture)
		users.GET("/:id", h.Profile)
		users.POST("/:id/follow", h.Follow)
		users.DELETE("/:id/follow", h.Unfollow)
		users.GET("/:id/followers", h.Followers)
		users.GET("/:id/following", h.Following)
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	return uint(id), err
}
