package post

import (
	"errors"
	"net/http"
	"strconv"

	"bounce-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service PostService
}

func NewHandler(service PostService) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary  Create a post, optionally with an image
// @Tags     posts
// @Accept   multipart/form-data
// @Produce  json
// @Param    content formData string false "text content"
// @Param    image formData file false "image file"
// @Success  201 {object} PostResponse
// @Security BearerAuth
// @Router   /posts [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Media is optional.
	media, _ := c.FormFile("image")

	resp, err := h.service.Create(c.Request.Context(), userID, &req, media)
	if err != nil {
		if errors.Is(err, ErrEmptyPost) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "post needs content or media"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Feed godoc
// @Summary  Latest posts, newest first
// @Tags     posts
// @Produce  json
// @Param    limit query int false "page size"
// @Param    offset query int false "page offset"
// @Success  200 {array} PostResponse
// @Security BearerAuth
// @Router   /posts [get]
func (h *Handler) Feed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	posts, err := h.service.Feed(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Get godoc
// @Summary  Get a single post
// @Tags     posts
// @Produce  json
// @Param    id path int true "post id"
// @Success  200 {object} PostResponse
// @Security BearerAuth
// @Router   /posts/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	postID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	resp, err := h.service.Get(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary  Delete an own post
// @Tags     posts
// @Produce  json
// @Param    id path int true "post id"
// @Success  200 {object} map[string]string
// @Security BearerAuth
// @Router   /posts/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	postID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	switch err := h.service.Delete(c.Request.Context(), userID, postID); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the post owner"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Like godoc
// @Summary  Like a post
// @Tags     posts
// @Produce  json
// @Param    id path int true "post id"
// @Success  200 {object} map[string]int64
// @Security BearerAuth
// @Router   /posts/{id}/like [post]
func (h *Handler) Like(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	postID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	likes, err := h.service.Like(c.Request.Context(), userID, postID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"likes": likes})
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, ErrAlreadyLiked):
		c.JSON(http.StatusConflict, gin.H{"error": "already liked"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Unlike godoc
// @Summary  Remove a like
// @Tags     posts
// @Produce  json
// @Param    id path int true "post id"
// @Success  200 {object} map[string]int64
// @Security BearerAuth
// @Router   /posts/{id}/like [delete]
func (h *Handler) Unlike(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	postID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	likes, err := h.service.Unlike(c.Request.Context(), userID, postID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"likes": likes})
	case errors.Is(err, ErrNotLiked):
		c.JSON(http.StatusNotFound, gin.H{"error": "not liked"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	posts := r.Group("/posts")
	{
		posts.POST("", h.Create)
		posts.GET("", h.Feed)
		posts.GET("/:id", h.Get)
		posts.DELETE("/:id", h.Delete)
		posts.POST("/:id/like", h.Like)
		posts.DELETE("/:id/like", h.Unlike)
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	return uint(id), err
}
