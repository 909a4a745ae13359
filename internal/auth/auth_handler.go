package auth

import (
	"errors"
	"net/http"

	"bounce-service/internal/models"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type PasscodeRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Passcode string `json:"passcode" binding:"required"`
}

type AppleSignInRequest struct {
	IdentityToken string `json:"identity_token" binding:"required"`
	Nickname      string `json:"nickname"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	User         *models.UserResponse `json:"user"`
}

// Passcode godoc
// @Summary  Authenticate with email and passcode
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    request body PasscodeRequest true "credentials"
// @Success  200 {object} AuthResponse
// @Router   /auth/passcode [post]
func (h *Handler) Passcode(c *gin.Context) {
	var req PasscodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, user, err := h.service.PasscodeAuth(c.Request.Context(), req.Email, req.Passcode)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         models.NewUserResponse(user),
	})
}

// Apple godoc
// @Summary  Sign in with Apple
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    request body AppleSignInRequest true "identity token"
// @Success  200 {object} AuthResponse
// @Router   /auth/apple [post]
func (h *Handler) Apple(c *gin.Context) {
	var req AppleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, user, err := h.service.AppleSignIn(c.Request.Context(), req.IdentityToken, req.Nickname)
	if err != nil {
		if errors.Is(err, ErrAppleNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "apple sign-in unavailable"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "apple sign-in failed"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         models.NewUserResponse(user),
	})
}

// Refresh godoc
// @Summary  Exchange a refresh token for a new token pair
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    request body RefreshRequest true "refresh token"
// @Success  200 {object} TokenPair
// @Router   /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenRevoked) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Logout godoc
// @Summary  Revoke a refresh token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    request body RefreshRequest true "refresh token"
// @Success  200 {object} map[string]string
// @Router   /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/passcode", h.Passcode)
		auth.POST("/apple", h.Apple)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
	}
}
