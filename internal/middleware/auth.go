package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// TokenVerifier checks an access token and returns the user id it carries.
type TokenVerifier interface {
	VerifyAccessToken(token string) (uint, error)
}

// AdminChecker reports whether a user has the admin flag set.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	admins   AdminChecker
}

func NewAuthMiddleware(verifier TokenVerifier, admins AdminChecker) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, admins: admins}
}

// RequireAuth validates the bearer token and stores the user id in the
// request context for downstream handlers.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := am.verifier.VerifyAccessToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth; it rejects non-admin users.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		isAdmin, err := am.admins.IsAdmin(c.Request.Context(), userID)
		if err != nil || !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserID retrieves the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
