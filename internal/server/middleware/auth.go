// Package middleware holds the Gin middlewares guarding the API surface.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/apperror"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

const userContextKey = "currentUser"

// TokenVerifier validates a signed token and returns the subject user id.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// UserLoader resolves a user id to the stored account.
type UserLoader interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate rejects requests without a valid bearer token and attaches
// the resolved user to the request context. A token whose user no longer
// exists is treated the same as an invalid token.
func Authenticate(tokens TokenVerifier, users UserLoader, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authentication token required",
			})
			return
		}

		userID, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		user, err := users.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			if apperror.KindOf(err) == apperror.KindNotFound {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "invalid or expired token",
				})
				return
			}
			logger.Error("failed loading authenticated user", zap.String("user_id", userID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "internal server error",
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireRole blocks authenticated callers whose role does not match.
// It must run after Authenticate.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by Authenticate.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
