package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tranqh/formintake/internal/logger"
	"github.com/tranqh/formintake/internal/service"
)

// Gin context keys populated by Auth.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// Auth returns a middleware that requires a valid bearer token and exposes
// the caller's identity on the Gin context.
func Auth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "missing bearer token"})
			return
		}

		claims, err := auth.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)

		ctx := logger.WithField(c.Request.Context(), logger.FieldUserID, claims.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole returns a middleware gating a route group to one role. Must
// run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "insufficient permissions"})
			return
		}
		c.Next()
	}
}
