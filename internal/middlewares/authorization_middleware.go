package middlewares

import (
	"net/http"

	"dbdesigner/internal/models"

	"github.com/gin-gonic/gin"
)

// RequireAdmin checks if the authenticated user is an admin.
// This middleware should be used after Authenticate middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("userId"); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		if c.GetString("role") != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Admin privileges required."})
			return
		}

		c.Next()
	}
}
