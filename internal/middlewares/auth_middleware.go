package middlewares

import (
	"context"
	"net/http"
	"strings"

	"dbdesigner/internal/models"
	"dbdesigner/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

type AuthConfig struct {
	Secret []byte
	// Blacklist is optional; revoked tokens are only rejected when set.
	Blacklist TokenBlacklist
	// Users is optional; without it every caller has the user role.
	Users UserFinder
}

// Authenticate verifies the bearer token and stores userId (int64) and
// role in the context for handlers.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing Authorization header"})
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid Authorization format"})
			return
		}

		claims, err := utils.VerifyJWT(parts[1], cfg.Secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		ctx := c.Request.Context()
		if cfg.Blacklist != nil {
			revoked, err := cfg.Blacklist.IsBlacklisted(ctx, claims.ID)
			if err != nil {
				logrus.WithError(err).Error("token blacklist lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to verify token"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has been revoked"})
				return
			}
		}

		role := models.RoleUser
		if cfg.Users != nil {
			user, err := cfg.Users.FindUserByID(ctx, userID)
			if err != nil {
				logrus.WithError(err).Error("user lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to verify token"})
				return
			}
			if user == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
				return
			}
			role = user.Role
			c.Set("authenticatedUser", user)
		}

		c.Set("userId", userID)
		c.Set("role", role)
		c.Next()
	}
}
