package routes

import (
	"net/http"

	"dbdesigner/internal/handlers"
	"dbdesigner/internal/middlewares"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Schema   *handlers.SchemaHandler
	Table    *handlers.TableHandler
	Database *handlers.DatabaseHandler
	Demo     *handlers.DemoHandler
	// Token is nil when no token blacklist is configured.
	Token *handlers.TokenHandler
}

func RegisterRoutes(router *gin.Engine, h Handlers, auth gin.HandlerFunc) {
	api := router.Group("/api/v1")

	NewSchemaRoutes(h.Schema, auth).RegisterRoutes(api)
	NewTableRoutes(h.Table, auth).RegisterRoutes(api)
	NewDatabaseRoutes(h.Database, auth).RegisterRoutes(api)

	api.GET("/demo-mode", auth, h.Demo.DemoMode)

	if h.Token != nil {
		admin := api.Group("/admin")
		admin.Use(auth, middlewares.RequireAdmin())
		{
			admin.DELETE("/tokens/:jti", h.Token.RevokeToken)
		}
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
