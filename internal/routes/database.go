package routes

import (
	"dbdesigner/internal/handlers"

	"github.com/gin-gonic/gin"
)

type DatabaseRoutes struct {
	handler *handlers.DatabaseHandler
	auth    gin.HandlerFunc
}

func NewDatabaseRoutes(handler *handlers.DatabaseHandler, auth gin.HandlerFunc) *DatabaseRoutes {
	return &DatabaseRoutes{handler: handler, auth: auth}
}

func (r *DatabaseRoutes) RegisterRoutes(router *gin.RouterGroup) {
	databases := router.Group("/databases")
	databases.Use(r.auth)
	{
		databases.POST("", r.handler.CreateDatabase)
		databases.GET("/:id", r.handler.GetDatabase)
		databases.PATCH("/:id", r.handler.UpdateDatabase)
		databases.DELETE("/:id", r.handler.DeleteDatabase)
	}
}
