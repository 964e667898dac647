package routes

import (
	"dbdesigner/internal/handlers"

	"github.com/gin-gonic/gin"
)

type SchemaRoutes struct {
	handler *handlers.SchemaHandler
	auth    gin.HandlerFunc
}

func NewSchemaRoutes(handler *handlers.SchemaHandler, auth gin.HandlerFunc) *SchemaRoutes {
	return &SchemaRoutes{handler: handler, auth: auth}
}

func (r *SchemaRoutes) RegisterRoutes(router *gin.RouterGroup) {
	schema := router.Group("")
	schema.Use(r.auth)
	{
		schema.GET("/tables", r.handler.GetSchema)
		schema.POST("/update-tables", r.handler.UpdateTables)
	}
}
