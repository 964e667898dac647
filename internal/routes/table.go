package routes

import (
	"dbdesigner/internal/handlers"

	"github.com/gin-gonic/gin"
)

type TableRoutes struct {
	tableHandler *handlers.TableHandler
	auth         gin.HandlerFunc
}

func NewTableRoutes(tableHandler *handlers.TableHandler, auth gin.HandlerFunc) *TableRoutes {
	return &TableRoutes{
		tableHandler: tableHandler,
		auth:         auth,
	}
}

func (r *TableRoutes) RegisterRoutes(router *gin.RouterGroup) {
	tables := router.Group("/tables")
	tables.Use(r.auth)
	{
		tables.GET("/:id", r.tableHandler.GetTable)
		tables.PATCH("/:id", r.tableHandler.UpdateTable)
		tables.DELETE("/:id", r.tableHandler.DeleteTable)
	}

	router.DELETE("/fields/:id", r.auth, r.tableHandler.DeleteField)
	router.DELETE("/links/:id", r.auth, r.tableHandler.DeleteLink)
}
