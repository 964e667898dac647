package handlers

import (
	"context"
	"net/http"

	"dbdesigner/internal/responses"
	"dbdesigner/internal/services"
	"dbdesigner/internal/utils"

	"github.com/gin-gonic/gin"
)

type TableHandler struct {
	tableService     *services.TableService
	reconcileService *services.ReconcileService
	demo             bool
}

func NewTableHandler(tableService *services.TableService, reconcileService *services.ReconcileService, demo bool) *TableHandler {
	return &TableHandler{
		tableService:     tableService,
		reconcileService: reconcileService,
		demo:             demo,
	}
}

func (h *TableHandler) opts() services.WriteOptions {
	return services.WriteOptions{Demo: h.demo}
}

// GetTable handles GET /api/v1/tables/:id
func (h *TableHandler) GetTable(c *gin.Context) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid table id")
		return
	}

	table, err := h.tableService.GetTable(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Failed to get table")
		return
	}

	responses.Success(c, http.StatusOK, table, "Table retrieved successfully")
}

// UpdateTable handles PATCH /api/v1/tables/:id
func (h *TableHandler) UpdateTable(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid table id")
		return
	}

	var req services.TablePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	table, err := h.reconcileService.ReconcileTable(c.Request.Context(), caller, id, &req, h.opts())
	if err != nil {
		writeError(c, err, "Failed to update table")
		return
	}

	responses.Success(c, http.StatusOK, table, "Table updated successfully")
}

// DeleteTable handles DELETE /api/v1/tables/:id
func (h *TableHandler) DeleteTable(c *gin.Context) {
	h.delete(c, "table", h.tableService.DeleteTable)
}

// DeleteField handles DELETE /api/v1/fields/:id
func (h *TableHandler) DeleteField(c *gin.Context) {
	h.delete(c, "field", h.tableService.DeleteField)
}

// DeleteLink handles DELETE /api/v1/links/:id
func (h *TableHandler) DeleteLink(c *gin.Context) {
	h.delete(c, "link", h.tableService.DeleteLink)
}

type deleteFunc func(ctx context.Context, caller services.Caller, id int64, opts services.WriteOptions) error

func (h *TableHandler) delete(c *gin.Context, kind string, del deleteFunc) {
	caller, ok := callerFrom(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid "+kind+" id")
		return
	}

	if err := del(c.Request.Context(), caller, id, h.opts()); err != nil {
		writeError(c, err, "Failed to delete "+kind)
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"id": id}, "Deleted successfully")
}
