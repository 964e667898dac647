package handlers

import (
	"net/http"

	"dbdesigner/internal/responses"
	"dbdesigner/internal/services"

	"github.com/gin-gonic/gin"
)

type SchemaHandler struct {
	schemaService    *services.SchemaService
	reconcileService *services.ReconcileService
	demo             bool
}

func NewSchemaHandler(schemaService *services.SchemaService, reconcileService *services.ReconcileService, demo bool) *SchemaHandler {
	return &SchemaHandler{
		schemaService:    schemaService,
		reconcileService: reconcileService,
		demo:             demo,
	}
}

// GetSchema handles GET /api/v1/tables?database_id=
func (h *SchemaHandler) GetSchema(c *gin.Context) {
	schema, err := h.schemaService.GetSchema(c.Request.Context(), c.DefaultQuery("database_id", "0"))
	if err != nil {
		writeError(c, err, "Failed to load schema")
		return
	}

	responses.Success(c, http.StatusOK, schema, "Schema retrieved successfully")
}

// UpdateTables handles POST /api/v1/update-tables
func (h *SchemaHandler) UpdateTables(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req services.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.reconcileService.Reconcile(c.Request.Context(), caller, &req, services.WriteOptions{Demo: h.demo})
	if err != nil {
		writeError(c, err, "Failed to update tables")
		return
	}

	responses.Success(c, http.StatusOK, result, "Tables update successfully!")
}
