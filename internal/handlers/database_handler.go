package handlers

import (
	"net/http"

	"dbdesigner/internal/responses"
	"dbdesigner/internal/services"
	"dbdesigner/internal/utils"

	"github.com/gin-gonic/gin"
)

type DatabaseHandler struct {
	databaseService *services.DatabaseService
	demo            bool
}

func NewDatabaseHandler(databaseService *services.DatabaseService, demo bool) *DatabaseHandler {
	return &DatabaseHandler{
		databaseService: databaseService,
		demo:            demo,
	}
}

// CreateDatabase handles POST /api/v1/databases
func (h *DatabaseHandler) CreateDatabase(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req services.CreateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	db, err := h.databaseService.CreateDatabase(c.Request.Context(), caller, req, services.WriteOptions{Demo: h.demo})
	if err != nil {
		writeError(c, err, "Failed to create database")
		return
	}

	responses.Success(c, http.StatusCreated, db, "Database created successfully")
}

// GetDatabase handles GET /api/v1/databases/:id
func (h *DatabaseHandler) GetDatabase(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid database id")
		return
	}

	db, err := h.databaseService.GetDatabase(c.Request.Context(), caller, id)
	if err != nil {
		writeError(c, err, "Database not found or access denied")
		return
	}

	responses.Success(c, http.StatusOK, db, "Database retrieved successfully")
}

// UpdateDatabase handles PATCH /api/v1/databases/:id
func (h *DatabaseHandler) UpdateDatabase(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid database id")
		return
	}

	var req services.UpdateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	db, err := h.databaseService.UpdateDatabase(c.Request.Context(), caller, id, req, services.WriteOptions{Demo: h.demo})
	if err != nil {
		writeError(c, err, "Failed to update database")
		return
	}

	responses.Success(c, http.StatusOK, db, "Database updated successfully")
}

// DeleteDatabase handles DELETE /api/v1/databases/:id
func (h *DatabaseHandler) DeleteDatabase(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid database id")
		return
	}

	if err := h.databaseService.DeleteDatabase(c.Request.Context(), caller, id, services.WriteOptions{Demo: h.demo}); err != nil {
		writeError(c, err, "Failed to delete database")
		return
	}

	responses.Success(c, http.StatusOK, nil, "Database deleted successfully")
}
