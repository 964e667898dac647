package handlers

import (
	"net/http"

	"dbdesigner/internal/responses"

	"github.com/gin-gonic/gin"
)

type DemoHandler struct {
	demo bool
}

func NewDemoHandler(demo bool) *DemoHandler {
	return &DemoHandler{demo: demo}
}

// DemoMode handles GET /api/v1/demo-mode
func (h *DemoHandler) DemoMode(c *gin.Context) {
	responses.Success(c, http.StatusOK, gin.H{"demo": h.demo}, "")
}
