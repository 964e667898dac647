package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"dbdesigner/internal/responses"

	"github.com/gin-gonic/gin"
)

type TokenRevoker interface {
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
}

type TokenHandler struct {
	revoker TokenRevoker
	ttl     time.Duration
}

func NewTokenHandler(revoker TokenRevoker, ttl time.Duration) *TokenHandler {
	return &TokenHandler{revoker: revoker, ttl: ttl}
}

// RevokeToken handles DELETE /api/v1/admin/tokens/:jti
func (h *TokenHandler) RevokeToken(c *gin.Context) {
	jti := strings.TrimSpace(c.Param("jti"))
	if jti == "" {
		responses.Fail(c, http.StatusBadRequest, nil, "Token id is required")
		return
	}

	if err := h.revoker.Blacklist(c.Request.Context(), jti, h.ttl); err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to revoke token")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{"jti": jti}, "Token revoked")
}
