package handlers

import (
	"errors"
	"net/http"

	"dbdesigner/internal/responses"
	"dbdesigner/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// callerFrom reads the identity set by the Authenticate middleware.
func callerFrom(c *gin.Context) (services.Caller, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		return services.Caller{}, false
	}
	id, ok := userID.(int64)
	if !ok || id <= 0 {
		return services.Caller{}, false
	}
	return services.Caller{UserID: id, Role: c.GetString("role")}, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrConflictOnMatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends a service error. Demo mode is answered with status
// "demo" and 200, and entity failures carry the kind and position of the
// submitted entity.
func writeError(c *gin.Context, err error, message string) {
	if errors.Is(err, services.ErrReadOnlyMode) {
		responses.Demo(c)
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error(message)
	}

	var entityErr *services.EntityError
	if errors.As(err, &entityErr) {
		data := gin.H{"kind": entityErr.Kind, "index": entityErr.Index}
		if entityErr.Kind == services.KindField {
			data["table_index"] = entityErr.TableIndex
		}
		responses.FailWithData(c, status, data, err, message)
		return
	}

	responses.Fail(c, status, err, message)
}
