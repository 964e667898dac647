package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
	// StatusDemo marks a write that was accepted but not performed.
	StatusDemo = "demo"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func JSON(c *gin.Context, statusCode int, status string, data interface{}, message string, err error) {
	response := APIResponse{
		Status:  status,
		Message: message,
		Data:    data,
	}

	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(statusCode, response)
}

func Success(c *gin.Context, statusCode int, data interface{}, message string) {
	JSON(c, statusCode, StatusSuccess, data, message, nil)
}

func Fail(c *gin.Context, statusCode int, err error, message string) {
	JSON(c, statusCode, StatusError, nil, message, err)
}

// FailWithData is Fail with a payload locating the failure, such as the
// position of a rejected entity in the request.
func FailWithData(c *gin.Context, statusCode int, data interface{}, err error, message string) {
	JSON(c, statusCode, StatusError, data, message, err)
}

// Demo answers a write request in demo mode.
func Demo(c *gin.Context) {
	JSON(c, http.StatusOK, StatusDemo, nil, "Demo mode", nil)
}
