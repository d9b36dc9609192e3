package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Meta contains response metadata
type Meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse represents a successful API response
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta Meta        `json:"meta"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Meta    Meta   `json:"meta"`
}

func meta(c *gin.Context) Meta {
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return Meta{RequestID: requestID, Timestamp: time.Now()}
}

// OK sends a 200 OK response
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Data: data, Meta: meta(c)})
}

// Error sends an error response
func Error(c *gin.Context, statusCode int, errCode string, message string) {
	c.JSON(statusCode, ErrorResponse{Error: errCode, Message: message, Meta: meta(c)})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "INVALID_REQUEST", message)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// BadGateway sends a 502 Bad Gateway response for upstream vendor failures
func BadGateway(c *gin.Context, message string) {
	Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", message)
}

// InternalError sends a 500 Internal Server Error response
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
