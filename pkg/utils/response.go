package utils

import (
	"net/http"
	"time"

	apperrors "github.com/frostdev-ops/home-planner-go/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
	Meta      interface{} `json:"meta,omitempty"`
}

// ErrorResponse represents an error response with request context
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	Code      int         `json:"code"`
	Timestamp string      `json:"timestamp"`
	Request   RequestInfo `json:"request"`
	Details   interface{} `json:"details,omitempty"`
}

// RequestInfo provides context about the failed request
type RequestInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  string `json:"query,omitempty"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SendSuccess sends a successful response
func SendSuccess(c *gin.Context, data interface{}) {
	SendStatus(c, http.StatusOK, data)
}

// SendCreated sends a 201 response
func SendCreated(c *gin.Context, data interface{}) {
	SendStatus(c, http.StatusCreated, data)
}

// SendStatus sends a successful response with an explicit status code
func SendStatus(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

// SendSuccessWithMeta sends a successful response with metadata
func SendSuccessWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Meta:      meta,
		Timestamp: now(),
	})
}

// SendError sends an error response with request context
func SendError(c *gin.Context, statusCode int, message string) {
	sendError(c, statusCode, message, nil)
}

// SendAppError maps err to its status code. Errors that are not AppErrors
// are reported as internal errors without leaking their text.
func SendAppError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		sendError(c, http.StatusInternalServerError, apperrors.ErrInternalServer.Message, nil)
		return
	}
	sendError(c, appErr.Code, appErr.Message, appErr.Details)
}

func sendError(c *gin.Context, statusCode int, message string, details interface{}) {
	resp := ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      statusCode,
		Timestamp: now(),
		Request: RequestInfo{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Query:  c.Request.URL.RawQuery,
		},
		Details: details,
	}

	if details == nil && statusCode == http.StatusMethodNotAllowed {
		resp.Details = map[string]interface{}{
			"message": "The HTTP method is not supported for this endpoint.",
		}
	}

	c.AbortWithStatusJSON(statusCode, resp)
}
