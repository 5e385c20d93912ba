package middleware

import (
	"time"

	"github.com/frostdev-ops/home-planner-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID tags every request with an id, reusing the caller's when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Logging logs every request. Successful requests are folded into batches.
func Logging(log *logger.BatchLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := logrus.Fields{
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(ContextRequestID),
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["error_message"] = c.Errors.String()
		}
		log.LogRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start), fields)
	}
}
