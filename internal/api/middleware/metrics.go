package middleware

import (
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency per route template
func Metrics(collector metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			// unmatched routes share one label to keep cardinality bounded
			path = "unmatched"
		}
		collector.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
