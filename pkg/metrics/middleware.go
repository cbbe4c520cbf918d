package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestDuration records per-route request latency. The route template
// (c.FullPath) is used instead of the raw URL so label cardinality stays
// bounded; requests that match no route share one bucket.
func RequestDuration() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
