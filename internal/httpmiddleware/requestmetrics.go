package httpmiddleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/metrics"
)

// RequestMetrics counts handled requests per route template and status.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
