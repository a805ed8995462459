package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/academia-sys/academia-api/internal/service"
)

// Metrics records per-route request counts and latencies. Scrapes of the
// metrics endpoint itself are not observed.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
