package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/smilecms/internal/metrics"
)

// Metrics records request counts and latency by matched route.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		done := collector.StartRequest(c.Request.Method, c.FullPath())
		c.Next()
		done(c.Writer.Status())
	}
}
