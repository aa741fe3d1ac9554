package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/johnlukeG/creator-cto-webkit/internal/metrics"
)

// Metrics records request counts and latency labelled by route template.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		collector.RecordHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
