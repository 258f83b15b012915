package middleware

import (
	"strconv"
	"time"

	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/creatorjobs/creatorjobs-api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Observability records per-request metrics and a structured access log
// entry. Routes are labeled by their template, not the raw path, so metric
// cardinality stays bounded.
func Observability() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		metrics.ActiveRequests.WithLabelValues(method).Inc()
		defer metrics.ActiveRequests.WithLabelValues(method).Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		duration := metrics.MeasureDuration(start)

		metrics.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration)
		metrics.HTTPRequestTotal.WithLabelValues(method, route, status).Inc()

		logger.LogHTTPRequest(method, c.Request.URL.Path, c.Writer.Status(), duration,
			zap.String("client_ip", c.ClientIP()),
			zap.String("route", route))
	}
}
