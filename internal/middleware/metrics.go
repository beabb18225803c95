package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/portal-api/internal/service"
)

// Metrics records a duration histogram and a counter for every request.
// Unrouted paths fall back to the raw URL so 404 traffic still shows up.
func Metrics(m *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
