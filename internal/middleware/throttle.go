package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/uniportal/portal-api/pkg/errors"
	"github.com/uniportal/portal-api/pkg/response"
)

// Throttle limits each client IP to max requests per window. Used on
// unauthenticated routes that trigger outbound email.
func Throttle(max int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Every(window/time.Duration(max)), max)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "too many requests, please try again later"))
			c.Abort()
			return
		}

		c.Next()
	}
}
