package httpserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// RateLimit caps requests per client IP. Each IP gets a token bucket sized to
// the window cap; idle buckets expire from the cache so the limiter does not
// grow without bound.
func RateLimit(window time.Duration, maxRequests int) gin.HandlerFunc {
	limiters := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](window),
	)
	go limiters.Start()

	fill := rate.Every(window / time.Duration(maxRequests))

	return func(c *gin.Context) {
		ip := c.ClientIP()

		item, _ := limiters.GetOrSet(ip, rate.NewLimiter(fill, maxRequests))
		if !item.Value().Allow() {
			c.AbortWithStatusJSON(429, gin.H{
				"success": false,
				"error":   "Too many requests, please try again later.",
			})
			return
		}

		c.Next()
	}
}
