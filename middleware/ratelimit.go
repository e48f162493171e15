package middleware

import (
	"fmt"
	"log"
	"net/http"

	"portfolio/api/ratelimit"
	"portfolio/api/utils"

	"github.com/gin-gonic/gin"
)

// RateLimit gates a route group through the injected limiter. A denied
// request is dropped with 429; a limiter failure lets the request through
// rather than taking the site down with it.
func RateLimit(limiter ratelimit.Limiter, limit ratelimit.Limit) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := utils.ClientKey(c.Request)

		dec, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			log.Printf("Rate limiter error for %s: %v", key, err)
			c.Next()
			return
		}

		c.Writer.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit.Max))
		c.Writer.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", dec.Remaining))

		if !dec.Allow {
			c.Writer.Header().Set("Retry-After", fmt.Sprintf("%d", int(dec.RetryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			return
		}

		c.Next()
	}
}
