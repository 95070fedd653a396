package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Store is the subset of the Redis wrapper this package uses.
// *cache.Redis satisfies it.
type Store interface {
	Get(key string) (string, error)
	Set(key string, value string, expiration time.Duration) error
	Incr(key string) (int64, error)
	Expire(key string, expiration time.Duration) error
}

const (
	RateLimit       = 120 // requests per window per client
	RateLimitWindow = 1 * time.Minute
)

// RateLimiter counts requests per client IP in Redis. When Redis is not
// configured or a command fails the request is allowed through.
func RateLimiter(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		count, err := store.Incr(key)
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			store.Expire(key, RateLimitWindow)
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", RateLimit))
		if count > RateLimit {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "demasiadas solicitudes, intente más tarde"})
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", RateLimit-int(count)))
		c.Next()
	}
}
