package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Rate  int // requests per second
	Burst int // maximum burst size
}

// RateLimiter throttles dashboard requests per client IP using Redis.
// The dashboard has a handful of users; the limiter exists to stop a
// misbehaving chart poller from burning the vendor API quotas.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	logger   *zap.Logger
	failOpen bool // if true, allow requests when Redis is unavailable
	prefix   string
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redisClient *redis.Client, logger *zap.Logger, failOpen bool) *RateLimiter {
	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(redisClient),
		logger:   logger,
		failOpen: failOpen,
		prefix:   "ratelimit:",
	}
}

// Middleware returns a Gin middleware limiting each client IP.
func (r *RateLimiter) Middleware(config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := r.prefix + c.ClientIP()

		limit := redis_rate.PerSecond(config.Rate)
		res, err := r.limiter.AllowN(c.Request.Context(), key, limit, config.Burst)
		if err != nil {
			r.logger.Error("rate limiter error", zap.Error(err))
			if r.failOpen {
				c.Next()
				return
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "SERVICE_UNAVAILABLE",
				"message": "Rate limiting unavailable",
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.Rate))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(res.RetryAfter).Unix()))

		if res.Allowed == 0 {
			retryAfter := int(res.RetryAfter.Seconds()) + 1
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "RATE_LIMIT_EXCEEDED",
				"message":     "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
