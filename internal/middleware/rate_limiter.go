package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/optread/optread-api/pkg/redis"
	"github.com/optread/optread-api/pkg/response"
	"github.com/optread/optread-api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RateLimitConfig holds fixed-window rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerMinute per client IP (0 = unlimited)
	RequestsPerMinute int
	// KeyPrefix namespaces the counters in Redis
	KeyPrefix string
}

// RateLimit limits requests per client IP using a fixed one-minute window in
// Redis. Credential endpoints sit behind it to slow down guessing. A nil
// client or a Redis error fails open; availability wins over throttling.
func RateLimit(client *redis.Client, config RateLimitConfig) gin.HandlerFunc {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "ratelimit:"
	}

	return func(c *gin.Context) {
		if client == nil || config.RequestsPerMinute <= 0 {
			c.Next()
			return
		}

		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.rate_limit")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		clientIP := c.ClientIP()
		span.SetAttributes(attribute.String("client_ip", clientIP))

		window := time.Now().Unix() / 60
		key := config.KeyPrefix + clientIP + ":" + strconv.FormatInt(window, 10)

		pipe := client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, time.Minute)
		if _, err := pipe.Exec(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Ok, "fail open")
			c.Next()
			return
		}

		count := incr.Val()
		remaining := int64(config.RequestsPerMinute) - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt((window+1)*60, 10))

		if count > int64(config.RequestsPerMinute) {
			span.SetStatus(codes.Error, "rate limit exceeded")
			c.Header("Retry-After", strconv.FormatInt((window+1)*60-time.Now().Unix(), 10))
			response.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests, please try again later")
			c.Abort()
			return
		}

		span.SetStatus(codes.Ok, "")
		c.Next()
	}
}
