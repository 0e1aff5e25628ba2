package middleware

import (
	"context"
	"net/http"
	"strconv"

	"coaching-messenger/internal/redis"
	"coaching-messenger/internal/services"
	"coaching-messenger/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// Limiter is implemented by redis.RateLimiter.
type Limiter interface {
	AllowMessage(ctx context.Context, userID string) (*redis.RateLimitResult, error)
	AllowTyping(ctx context.Context, userID string) (*redis.RateLimitResult, error)
}

// MessageRateLimitMiddleware limits message sends per user.
// Should be applied to message endpoints after auth middleware
func MessageRateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return rateLimit(limiter.AllowMessage, "message rate limit exceeded")
}

// TypingRateLimitMiddleware limits typing indicator posts per user.
func TypingRateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return rateLimit(limiter.AllowTyping, "typing rate limit exceeded")
}

func rateLimit(allow func(ctx context.Context, userID string) (*redis.RateLimitResult, error), message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c.Request.Context())
		if !ok {
			// No user context, auth middleware rejects the request
			c.Next()
			return
		}

		result, err := allow(c.Request.Context(), userID.String())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("rate limit unavailable", "UNAVAILABLE"))
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.Header("Retry-After", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(message, "RATE_LIMITED"))
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
