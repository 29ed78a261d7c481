package middleware

import (
	"fmt"
	"strconv"
	"time"

	"network_server/pkg/apperr"
	"network_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter shared by every API replica
// through Redis. Requests are keyed by user, falling back to IP.
type RateLimiter struct {
	redis  *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  client,
		prefix: "ratelimit:",
		limit:  limit,
		window: window,
	}
}

// Handler limits mutating requests only; reads pass through.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl == nil || rl.redis == nil || rl.limit <= 0 || isReadOnly(c.Method()) {
			return c.Next()
		}

		windowStart := time.Now().Truncate(rl.window)
		key := fmt.Sprintf("%s%s:%d", rl.prefix, rateKey(c), windowStart.Unix())

		pipe := rl.redis.TxPipeline()
		incr := pipe.Incr(c.Context(), key)
		pipe.Expire(c.Context(), key, rl.window)
		if _, err := pipe.Exec(c.Context()); err != nil {
			logger.WithError(err).Warn("rate limiter unavailable")
			return c.Next()
		}

		count := int(incr.Val())
		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > rl.limit {
			retryAfter := int(time.Until(windowStart.Add(rl.window)).Seconds()) + 1
			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return apperr.RateLimited(retryAfter)
		}
		return c.Next()
	}
}

func rateKey(c *fiber.Ctx) string {
	if uid, ok := c.Locals("user_id").(uuid.UUID); ok {
		return "user:" + uid.String()
	}
	return "ip:" + c.IP()
}

func isReadOnly(method string) bool {
	return method == fiber.MethodGet || method == fiber.MethodHead || method == fiber.MethodOptions
}
