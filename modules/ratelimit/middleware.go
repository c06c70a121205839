package ratelimit

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// SubjectLocalKey is the fiber.Ctx local holding the authenticated subject id.
const SubjectLocalKey = "user_id"

// Middleware provides rate limiting middleware for Fiber.
type Middleware struct {
	limiter *SlidingWindowLimiter
	logger  *slog.Logger
}

// NewMiddleware creates a new rate limiting middleware.
func NewMiddleware(limiter *SlidingWindowLimiter, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		limiter: limiter,
		logger:  logger,
	}
}

// IPRateLimit returns middleware that limits requests by client IP.
func (m *Middleware) IPRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "forbidden",
				"message": "Unable to determine client IP address",
			})
		}
		return m.limit(c, "ip:"+ip)
	}
}

// SubjectRateLimit returns middleware that limits requests by authenticated
// subject. It must run after the auth middleware has set SubjectLocalKey;
// anonymous requests fall back to the IP budget.
func (m *Middleware) SubjectRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, ok := c.Locals(SubjectLocalKey).(string)
		if !ok || subject == "" {
			return m.IPRateLimit()(c)
		}
		return m.limit(c, "user:"+subject)
	}
}

func (m *Middleware) limit(c *fiber.Ctx, key string) error {
	result, err := m.limiter.Allow(c.UserContext(), key)
	if err != nil {
		// fail open
		m.logger.Warn("Rate limit check failed",
			"key", key,
			"path", c.Path(),
			"error", err)
		c.Set("X-RateLimit-Error", "rate limiter unavailable")
		return c.Next()
	}

	setRateLimitHeaders(c, result)

	if !result.Allowed {
		m.logger.Info("Rate limit exceeded",
			"key", key,
			"path", c.Path(),
			"retry_after", result.RetryAfter)
		return sendRateLimitExceeded(c, result)
	}

	return c.Next()
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(c *fiber.Ctx, result *Result) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// sendRateLimitExceeded sends a 429 Too Many Requests response.
func sendRateLimitExceeded(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success": false,
		"error":   "too_many_requests",
		"message": fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
	})
}
