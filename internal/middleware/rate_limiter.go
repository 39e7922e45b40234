package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/jovanglig/aigeniusresume/internal/models"
)

// RateLimiter limits each client IP to limit requests per window using a
// sliding window. A limit of 0 disables limiting.
func RateLimiter(limit int, window time.Duration) fiber.Handler {
	if limit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error:     "Too many requests, please try again later",
				RequestID: RequestIDOf(c),
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
