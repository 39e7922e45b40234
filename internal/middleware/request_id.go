package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jovanglig/aigeniusresume/internal/services"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDLocal  = "requestid"
)

// RequestID tags every request with an ID, reusing a well-formed incoming
// X-Request-ID. The ID is echoed in the response and carried in the user
// context so pipeline log lines can be matched to access log lines.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Locals(requestIDLocal, id)
		c.Set(RequestIDHeader, id)
		c.SetUserContext(services.WithRequestID(c.UserContext(), id))

		return c.Next()
	}
}

func RequestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}
