package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/jovanglig/aigeniusresume/internal/middleware"
	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/services"
)

const analysisFailed = "Failed to analyze resume"

// StatusForError picks the HTTP status for a pipeline error.
func StatusForError(err error) int {
	if errors.Is(err, services.ErrFileTooLarge) {
		return fiber.StatusRequestEntityTooLarge
	}

	switch services.ErrorKind(err) {
	case services.KindDocumentParse:
		return fiber.StatusUnprocessableEntity
	case services.KindCompletion, services.KindMalformedResponse, services.KindValidation:
		return fiber.StatusBadGateway
	case services.KindCompletionTimeout:
		return fiber.StatusGatewayTimeout
	case services.KindOverloaded:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the error body. The detail is left out in production.
func respondError(c *fiber.Ctx, err error, production bool) error {
	status := StatusForError(err)
	requestID := middleware.RequestIDOf(c)

	log.Printf("❌ [%s] %s %s failed with %d: %v\n", requestID, c.Method(), c.Path(), status, err)

	body := models.ErrorResponse{
		Error:     analysisFailed,
		Kind:      string(services.ErrorKind(err)),
		RequestID: requestID,
	}
	if !production {
		body.Detail = err.Error()
	}

	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error:     message,
		RequestID: middleware.RequestIDOf(c),
	})
}
