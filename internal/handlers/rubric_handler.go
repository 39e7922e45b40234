package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/schemas"
)

type RubricHandler struct {
	rubric models.ScoringRubric
}

func NewRubricHandler(rubric models.ScoringRubric) *RubricHandler {
	return &RubricHandler{rubric: rubric}
}

// HandleGetRubric handles GET /api/rubric
func (h *RubricHandler) HandleGetRubric(c *fiber.Ctx) error {
	scoreSchema, err := schemas.Raw(schemas.Score)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	extractionSchema, err := schemas.Raw(schemas.Extraction)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(models.RubricResponse{
		Version:          h.rubric.Version,
		Rubric:           h.rubric,
		ScoreSchema:      json.RawMessage(scoreSchema),
		ExtractionSchema: json.RawMessage(extractionSchema),
	})
}

// InFlightCounter reports how many completion calls are running or queued.
type InFlightCounter interface {
	InFlight() int
}

type HealthHandler struct {
	pool InFlightCounter
}

func NewHealthHandler(pool InFlightCounter) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// HandleHealth handles GET /api/health
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"time":      time.Now(),
		"in_flight": h.pool.InFlight(),
	})
}
