package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"slideflow/internal/service"
)

// statusForError maps service validation errors to HTTP statuses so handlers
// stay uniform.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrAutomationNotFound),
		errors.Is(err, service.ErrProjectNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrProjectQueue),
		errors.Is(err, service.ErrTopicOutOfRange),
		errors.Is(err, service.ErrEmptyTopic),
		errors.Is(err, service.ErrQueueExhausted),
		errors.Is(err, service.ErrInvalidPlatform),
		errors.Is(err, service.ErrRunNotPostable),
		errors.Is(err, service.ErrNotEnoughImages),
		errors.Is(err, service.ErrInvalidQueueMode),
		errors.Is(err, service.ErrMixedQueueSources):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
