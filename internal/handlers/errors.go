package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gsenseless/tg-job-RAG/internal/models"
	"github.com/gsenseless/tg-job-RAG/internal/retry"
)

// statusForError maps pipeline error kinds to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyText), errors.Is(err, models.ErrDimensionMismatch):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrResumeNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, retry.ErrExhausted), errors.Is(err, models.ErrRateLimited),
		errors.Is(err, models.ErrProvider):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// errorJSON renders the error kind and message. A partial batch failure also
// reports which records were and were not confirmed.
func errorJSON(c *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}

	var partial *models.PartialBatchError
	if errors.As(err, &partial) {
		body["committed_ids"] = partial.CommittedIDs
		body["unconfirmed_ids"] = partial.UnconfirmedIDs
		return c.Status(fiber.StatusBadGateway).JSON(body)
	}

	return c.Status(statusForError(err)).JSON(body)
}
