package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/models"
	"github.com/gsenseless/tg-job-RAG/internal/repositories"
)

type FeedbackHandler struct {
	events repositories.EventRepository
	logger *zap.Logger
}

func NewFeedbackHandler(events repositories.EventRepository, log *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{events: events, logger: log}
}

// HandleFeedback appends one like/dislike event for a returned match.
func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var req models.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.UserID == "" || req.JobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and job_id are required",
		})
	}

	if err := h.events.LogFeedback(req.UserID, req.JobID, req.Liked); err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "feedback recorded",
	})
}

// HandleStats returns aggregate counts for the external dashboard.
func (h *FeedbackHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.events.Stats()
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(stats)
}
