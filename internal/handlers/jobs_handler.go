package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/models"
	"github.com/gsenseless/tg-job-RAG/internal/services"
)

type JobsHandler struct {
	ingestion   services.IngestionPipeline
	maxFileSize int64
	logger      *zap.Logger
}

func NewJobsHandler(ingestion services.IngestionPipeline, maxFileSize int64, log *zap.Logger) *JobsHandler {
	return &JobsHandler{
		ingestion:   ingestion,
		maxFileSize: maxFileSize,
		logger:      log,
	}
}

// HandleUpload accepts a multipart chat-export JSON, mints a fresh session
// tag and runs the ingestion pipeline under it. The session id in the
// response scopes subsequent match requests to exactly this upload.
func (h *JobsHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("jobs")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing 'jobs' file",
		})
	}
	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("jobs file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to open jobs file: %v", err),
		})
	}
	defer src.Close()

	jobs, err := services.ParseJobsExport(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	sessionID := uuid.New().String()
	log := h.logger.With(zap.String("session_id", sessionID))
	log.Info("starting jobs ingestion", zap.Int("records", len(jobs)))

	confirmations, err := h.ingestion.IngestJobs(c.Context(), jobs, sessionID, func(processed, total int) {
		log.Info("ingestion progress", zap.Int("processed", processed), zap.Int("total", total))
	})
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.JobsUploadResponse{
		SessionID:     sessionID,
		Processed:     len(confirmations),
		Total:         len(jobs),
		Confirmations: confirmations,
	})
}
