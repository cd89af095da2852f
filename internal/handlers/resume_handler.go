package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/models"
	"github.com/gsenseless/tg-job-RAG/internal/services"
)

const defaultUserID = "default_user"

type ResumeHandler struct {
	resumeService services.ResumeService
	uploads       services.UploadStore
	maxFileSize   int64
	logger        *zap.Logger
}

func NewResumeHandler(resumeService services.ResumeService, uploads services.UploadStore, maxFileSize int64, log *zap.Logger) *ResumeHandler {
	return &ResumeHandler{
		resumeService: resumeService,
		uploads:       uploads,
		maxFileSize:   maxFileSize,
		logger:        log,
	}
}

// HandleUpload accepts a multipart PDF resume, extracts its text, embeds it
// and stores the user's live resume record.
func (h *ResumeHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing 'resume' file",
		})
	}
	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("resume file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	userID := c.FormValue("user_id", defaultUserID)

	staged, err := h.uploads.Stage(file, "resume")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save resume file: %v", err),
		})
	}
	defer func() {
		if err := staged.Discard(); err != nil {
			h.logger.Warn("failed to remove uploaded resume", zap.String("file", staged.Name), zap.Error(err))
		}
	}()

	record, err := h.resumeService.IngestResume(c.Context(), userID, staged.Path)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.ResumeUploadResponse{
		UserID:       record.UserID,
		TextLength:   len(record.Text),
		EmbeddingDim: len(record.Embedding),
	})
}
