package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/models"
	"github.com/gsenseless/tg-job-RAG/internal/repositories"
	"github.com/gsenseless/tg-job-RAG/internal/services"
)

type MatchHandler struct {
	resumeService services.ResumeService
	matcher       services.MatcherService
	events        repositories.EventRepository
	logger        *zap.Logger
}

func NewMatchHandler(resumeService services.ResumeService, matcher services.MatcherService, events repositories.EventRepository, log *zap.Logger) *MatchHandler {
	return &MatchHandler{
		resumeService: resumeService,
		matcher:       matcher,
		events:        events,
		logger:        log,
	}
}

// HandleMatch runs one match round: load the stored resume, rank vacancies in
// the request's session, log the query event and purge the session. Purge and
// logging failures never invalidate the returned matches.
func (h *MatchHandler) HandleMatch(c *fiber.Ctx) error {
	var req models.MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.UserID == "" {
		req.UserID = defaultUserID
	}

	resume, err := h.resumeService.GetResume(c.Context(), req.UserID)
	if err != nil {
		return errorJSON(c, err)
	}

	session := &models.MatchSession{
		SessionID:       req.SessionID,
		ResumeText:      resume.Text,
		ResumeEmbedding: resume.Embedding,
	}

	log := h.logger.With(
		zap.String("user_id", req.UserID),
		zap.String("session_id", req.SessionID),
	)

	matches, err := h.matcher.Match(c.Context(), session, req.TopK, req.Prompt, func(message string, fraction float64) {
		log.Info("match progress", zap.String("status", message), zap.Float64("fraction", fraction))
	})
	if err != nil {
		return errorJSON(c, err)
	}

	if len(matches) > 0 {
		if err := h.events.LogQuery(req.UserID, len(matches), avgDistance(matches)); err != nil {
			log.Warn("failed to log query event", zap.Error(err))
		}
		if _, err := h.matcher.PurgeSession(c.Context(), req.SessionID); err != nil {
			log.Warn("session purge failed", zap.Error(err))
		}
	}

	return c.JSON(models.MatchResponse{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Matches:   matches,
	})
}

func avgDistance(matches []models.MatchResult) float64 {
	sum := 0.0
	for _, m := range matches {
		sum += m.Distance
	}
	return sum / float64(len(matches))
}
