package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/models"
	"github.com/gsenseless/tg-job-RAG/internal/repositories"
)

// ResumeService ingests uploaded resumes and serves the single live record
// per user.
type ResumeService interface {
	// IngestResume extracts text from the PDF, embeds it once and overwrites
	// the user's stored record.
	IngestResume(ctx context.Context, userID, pdfPath string) (*models.ResumeRecord, error)
	GetResume(ctx context.Context, userID string) (*models.ResumeRecord, error)
}

type resumeService struct {
	extractor ResumeExtractor
	embedder  EmbeddingProvider
	resumes   repositories.ResumeRepository
	logger    *zap.Logger
}

func NewResumeService(extractor ResumeExtractor, embedder EmbeddingProvider, resumes repositories.ResumeRepository, log *zap.Logger) ResumeService {
	return &resumeService{
		extractor: extractor,
		embedder:  embedder,
		resumes:   resumes,
		logger:    log,
	}
}

// IngestResume implements ResumeService.
func (s *resumeService) IngestResume(ctx context.Context, userID, pdfPath string) (*models.ResumeRecord, error) {
	text, err := s.extractor.ExtractText(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("extract resume text: %w", err)
	}

	embedding, err := s.embedder.EmbedOne(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed resume: %w", err)
	}

	record := &models.ResumeRecord{
		UserID:    userID,
		Text:      text,
		Embedding: embedding,
		UpdatedAt: time.Now(),
	}
	if err := s.resumes.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("store resume: %w", err)
	}

	s.logger.Info("resume ingested",
		zap.String("user_id", userID),
		zap.Int("text_length", len(text)),
		zap.Int("embedding_dim", len(embedding)))
	return record, nil
}

// GetResume implements ResumeService.
func (s *resumeService) GetResume(ctx context.Context, userID string) (*models.ResumeRecord, error) {
	return s.resumes.FindByUserID(ctx, userID)
}
