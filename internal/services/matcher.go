package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/config"
	"github.com/gsenseless/tg-job-RAG/internal/metrics"
	"github.com/gsenseless/tg-job-RAG/internal/models"
)

// MatchProgressFunc receives a status message and an overall fraction in [0,1].
type MatchProgressFunc func(message string, fraction float64)

// MatcherService runs one resume-matching round against the vector store.
type MatcherService interface {
	// Match embeds the resume (unless the session already carries its
	// embedding), retrieves the k nearest vacancies scoped to the session
	// tag, and attaches a generated rationale to each match. Results come
	// back in ascending-distance order; an empty store or scope yields an
	// empty list, not an error.
	Match(ctx context.Context, session *models.MatchSession, topK int, promptTemplate string, progress MatchProgressFunc) ([]models.MatchResult, error)
	// PurgeSession removes the session's vacancies. Best-effort cleanup
	// after a match round; failures must not invalidate returned results.
	PurgeSession(ctx context.Context, sessionID string) (int, error)
}

type matcherService struct {
	embedder EmbeddingProvider
	reasoner ReasoningProvider
	store    VectorStore
	topK     int
	logger   *zap.Logger
}

func NewMatcherService(embedder EmbeddingProvider, reasoner ReasoningProvider, store VectorStore, cfg *config.Config, log *zap.Logger) MatcherService {
	return &matcherService{
		embedder: embedder,
		reasoner: reasoner,
		store:    store,
		topK:     cfg.Pipeline.DefaultTopK,
		logger:   log,
	}
}

// Match implements MatcherService.
func (m *matcherService) Match(ctx context.Context, session *models.MatchSession, topK int, promptTemplate string, progress MatchProgressFunc) ([]models.MatchResult, error) {
	if strings.TrimSpace(session.ResumeText) == "" {
		return nil, fmt.Errorf("resume text: %w", models.ErrEmptyText)
	}
	if topK <= 0 {
		topK = m.topK
	}
	report := func(msg string, fraction float64) {
		if progress != nil {
			progress(msg, fraction)
		}
	}

	report("Generating resume embedding...", 0.1)
	if len(session.ResumeEmbedding) == 0 {
		vector, err := m.embedder.EmbedOne(ctx, session.ResumeText)
		if err != nil {
			metrics.MatchRoundsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("embed resume: %w", err)
		}
		session.ResumeEmbedding = vector
	}

	report(fmt.Sprintf("Searching for top %d job matches...", topK), 0.4)
	hits, err := m.store.FindNearest(ctx, session.ResumeEmbedding, topK, session.SessionID)
	if err != nil {
		metrics.MatchRoundsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		m.logger.Info("no vacancies matched", zap.String("session_id", session.SessionID))
		metrics.MatchRoundsTotal.WithLabelValues("empty").Inc()
		return []models.MatchResult{}, nil
	}

	report("Generating match insights...", 0.6)
	results := make([]models.MatchResult, 0, len(hits))
	for i, hit := range hits {
		report(
			fmt.Sprintf("Generating insight %d/%d...", i+1, len(hits)),
			0.6+0.4*float64(i+1)/float64(len(hits)),
		)

		reasoning, err := m.reasoner.Explain(ctx, session.ResumeText, hit.Description, promptTemplate)
		if err != nil {
			metrics.MatchRoundsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("reasoning for job %s: %w", hit.JobID, err)
		}

		// Ranked order from the store is preserved, no re-sorting.
		results = append(results, models.MatchResult{
			JobID:       hit.JobID,
			Description: hit.Description,
			Distance:    hit.Distance,
			Reasoning:   reasoning,
		})
	}

	metrics.MatchRoundsTotal.WithLabelValues("success").Inc()
	return results, nil
}

// PurgeSession implements MatcherService.
func (m *matcherService) PurgeSession(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, nil
	}
	deleted, err := m.store.DeleteBySession(ctx, sessionID)
	if err != nil {
		return deleted, fmt.Errorf("purge session %s: %w", sessionID, err)
	}
	m.logger.Info("purged session vacancies",
		zap.String("session_id", sessionID), zap.Int("deleted", deleted))
	return deleted, nil
}
