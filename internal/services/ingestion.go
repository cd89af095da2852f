package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/config"
	"github.com/gsenseless/tg-job-RAG/internal/metrics"
	"github.com/gsenseless/tg-job-RAG/internal/models"
)

// IngestProgressFunc reports ingestion progress as (processed, total) between
// chunks. Purely observational.
type IngestProgressFunc func(processed, total int)

// IngestionPipeline validates, embeds and persists job records in chunks
// under a shared session tag.
type IngestionPipeline interface {
	// IngestJobs runs the pipeline. On a chunk failure it returns the
	// confirmations of already-committed chunks together with the error;
	// committed chunks stay persisted (at-least-once, not atomic as a whole).
	IngestJobs(ctx context.Context, jobs []models.JobRecord, sessionID string, progress IngestProgressFunc) ([]models.IngestConfirmation, error)
}

type ingestionPipeline struct {
	embedder  EmbeddingProvider
	store     VectorStore
	chunkSize int
	pacing    time.Duration
	logger    *zap.Logger
}

func NewIngestionPipeline(embedder EmbeddingProvider, store VectorStore, cfg *config.Config, log *zap.Logger) IngestionPipeline {
	return &ingestionPipeline{
		embedder:  embedder,
		store:     store,
		chunkSize: cfg.Pipeline.ChunkSize,
		pacing:    cfg.Pipeline.PacingDelay,
		logger:    log,
	}
}

// IngestJobs implements IngestionPipeline.
func (p *ingestionPipeline) IngestJobs(ctx context.Context, jobs []models.JobRecord, sessionID string, progress IngestProgressFunc) ([]models.IngestConfirmation, error) {
	valid := validateJobs(jobs)
	total := len(valid)
	if dropped := len(jobs) - total; dropped > 0 {
		p.logger.Info("dropped records with empty description", zap.Int("dropped", dropped))
	}
	if total == 0 {
		return nil, nil
	}

	var confirmations []models.IngestConfirmation
	for start := 0; start < total; start += p.chunkSize {
		end := start + p.chunkSize
		if end > total {
			end = total
		}
		chunk := valid[start:end]
		chunkIdx := start/p.chunkSize + 1

		texts := make([]string, len(chunk))
		for i, job := range chunk {
			texts[i] = job.Description
		}

		embeddings, err := p.embedder.EmbedMany(ctx, texts)
		if err != nil {
			return confirmations, fmt.Errorf("ingestion chunk %d (records %d-%d): %w", chunkIdx, start, end-1, err)
		}

		now := time.Now()
		points := make([]models.VacancyPoint, len(chunk))
		for i, job := range chunk {
			points[i] = models.VacancyPoint{
				JobID:       job.JobID,
				Description: job.Description,
				Date:        job.Date,
				Embedding:   embeddings[i],
				SessionID:   sessionID,
				IngestedAt:  now,
			}
		}

		if err := p.store.UpsertBatch(ctx, points); err != nil {
			return confirmations, fmt.Errorf("ingestion chunk %d (records %d-%d): %w", chunkIdx, start, end-1, err)
		}

		for i, job := range chunk {
			confirmations = append(confirmations, models.IngestConfirmation{
				JobID:        job.JobID,
				EmbeddingDim: len(embeddings[i]),
			})
		}
		metrics.VacanciesIngestedTotal.Add(float64(len(chunk)))

		if progress != nil {
			progress(end, total)
		}

		// Pace provider calls between chunks.
		if end < total && p.pacing > 0 {
			timer := time.NewTimer(p.pacing)
			select {
			case <-ctx.Done():
				timer.Stop()
				return confirmations, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return confirmations, nil
}

// validateJobs drops records with blank descriptions and assigns positional
// ids to records that have none. Dropping never fails the run.
func validateJobs(jobs []models.JobRecord) []models.JobRecord {
	valid := make([]models.JobRecord, 0, len(jobs))
	for i, job := range jobs {
		if strings.TrimSpace(job.Description) == "" {
			continue
		}
		if job.JobID == "" {
			job.JobID = strconv.Itoa(i)
		}
		valid = append(valid, job)
	}
	return valid
}
