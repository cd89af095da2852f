package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gsenseless/tg-job-RAG/internal/models"
)

// ResumeRepository stores the single live resume record per user.
type ResumeRepository interface {
	// Save overwrites the user's record; no history is kept.
	Save(ctx context.Context, record *models.ResumeRecord) error
	// FindByUserID returns models.ErrResumeNotFound when nothing is stored.
	FindByUserID(ctx context.Context, userID string) (*models.ResumeRecord, error)
}

type resumeRepository struct {
	client *redis.Client
}

func NewResumeRepository(client *redis.Client) ResumeRepository {
	return &resumeRepository{client: client}
}

func resumeKey(userID string) string {
	return "resume:" + userID
}

// Save implements ResumeRepository.
func (r *resumeRepository) Save(ctx context.Context, record *models.ResumeRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode resume record: %w", err)
	}
	if err := r.client.Set(ctx, resumeKey(record.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store resume record: %w", err)
	}
	return nil
}

// FindByUserID implements ResumeRepository.
func (r *resumeRepository) FindByUserID(ctx context.Context, userID string) (*models.ResumeRecord, error) {
	data, err := r.client.Get(ctx, resumeKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("user %s: %w", userID, models.ErrResumeNotFound)
		}
		return nil, fmt.Errorf("failed to load resume record: %w", err)
	}

	var record models.ResumeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode resume record: %w", err)
	}
	return &record, nil
}
