package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/gsenseless/tg-job-RAG/internal/models"
)

// EventRepository appends query and feedback log rows and aggregates them for
// the stats endpoint. Writes are fire-and-forget from the pipeline's view.
type EventRepository interface {
	LogQuery(userID string, numResults int, avgDistance float64) error
	LogFeedback(userID, jobID string, liked bool) error
	Stats() (*models.StatsResponse, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// LogQuery implements EventRepository.
func (r *eventRepository) LogQuery(userID string, numResults int, avgDistance float64) error {
	event := models.QueryEvent{
		UserID:      userID,
		NumResults:  numResults,
		AvgDistance: avgDistance,
	}
	if err := r.db.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to log query event: %w", err)
	}
	return nil
}

// LogFeedback implements EventRepository.
func (r *eventRepository) LogFeedback(userID, jobID string, liked bool) error {
	event := models.FeedbackEvent{
		UserID: userID,
		JobID:  jobID,
		Liked:  liked,
	}
	if err := r.db.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to log feedback event: %w", err)
	}
	return nil
}

// Stats implements EventRepository.
func (r *eventRepository) Stats() (*models.StatsResponse, error) {
	var stats models.StatsResponse

	if err := r.db.Model(&models.QueryEvent{}).Count(&stats.TotalQueries).Error; err != nil {
		return nil, fmt.Errorf("failed to count queries: %w", err)
	}
	if err := r.db.Model(&models.FeedbackEvent{}).Count(&stats.TotalFeedback).Error; err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}
	if err := r.db.Model(&models.FeedbackEvent{}).Where("liked = ?", true).Count(&stats.Likes).Error; err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	stats.Dislikes = stats.TotalFeedback - stats.Likes

	return &stats, nil
}
