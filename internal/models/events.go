package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryEvent is an append-only log row written after each match round.
// Consumed by the external dashboard, never read back by the pipeline.
type QueryEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID      string    `gorm:"type:text;not null" json:"user_id"`
	NumResults  int       `gorm:"not null" json:"num_results"`
	AvgDistance float64   `gorm:"type:double precision" json:"avg_distance"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (QueryEvent) TableName() string {
	return "query_events"
}

// FeedbackEvent records one like/dislike on a returned match.
type FeedbackEvent struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"type:text;not null" json:"user_id"`
	JobID     string    `gorm:"type:text;not null" json:"job_id"`
	Liked     bool      `gorm:"not null" json:"liked"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (FeedbackEvent) TableName() string {
	return "feedback_events"
}
