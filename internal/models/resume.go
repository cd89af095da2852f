package models

import "time"

// ResumeRecord is the single live resume per user. Stored JSON-encoded in
// Redis keyed by user id; re-uploading overwrites it, no history is kept.
type ResumeRecord struct {
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	UpdatedAt time.Time `json:"updated_at"`
}
