package models

type ResumeUploadResponse struct {
	UserID       string `json:"user_id"`
	TextLength   int    `json:"text_length"`
	EmbeddingDim int    `json:"embedding_dim"`
}

type JobsUploadResponse struct {
	SessionID     string               `json:"session_id"`
	Processed     int                  `json:"processed"`
	Total         int                  `json:"total"`
	Confirmations []IngestConfirmation `json:"confirmations"`
}

type MatchRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	SessionID string `json:"session_id"`
	TopK      int    `json:"top_k"`
	Prompt    string `json:"prompt"`
}

type MatchResponse struct {
	UserID    string        `json:"user_id"`
	SessionID string        `json:"session_id"`
	Matches   []MatchResult `json:"matches"`
}

type FeedbackRequest struct {
	UserID string `json:"user_id" validate:"required"`
	JobID  string `json:"job_id" validate:"required"`
	Liked  bool   `json:"liked"`
}

type StatsResponse struct {
	TotalQueries  int64 `json:"total_queries"`
	TotalFeedback int64 `json:"total_feedback"`
	Likes         int64 `json:"likes"`
	Dislikes      int64 `json:"dislikes"`
}
