package models

import "time"

// JobRecord is one job posting produced by an export parser. JobID may be
// empty, in which case ingestion assigns a positional id.
type JobRecord struct {
	JobID       string     `json:"job_id"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date,omitempty"`
}

// VacancyPoint is the persisted form of a job: record plus embedding plus the
// session tag that scopes it. Re-ingesting the same JobID overwrites the point.
type VacancyPoint struct {
	JobID       string
	Description string
	Date        *time.Time
	Embedding   []float32
	SessionID   string
	IngestedAt  time.Time
}

// VacancyMatch is one nearest-neighbor hit returned by the vector store.
// Distance is cosine distance: 0 means identical direction, 2 opposite.
type VacancyMatch struct {
	JobID       string
	Description string
	Distance    float64
}

// MatchResult is a ranked match with its generated rationale. Produced per
// query, never persisted.
type MatchResult struct {
	JobID       string  `json:"job_id"`
	Description string  `json:"description"`
	Distance    float64 `json:"distance"`
	Reasoning   string  `json:"reasoning"`
}

// MatchSession carries one matching round's state explicitly between calls.
// ResumeEmbedding may be empty; the matcher then embeds ResumeText itself.
type MatchSession struct {
	SessionID       string
	ResumeText      string
	ResumeEmbedding []float32
}

// IngestConfirmation reports one persisted vacancy back to the caller.
type IngestConfirmation struct {
	JobID        string `json:"job_id"`
	EmbeddingDim int    `json:"embedding_dim"`
}
