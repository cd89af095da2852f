package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyText signals empty or whitespace-only input text.
	ErrEmptyText = errors.New("text is empty")
	// ErrDimensionMismatch signals a vector whose dimension differs from the store's.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrResumeNotFound signals that no resume is stored for the user.
	ErrResumeNotFound = errors.New("resume not found")
	// ErrRateLimited signals a provider rate-limit or quota response.
	ErrRateLimited = errors.New("rate limited")
	// ErrProvider signals a non-retryable provider failure.
	ErrProvider = errors.New("provider error")
)

// PartialBatchError reports an upsert that committed some sub-batches before a
// later one failed. Committed ids are durable; unconfirmed ids were not written.
type PartialBatchError struct {
	CommittedIDs   []string
	UnconfirmedIDs []string
	Err            error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("batch partially committed (%d written, %d unconfirmed: %s): %v",
		len(e.CommittedIDs), len(e.UnconfirmedIDs), strings.Join(e.UnconfirmedIDs, ","), e.Err)
}

func (e *PartialBatchError) Unwrap() error { return e.Err }
