package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gsenseless/tg-job-RAG/internal/models"
)

// fakeEmbedder returns deterministic vectors keyed by input text, falling
// back to defaultVec for unknown texts.
type fakeEmbedder struct {
	vectors    map[string][]float32
	defaultVec []float32
	oneErr     error
	manyErr    error
	// failOnCall makes EmbedMany fail on the n-th call (1-based); 0 disables.
	failOnCall int
	manyCalls  int
	batchSizes []int
}

func (f *fakeEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	if f.oneErr != nil {
		return nil, f.oneErr
	}
	return f.vectorFor(text), nil
}

func (f *fakeEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	f.manyCalls++
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.manyErr != nil && (f.failOnCall == 0 || f.manyCalls == f.failOnCall) {
		return nil, f.manyErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectorFor(t)
	}
	return out, nil
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	if f.defaultVec != nil {
		return f.defaultVec
	}
	return []float32{1, 0, 0}
}

// fakeReasoner prefixes the job text so tests can pin which match each
// rationale belongs to.
type fakeReasoner struct {
	err   error
	calls int
}

func (f *fakeReasoner) Explain(_ context.Context, _, jobText, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "insight: " + jobText, nil
}

// memVectorStore is an in-memory VectorStore computing cosine distance
// locally. Points are keyed by job id, so re-upserting an id overwrites.
type memVectorStore struct {
	points     map[string]models.VacancyPoint
	upsertErr  error
	searchErr  error
	deleted    []string // session ids passed to DeleteBySession
	upsertSeen int
}

func newMemVectorStore() *memVectorStore {
	return &memVectorStore{points: map[string]models.VacancyPoint{}}
}

func (s *memVectorStore) InitCollection(context.Context) error { return nil }

func (s *memVectorStore) UpsertBatch(_ context.Context, points []models.VacancyPoint) error {
	s.upsertSeen++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for _, p := range points {
		s.points[p.JobID] = p
	}
	return nil
}

func (s *memVectorStore) FindNearest(_ context.Context, vector []float32, k int, sessionID string) ([]models.VacancyMatch, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	var matches []models.VacancyMatch
	for _, p := range s.points {
		if sessionID != "" && p.SessionID != sessionID {
			continue
		}
		matches = append(matches, models.VacancyMatch{
			JobID:       p.JobID,
			Description: p.Description,
			Distance:    1 - cosineSimilarity(vector, p.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *memVectorStore) DeleteBySession(_ context.Context, sessionID string) (int, error) {
	s.deleted = append(s.deleted, sessionID)
	count := 0
	for id, p := range s.points {
		if p.SessionID == sessionID {
			delete(s.points, id)
			count++
		}
	}
	return count, nil
}

func (s *memVectorStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	count := 0
	for id, p := range s.points {
		if p.IngestedAt.Before(cutoff) {
			delete(s.points, id)
			count++
		}
	}
	return count, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("dimension mismatch in test store: %d vs %d", len(a), len(b)))
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// unitVec builds a 3-d unit vector whose cosine similarity with (1,0,0)
// equals sim, so tests can pin exact distances.
func unitVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim)), 0}
}
