package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/models"
)

func testMatcher(embedder EmbeddingProvider, reasoner ReasoningProvider, store VectorStore) MatcherService {
	return &matcherService{
		embedder: embedder,
		reasoner: reasoner,
		store:    store,
		topK:     3,
		logger:   zap.NewNop(),
	}
}

// seedJobs inserts vacancies whose cosine distance to the (1,0,0) query is
// exactly the given value.
func seedJobs(store *memVectorStore, sessionID string, distances map[string]float64) {
	for id, d := range distances {
		store.points[id] = models.VacancyPoint{
			JobID:       id,
			Description: "description of " + id,
			Embedding:   unitVec(1 - d),
			SessionID:   sessionID,
			IngestedAt:  time.Now(),
		}
	}
}

// Fixture from the ranking contract: distances 0.1, 0.05, 0.3 must come back
// as [job_b(0.05), job_a(0.1), job_c(0.3)].
func TestMatchReturnsAscendingDistanceOrder(t *testing.T) {
	store := newMemVectorStore()
	seedJobs(store, "sess-a", map[string]float64{
		"job_a": 0.1,
		"job_b": 0.05,
		"job_c": 0.3,
	})
	m := testMatcher(&fakeEmbedder{}, &fakeReasoner{}, store)

	session := &models.MatchSession{SessionID: "sess-a", ResumeText: "resume"}
	results, err := m.Match(context.Background(), session, 3, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"job_b", "job_a", "job_c"}
	wantDist := []float64{0.05, 0.1, 0.3}
	if len(results) != len(wantOrder) {
		t.Fatalf("expected %d results, got %d", len(wantOrder), len(results))
	}
	for i, want := range wantOrder {
		if results[i].JobID != want {
			t.Fatalf("result %d = %s, want %s (full order %v)", i, results[i].JobID, want, results)
		}
		if math.Abs(results[i].Distance-wantDist[i]) > 1e-3 {
			t.Fatalf("result %d distance = %f, want %f", i, results[i].Distance, wantDist[i])
		}
		if results[i].Reasoning != "insight: description of "+want {
			t.Fatalf("result %d carries wrong reasoning: %q", i, results[i].Reasoning)
		}
	}
}

// A just-ingested vacancy queried with its own embedding comes back first
// with distance near zero.
func TestMatchFindsIngestedJobBySelfSimilarity(t *testing.T) {
	store := newMemVectorStore()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"python backend role": unitVec(1),
		"python resume":       unitVec(1),
		"ios developer":       unitVec(0.2),
	}}
	pipeline := testIngestion(embedder, store, 30)
	m := testMatcher(embedder, &fakeReasoner{}, store)
	ctx := context.Background()

	jobs := []models.JobRecord{
		jobFixture("py", "python backend role"),
		jobFixture("ios", "ios developer"),
	}
	if _, err := pipeline.IngestJobs(ctx, jobs, "sess-a", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := &models.MatchSession{SessionID: "sess-a", ResumeText: "python resume"}
	results, err := m.Match(ctx, session, 2, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0].JobID != "py" {
		t.Fatalf("expected the identical-embedding job first, got %v", results)
	}
	if results[0].Distance > 1e-6 {
		t.Fatalf("self-similarity distance = %f, want ~0", results[0].Distance)
	}
}

func TestMatchEmptyResumeFailsFast(t *testing.T) {
	store := newMemVectorStore()
	reasoner := &fakeReasoner{}
	m := testMatcher(&fakeEmbedder{}, reasoner, store)

	session := &models.MatchSession{SessionID: "sess-a", ResumeText: "   "}
	if _, err := m.Match(context.Background(), session, 3, "", nil); !errors.Is(err, models.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if reasoner.calls != 0 {
		t.Fatal("no reasoning expected for empty resume")
	}
}

// Zero hits in the scope is a valid empty result, not an error.
func TestMatchEmptyScopeReturnsEmptyList(t *testing.T) {
	store := newMemVectorStore()
	seedJobs(store, "sess-other", map[string]float64{"job_x": 0.1})
	m := testMatcher(&fakeEmbedder{}, &fakeReasoner{}, store)

	session := &models.MatchSession{SessionID: "sess-a", ResumeText: "resume"}
	results, err := m.Match(context.Background(), session, 3, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty (non-nil) result list, got %v", results)
	}
}

// Jobs uploaded under one session tag never leak into another session's query.
func TestMatchSessionScopingIsolation(t *testing.T) {
	store := newMemVectorStore()
	seedJobs(store, "sess-a", map[string]float64{"job_a1": 0.2, "job_a2": 0.1})
	seedJobs(store, "sess-b", map[string]float64{"job_b1": 0.01})
	m := testMatcher(&fakeEmbedder{}, &fakeReasoner{}, store)

	session := &models.MatchSession{SessionID: "sess-a", ResumeText: "resume"}
	results, err := m.Match(context.Background(), session, 10, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.JobID == "job_b1" {
			t.Fatal("job from session B leaked into session A's results")
		}
	}
}

func TestMatchReusesSessionEmbedding(t *testing.T) {
	store := newMemVectorStore()
	seedJobs(store, "sess-a", map[string]float64{"job_a": 0.1})
	embedder := &fakeEmbedder{oneErr: errors.New("must not embed")}
	m := testMatcher(embedder, &fakeReasoner{}, store)

	session := &models.MatchSession{
		SessionID:       "sess-a",
		ResumeText:      "resume",
		ResumeEmbedding: []float32{1, 0, 0},
	}
	if _, err := m.Match(context.Background(), session, 3, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMatchReasoningFailurePropagates(t *testing.T) {
	store := newMemVectorStore()
	seedJobs(store, "sess-a", map[string]float64{"job_a": 0.1})
	m := testMatcher(&fakeEmbedder{}, &fakeReasoner{err: errors.New("generation failed")}, store)

	session := &models.MatchSession{SessionID: "sess-a", ResumeText: "resume"}
	if _, err := m.Match(context.Background(), session, 3, "", nil); err == nil {
		t.Fatal("expected reasoning failure to propagate")
	}
}

func TestMatchReportsFractionalProgress(t *testing.T) {
	store := newMemVectorStore()
	seedJobs(store, "sess-a", map[string]float64{
		"job_a": 0.1, "job_b": 0.2,
	})
	m := testMatcher(&fakeEmbedder{}, &fakeReasoner{}, store)

	var fractions []float64
	session := &models.MatchSession{SessionID: "sess-a", ResumeText: "resume"}
	_, err := m.Match(context.Background(), session, 2, "", func(_ string, fraction float64) {
		fractions = append(fractions, fraction)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{0.1, 0.4, 0.6, 0.8, 1.0}
	if len(fractions) != len(want) {
		t.Fatalf("progress fractions = %v, want %v", fractions, want)
	}
	for i := range want {
		if math.Abs(fractions[i]-want[i]) > 1e-9 {
			t.Fatalf("progress fractions = %v, want %v", fractions, want)
		}
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Fatalf("progress must not go backwards: %v", fractions)
		}
	}
}

func TestPurgeSession(t *testing.T) {
	store := newMemVectorStore()
	seedJobs(store, "sess-a", map[string]float64{"job_a": 0.1, "job_b": 0.2})
	seedJobs(store, "sess-b", map[string]float64{"job_c": 0.1})
	m := testMatcher(&fakeEmbedder{}, &fakeReasoner{}, store)

	deleted, err := m.PurgeSession(context.Background(), "sess-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d", deleted)
	}
	if len(store.points) != 1 {
		t.Fatal("other sessions must survive the purge")
	}

	// empty tag is a no-op
	deleted, err = m.PurgeSession(context.Background(), "")
	if err != nil || deleted != 0 {
		t.Fatalf("empty session purge should be a no-op, got (%d, %v)", deleted, err)
	}
}
