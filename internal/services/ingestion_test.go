package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/models"
)

func testIngestion(embedder EmbeddingProvider, store VectorStore, chunkSize int) IngestionPipeline {
	return &ingestionPipeline{
		embedder:  embedder,
		store:     store,
		chunkSize: chunkSize,
		pacing:    0,
		logger:    zap.NewNop(),
	}
}

func jobFixture(id, description string) models.JobRecord {
	return models.JobRecord{JobID: id, Description: description}
}

// One blank record among three: exactly two vacancies persist, the blank one
// is dropped without failing the run.
func TestIngestJobsDropsBlankDescriptions(t *testing.T) {
	store := newMemVectorStore()
	embedder := &fakeEmbedder{}
	p := testIngestion(embedder, store, 30)

	jobs := []models.JobRecord{
		jobFixture("1", "Go developer"),
		jobFixture("2", "   "),
		jobFixture("3", "Data engineer"),
	}

	confirmations, err := p.IngestJobs(context.Background(), jobs, "sess-a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(confirmations) != 2 {
		t.Fatalf("expected 2 confirmations, got %d", len(confirmations))
	}
	if len(store.points) != 2 {
		t.Fatalf("expected 2 persisted points, got %d", len(store.points))
	}
	if _, ok := store.points["2"]; ok {
		t.Fatal("blank record must not be persisted")
	}
}

func TestIngestJobsAssignsPositionalIDs(t *testing.T) {
	store := newMemVectorStore()
	p := testIngestion(&fakeEmbedder{}, store, 30)

	jobs := []models.JobRecord{
		jobFixture("", "first"),
		jobFixture("custom", "second"),
		jobFixture("", "third"),
	}

	confirmations, err := p.IngestJobs(context.Background(), jobs, "sess-a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{confirmations[0].JobID, confirmations[1].JobID, confirmations[2].JobID}
	want := []string{"0", "custom", "2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("confirmation ids = %v, want %v", got, want)
		}
	}
}

func TestIngestJobsChunksAndReportsProgress(t *testing.T) {
	store := newMemVectorStore()
	embedder := &fakeEmbedder{}
	p := testIngestion(embedder, store, 2)

	jobs := make([]models.JobRecord, 5)
	for i := range jobs {
		jobs[i] = jobFixture(fmt.Sprintf("j%d", i), fmt.Sprintf("description %d", i))
	}

	var progress [][2]int
	confirmations, err := p.IngestJobs(context.Background(), jobs, "sess-a", func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(confirmations) != 5 {
		t.Fatalf("expected 5 confirmations, got %d", len(confirmations))
	}

	wantBatches := []int{2, 2, 1}
	if len(embedder.batchSizes) != len(wantBatches) {
		t.Fatalf("expected %d embed calls, got %d", len(wantBatches), len(embedder.batchSizes))
	}
	for i, size := range wantBatches {
		if embedder.batchSizes[i] != size {
			t.Fatalf("embed call %d: size %d, want %d", i, embedder.batchSizes[i], size)
		}
	}

	wantProgress := [][2]int{{2, 5}, {4, 5}, {5, 5}}
	if len(progress) != len(wantProgress) {
		t.Fatalf("progress calls = %v, want %v", progress, wantProgress)
	}
	for i := range wantProgress {
		if progress[i] != wantProgress[i] {
			t.Fatalf("progress calls = %v, want %v", progress, wantProgress)
		}
	}
}

func TestIngestJobsTagsSession(t *testing.T) {
	store := newMemVectorStore()
	p := testIngestion(&fakeEmbedder{}, store, 30)

	if _, err := p.IngestJobs(context.Background(), []models.JobRecord{jobFixture("1", "text")}, "sess-xyz", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	point := store.points["1"]
	if point.SessionID != "sess-xyz" {
		t.Fatalf("session tag = %q, want sess-xyz", point.SessionID)
	}
	if point.IngestedAt.IsZero() || time.Since(point.IngestedAt) > time.Minute {
		t.Fatalf("ingestion timestamp not set: %v", point.IngestedAt)
	}
}

// Re-ingesting an id with new text leaves exactly one record carrying the
// updated description.
func TestIngestJobsOverwritesSameID(t *testing.T) {
	store := newMemVectorStore()
	p := testIngestion(&fakeEmbedder{}, store, 30)
	ctx := context.Background()

	if _, err := p.IngestJobs(ctx, []models.JobRecord{jobFixture("1", "old text")}, "sess-a", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.IngestJobs(ctx, []models.JobRecord{jobFixture("1", "new text")}, "sess-a", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.points) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(store.points))
	}
	if store.points["1"].Description != "new text" {
		t.Fatalf("description = %q, want updated text", store.points["1"].Description)
	}
}

func TestIngestJobsEmbedFailureAbortsWithChunkInfo(t *testing.T) {
	store := newMemVectorStore()
	embedder := &fakeEmbedder{manyErr: errors.New("provider down"), failOnCall: 2}
	p := testIngestion(embedder, store, 2)

	jobs := []models.JobRecord{
		jobFixture("1", "a"), jobFixture("2", "b"),
		jobFixture("3", "c"), jobFixture("4", "d"),
	}

	confirmations, err := p.IngestJobs(context.Background(), jobs, "sess-a", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "chunk 2") {
		t.Fatalf("error must identify the failing chunk, got %q", err.Error())
	}
	// first chunk stays committed
	if len(confirmations) != 2 {
		t.Fatalf("expected 2 committed confirmations, got %d", len(confirmations))
	}
	if len(store.points) != 2 {
		t.Fatalf("expected 2 persisted points, got %d", len(store.points))
	}
}

func TestIngestJobsAllBlankIsNoop(t *testing.T) {
	store := newMemVectorStore()
	embedder := &fakeEmbedder{}
	p := testIngestion(embedder, store, 30)

	confirmations, err := p.IngestJobs(context.Background(), []models.JobRecord{jobFixture("1", ""), jobFixture("2", " ")}, "sess-a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(confirmations) != 0 || embedder.manyCalls != 0 || store.upsertSeen != 0 {
		t.Fatal("no provider or store calls expected for all-blank input")
	}
}
