package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gsenseless/tg-job-RAG/internal/config"
	"github.com/gsenseless/tg-job-RAG/internal/models"
	"github.com/gsenseless/tg-job-RAG/internal/retry"
)

// VectorStore persists vacancy embeddings and answers nearest-neighbor
// queries by cosine distance, optionally scoped to one session tag.
type VectorStore interface {
	InitCollection(ctx context.Context) error
	// UpsertBatch writes points in sub-batches no larger than the store cap.
	// Each sub-batch commits atomically; once committed it stays durable even
	// if a later sub-batch fails, which is reported as a PartialBatchError.
	UpsertBatch(ctx context.Context, points []models.VacancyPoint) error
	// FindNearest returns at most k matches ordered by ascending cosine
	// distance. An empty sessionID searches the whole collection.
	FindNearest(ctx context.Context, vector []float32, k int, sessionID string) ([]models.VacancyMatch, error)
	// DeleteBySession removes every point carrying the session tag in bounded
	// batches and returns the number of deleted points. Zero matches is a no-op.
	DeleteBySession(ctx context.Context, sessionID string) (int, error)
	// DeleteOlderThan removes points ingested before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type qdrantService struct {
	client      *qdrant.Client
	collection  string
	vectorSize  int
	subBatchMax int
	retryPolicy retry.Policy
	logger      *zap.Logger

	// raw sub-batch write, replaced by fakes in tests
	commit func(ctx context.Context, structs []*qdrant.PointStruct) error
}

func NewQdrantService(cfg *config.Config, log *zap.Logger) (VectorStore, error) {
	parsed, err := url.Parse(cfg.Qdrant.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port, not the REST one
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	q := &qdrantService{
		client:      client,
		collection:  cfg.Qdrant.Collection,
		vectorSize:  cfg.Qdrant.VectorSize,
		subBatchMax: cfg.Pipeline.StoreBatchMax,
		retryPolicy: retry.Policy{
			MaxAttempts: cfg.Retry.StoreMaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			Retryable:   isTransientStoreError,
		},
		logger: log,
	}
	q.commit = q.commitSubBatch

	return q, nil
}

// InitCollection implements VectorStore.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.logger.Info("qdrant collection created", zap.String("collection", q.collection))
	return nil
}

// UpsertBatch implements VectorStore.
func (q *qdrantService) UpsertBatch(ctx context.Context, points []models.VacancyPoint) error {
	for _, p := range points {
		if len(p.Embedding) != q.vectorSize {
			return fmt.Errorf("point %s has dimension %d, store expects %d: %w",
				p.JobID, len(p.Embedding), q.vectorSize, models.ErrDimensionMismatch)
		}
	}

	var committed []string
	for start := 0; start < len(points); start += q.subBatchMax {
		end := start + q.subBatchMax
		if end > len(points) {
			end = len(points)
		}
		sub := points[start:end]

		structs := make([]*qdrant.PointStruct, len(sub))
		for i, p := range sub {
			structs[i] = vacancyPointStruct(p)
		}

		err := retry.Do(ctx, q.retryPolicy, func() error {
			return q.commit(ctx, structs)
		})
		if err != nil {
			unconfirmed := make([]string, 0, len(points)-start)
			for _, p := range points[start:] {
				unconfirmed = append(unconfirmed, p.JobID)
			}
			if len(committed) == 0 {
				return fmt.Errorf("upsert batch: %w", err)
			}
			return &models.PartialBatchError{
				CommittedIDs:   committed,
				UnconfirmedIDs: unconfirmed,
				Err:            err,
			}
		}

		for _, p := range sub {
			committed = append(committed, p.JobID)
		}
	}
	return nil
}

func (q *qdrantService) commitSubBatch(ctx context.Context, structs []*qdrant.PointStruct) error {
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         structs,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		if isTransientStoreError(err) {
			q.logger.Warn("qdrant contention, retrying sub-batch",
				zap.Int("size", len(structs)), zap.Error(err))
		}
		return fmt.Errorf("failed to upsert sub-batch: %w", err)
	}
	return nil
}

// FindNearest implements VectorStore.
func (q *qdrantService) FindNearest(ctx context.Context, vector []float32, k int, sessionID string) ([]models.VacancyMatch, error) {
	if len(vector) != q.vectorSize {
		return nil, fmt.Errorf("query vector has dimension %d, store expects %d: %w",
			len(vector), q.vectorSize, models.ErrDimensionMismatch)
	}

	var filter *qdrant.Filter
	if sessionID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("session_id", sessionID),
			},
		}
	}

	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	// Qdrant returns descending cosine similarity, so ascending distance
	// order is already in place.
	matches := make([]models.VacancyMatch, 0, len(scored))
	for _, point := range scored {
		m := models.VacancyMatch{
			Distance: 1 - float64(point.Score),
		}
		if v, ok := point.Payload["job_id"]; ok {
			m.JobID = v.GetStringValue()
		}
		if v, ok := point.Payload["description"]; ok {
			m.Description = v.GetStringValue()
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// DeleteBySession implements VectorStore.
func (q *qdrantService) DeleteBySession(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, nil
	}
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("session_id", sessionID),
		},
	}
	return q.deleteByFilter(ctx, filter)
}

// DeleteOlderThan implements VectorStore.
func (q *qdrantService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewRange("ingested_at", &qdrant.Range{
				Lt: qdrant.PtrOf(float64(cutoff.Unix())),
			}),
		},
	}
	return q.deleteByFilter(ctx, filter)
}

// deleteByFilter scrolls matching point ids and deletes them in commit
// batches no larger than the store cap.
func (q *qdrantService) deleteByFilter(ctx context.Context, filter *qdrant.Filter) (int, error) {
	deleted := 0
	for {
		found, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.collection,
			Filter:         filter,
			Limit:          qdrant.PtrOf(uint32(q.subBatchMax)),
			WithPayload:    qdrant.NewWithPayload(false),
			WithVectors:    qdrant.NewWithVectors(false),
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to scroll points: %w", err)
		}
		if len(found) == 0 {
			return deleted, nil
		}

		ids := make([]*qdrant.PointId, len(found))
		for i, p := range found {
			ids[i] = p.Id
		}

		_, err = q.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: q.collection,
			Points:         qdrant.NewPointsSelector(ids...),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete points: %w", err)
		}
		deleted += len(ids)
	}
}

// vacancyPointStruct builds the stored point. The point id is a UUIDv5 of the
// job id so re-ingesting the same job overwrites instead of duplicating.
func vacancyPointStruct(p models.VacancyPoint) *qdrant.PointStruct {
	payload := map[string]any{
		"job_id":      p.JobID,
		"description": p.Description,
		"session_id":  p.SessionID,
		"ingested_at": float64(p.IngestedAt.Unix()),
	}
	if p.Date != nil {
		payload["date"] = p.Date.Format(time.RFC3339)
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.JobID)).String()),
		Vectors: qdrant.NewVectors(p.Embedding...),
		Payload: qdrant.NewValueMap(payload),
	}
}

// isTransientStoreError treats gRPC contention/availability codes as
// retryable; everything else surfaces immediately.
func isTransientStoreError(err error) bool {
	s, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch s.Code() {
	case codes.ResourceExhausted, codes.Aborted, codes.Unavailable:
		return true
	default:
		return false
	}
}
