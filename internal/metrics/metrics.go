// Package metrics exposes Prometheus instrumentation for the provider
// adapters and the matching pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmbeddingRequestsTotal counts embedding API calls by model and outcome.
	EmbeddingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total embedding API requests.",
		},
		[]string{"model", "status"},
	)

	// EmbeddingRequestDuration observes embedding call latency by model.
	EmbeddingRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Embedding API request duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// ReasoningRequestsTotal counts reasoning (generation) API calls.
	ReasoningRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reasoning_requests_total",
			Help: "Total reasoning API requests.",
		},
		[]string{"model", "status"},
	)

	// MatchRoundsTotal counts completed match rounds by outcome.
	MatchRoundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_rounds_total",
			Help: "Total resume match rounds.",
		},
		[]string{"status"},
	)

	// VacanciesIngestedTotal counts vacancy records persisted to the vector store.
	VacanciesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vacancies_ingested_total",
			Help: "Total vacancy records written to the vector store.",
		},
	)
)
