// Bulk-ingests a chat-export JSON file into the vector store without going
// through the HTTP API.
//
// Usage: go run scripts/ingest_jobs.go <export.json> [session-id]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/config"
	"github.com/gsenseless/tg-job-RAG/internal/logger"
	"github.com/gsenseless/tg-job-RAG/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ingest_jobs <export.json> [session-id]")
		os.Exit(1)
	}
	path := os.Args[1]

	sessionID := uuid.New().String()
	if len(os.Args) > 2 {
		sessionID = os.Args[2]
	}

	cfg := config.Load()
	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	geminiService, err := services.NewGeminiService(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize gemini", zap.Error(err))
	}

	vectorStore, err := services.NewQdrantService(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize qdrant", zap.Error(err))
	}
	if err := vectorStore.InitCollection(ctx); err != nil {
		log.Fatal("failed to initialize qdrant collection", zap.Error(err))
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatal("failed to open export file", zap.String("path", path), zap.Error(err))
	}
	defer f.Close()

	jobs, err := services.ParseJobsExport(f)
	if err != nil {
		log.Fatal("failed to parse export", zap.Error(err))
	}
	log.Info("parsed export", zap.String("path", path), zap.Int("records", len(jobs)))

	ingestion := services.NewIngestionPipeline(geminiService, vectorStore, cfg, log)
	confirmations, err := ingestion.IngestJobs(ctx, jobs, sessionID, func(processed, total int) {
		log.Info("ingestion progress", zap.Int("processed", processed), zap.Int("total", total))
	})
	if err != nil {
		log.Fatal("ingestion failed",
			zap.Int("committed", len(confirmations)), zap.Error(err))
	}

	log.Info("ingestion complete",
		zap.String("session_id", sessionID), zap.Int("persisted", len(confirmations)))
}
