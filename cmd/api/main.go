package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gsenseless/tg-job-RAG/internal/config"
	"github.com/gsenseless/tg-job-RAG/internal/handlers"
	"github.com/gsenseless/tg-job-RAG/internal/logger"
	"github.com/gsenseless/tg-job-RAG/internal/repositories"
	"github.com/gsenseless/tg-job-RAG/internal/services"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	redisClient, err := config.InitRedis(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize redis", zap.Error(err))
	}

	eventRepo := repositories.NewEventRepository(db)
	resumeRepo := repositories.NewResumeRepository(redisClient)

	uploads := services.NewUploadStore(cfg.Storage.UploadPath)
	if err := uploads.EnsureDir(); err != nil {
		log.Fatal("failed to create upload staging directory", zap.Error(err))
	}
	extractor := services.NewResumeExtractor()

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

	resumeService := services.NewResumeService(extractor, geminiService, resumeRepo, log)
	ingestion := services.NewIngestionPipeline(geminiService, vectorStore, cfg, log)
	matcher := services.NewMatcherService(geminiService, geminiService, vectorStore, cfg, log)

	sweeper := services.NewSessionSweeper(vectorStore, cfg, log)
	if err := sweeper.Start(); err != nil {
		log.Fatal("failed to start session sweeper", zap.Error(err))
	}

	resumeHandler := handlers.NewResumeHandler(resumeService, uploads, cfg.Storage.MaxFileSize, log)
	jobsHandler := handlers.NewJobsHandler(ingestion, cfg.Storage.MaxFileSize, log)
	matchHandler := handlers.NewMatchHandler(resumeService, matcher, eventRepo, log)
	feedbackHandler := handlers.NewFeedbackHandler(eventRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      "Job-Resume Matcher API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // match rounds call the LLM per result
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/resume", resumeHandler.HandleUpload)
	api.Post("/jobs", jobsHandler.HandleUpload)
	api.Post("/match", matchHandler.HandleMatch)
	api.Post("/feedback", feedbackHandler.HandleFeedback)
	api.Get("/stats", feedbackHandler.HandleStats)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		sweeper.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
