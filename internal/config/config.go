package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Qdrant   QdrantConfig
	Gemini   GeminiConfig
	Pipeline PipelineConfig
	Retry    RetryConfig
	Session  SessionConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize int
}

type GeminiConfig struct {
	APIKey         string
	EmbedModel     string
	ReasoningModel string
}

// PipelineConfig bounds the batching behavior of ingestion and matching.
// ChunkSize must not exceed EmbedBatchMax or StoreBatchMax.
type PipelineConfig struct {
	ChunkSize      int           // job records embedded and persisted per chunk
	EmbedBatchMax  int           // provider-imposed texts-per-call ceiling
	StoreBatchMax  int           // store-imposed writes-per-commit ceiling
	PacingDelay    time.Duration // pause between ingestion chunks
	PromptTruncate int           // max chars of resume/job text in a reasoning prompt
	DefaultTopK    int
}

type RetryConfig struct {
	EmbedMaxAttempts int
	StoreMaxAttempts int
	BaseDelay        time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	SweepSchedule string // cron spec for the stale-session sweeper
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

func Load() *Config {
	// Missing .env is fine, plain environment variables still apply.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "3000"),
			Env:      getEnv("ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "job_matcher"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "vacancies"),
			VectorSize: getEnvAsInt("QDRANT_VECTOR_SIZE", 768),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			EmbedModel:     getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			ReasoningModel: getEnv("GEMINI_REASONING_MODEL", "gemini-2.5-flash"),
		},
		Pipeline: PipelineConfig{
			ChunkSize:      getEnvAsPositiveInt("INGEST_CHUNK_SIZE", 30),
			EmbedBatchMax:  getEnvAsPositiveInt("EMBED_BATCH_MAX", 250),
			StoreBatchMax:  getEnvAsPositiveInt("STORE_BATCH_MAX", 500),
			PacingDelay:    getEnvAsDuration("INGEST_PACING_DELAY", "1s"),
			PromptTruncate: getEnvAsInt("PROMPT_TRUNCATE", 3000),
			DefaultTopK:    getEnvAsPositiveInt("DEFAULT_TOP_K", 3),
		},
		Retry: RetryConfig{
			EmbedMaxAttempts: getEnvAsPositiveInt("EMBED_RETRY_MAX_ATTEMPTS", 5),
			StoreMaxAttempts: getEnvAsPositiveInt("STORE_RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:        getEnvAsDuration("RETRY_BASE_DELAY", "2s"),
		},
		Session: SessionConfig{
			TTL:           getEnvAsDuration("SESSION_TTL", "24h"),
			SweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@hourly"),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsPositiveInt falls back to the default for values below 1. Batch
// sizes and attempt counts drive loop strides, so zero is never usable.
func getEnvAsPositiveInt(key string, defaultValue int) int {
	if value := getEnvAsInt(key, defaultValue); value >= 1 {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
