package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/gsenseless/tg-job-RAG/internal/config"
	"github.com/gsenseless/tg-job-RAG/internal/metrics"
	"github.com/gsenseless/tg-job-RAG/internal/models"
	"github.com/gsenseless/tg-job-RAG/internal/retry"
)

// DefaultReasoningPrompt is used when a match request supplies no prompt.
const DefaultReasoningPrompt = "List skills which candidate might lack for this job (if any). And list matching skills."

// EmbeddingProvider turns text into fixed-dimension vectors.
type EmbeddingProvider interface {
	// EmbedOne embeds a single non-empty text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	// EmbedMany embeds texts in provider-sized batches. The result has the
	// same length and order as the input regardless of internal chunking.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// ReasoningProvider generates a free-text rationale for a resume/job pair.
type ReasoningProvider interface {
	Explain(ctx context.Context, resumeText, jobText, promptTemplate string) (string, error)
}

type GeminiService interface {
	EmbeddingProvider
	ReasoningProvider
}

type geminiService struct {
	client         *genai.Client
	embedModel     string
	reasoningModel string
	maxBatch       int
	truncateAt     int
	retryPolicy    retry.Policy
	logger         *zap.Logger

	// raw provider calls, replaced by fakes in tests
	embedBatch func(ctx context.Context, texts []string) ([][]float32, error)
	generate   func(ctx context.Context, prompt string) (string, error)
}

func NewGeminiService(ctx context.Context, cfg *config.Config, log *zap.Logger) (GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	g := &geminiService{
		client:         client,
		embedModel:     cfg.Gemini.EmbedModel,
		reasoningModel: cfg.Gemini.ReasoningModel,
		maxBatch:       cfg.Pipeline.EmbedBatchMax,
		truncateAt:     cfg.Pipeline.PromptTruncate,
		retryPolicy: retry.Policy{
			MaxAttempts: cfg.Retry.EmbedMaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			Retryable:   isRateLimited,
		},
		logger: log,
	}
	g.embedBatch = g.embedBatchAPI
	g.generate = g.generateAPI

	return g, nil
}

// EmbedOne implements EmbeddingProvider.
func (g *geminiService) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed: %w", models.ErrEmptyText)
	}

	vectors, err := g.embedWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany implements EmbeddingProvider. Input is split into chunks no
// larger than the provider batch ceiling; chunking is invisible to the caller.
func (g *geminiService) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.maxBatch {
		end := start + g.maxBatch
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := g.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch at offset %d: %w", start, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (g *geminiService) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := retry.Do(ctx, g.retryPolicy, func() error {
		var callErr error
		vectors, callErr = g.embedBatch(ctx, texts)
		if callErr != nil && isRateLimited(callErr) {
			g.logger.Warn("embedding provider rate limited, backing off",
				zap.Int("batch_size", len(texts)), zap.Error(callErr))
		}
		return callErr
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return nil, fmt.Errorf("embedding generation exhausted: %w", err)
		}
		return nil, err
	}
	return vectors, nil
}

func (g *geminiService) embedBatchAPI(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	start := time.Now()
	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, nil)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(g.embedModel, "error").Inc()
		return nil, classifyProviderError("generate embeddings", err)
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(g.embedModel, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(g.embedModel).Observe(time.Since(start).Seconds())

	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: %w", models.ErrProvider)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Explain implements ReasoningProvider. Resume and job texts are truncated to
// a bounded prefix before prompt assembly; provider failures propagate.
func (g *geminiService) Explain(ctx context.Context, resumeText, jobText, promptTemplate string) (string, error) {
	if promptTemplate == "" {
		promptTemplate = DefaultReasoningPrompt
	}

	prompt := fmt.Sprintf("%s\nResume:\n%s\n\nJob Description:\n%s\n",
		promptTemplate,
		truncateRunes(resumeText, g.truncateAt),
		truncateRunes(jobText, g.truncateAt),
	)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		metrics.ReasoningRequestsTotal.WithLabelValues(g.reasoningModel, "error").Inc()
		return "", fmt.Errorf("reasoning generation failed: %w", err)
	}
	metrics.ReasoningRequestsTotal.WithLabelValues(g.reasoningModel, "success").Inc()
	return text, nil
}

func (g *geminiService) generateAPI(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.reasoningModel, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyProviderError("generate content", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty generation response: %w", models.ErrProvider)
	}
	return text, nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// classifyProviderError wraps the provider error with the matching sentinel,
// based on the structured status code rather than the message text.
func classifyProviderError(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code == http.StatusServiceUnavailable {
			return fmt.Errorf("%s: %w: %w", op, models.ErrRateLimited, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrProvider, err)
}

func isRateLimited(err error) bool {
	return errors.Is(err, models.ErrRateLimited)
}
