package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// ErrAIGenerationFailed - ошибка при генерации текста AI.
var ErrAIGenerationFailed = errors.New("ai text generation failed")

// GenerationParams - параметры генерации. Указатели отличают 0 от "не задано".
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	// JSONMode просит модель вернуть один JSON-объект.
	JSONMode bool
}

// Float64 и Int - хелперы для заполнения GenerationParams.
func Float64(v float64) *float64 { return &v }
func Int(v int) *int             { return &v }

// UsageInfo содержит информацию об использовании токенов.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool // true, если токены посчитаны tiktoken, а не бэкендом
}

// Client - интерфейс генератора текста.
type Client interface {
	// GenerateText генерирует текст по системному промту и вводу пользователя.
	GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error)
}

// Config - настройки конкретного клиента.
type Config struct {
	Type    string // ollama | openai
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// NewClient создает клиент по типу.
func NewClient(cfg Config, logger *zap.Logger) (Client, error) {
	switch cfg.Type {
	case "ollama", "":
		return newOllamaClient(cfg, logger)
	case "openai":
		return newOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type %q", cfg.Type)
	}
}

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyquest_ai_requests_total",
			Help: "Total number of requests to the AI backend.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyquest_ai_request_duration_seconds",
			Help:    "Histogram of AI request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyquest_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(50, 50, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyquest_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(25, 25, 20),
		},
		[]string{"model"},
	)
)

func observeSuccess(model string, duration time.Duration, usage UsageInfo) {
	aiRequestsTotal.With(prometheus.Labels{"model": model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": model}).Observe(duration.Seconds())
	if usage.TotalTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.CompletionTokens))
	}
}

func observeError(model, status string) {
	aiRequestsTotal.With(prometheus.Labels{"model": model, "status": status}).Inc()
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
