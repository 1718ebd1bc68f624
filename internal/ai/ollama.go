package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// ollamaClient реализует Client через нативный API Ollama.
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg Config, logger *zap.Logger) (Client, error) {
	// api.NewClient требует URL без суффикса /v1
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", baseURL, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client := api.NewClient(parsedURL, &http.Client{Timeout: timeout})

	l := logger.Named("OllamaClient").With(zap.String("model", cfg.Model))
	l.Info("Ollama клиент создан", zap.String("baseURL", baseURL), zap.Duration("timeout", timeout))

	return &ollamaClient{client: client, model: cfg.Model, timeout: timeout, logger: l}, nil
}

func (c *ollamaClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error) {
	usage := UsageInfo{}

	if strings.TrimSpace(systemPrompt) == "" && strings.TrimSpace(userInput) == "" {
		observeError(c.model, "error")
		return "", usage, fmt.Errorf("%w: пустой промт", ErrAIGenerationFailed)
	}

	var messages []api.Message
	if systemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemPrompt})
	}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}

	options := map[string]interface{}{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if n := intVal(params.MaxTokens); n > 0 {
		options["num_predict"] = n
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}
	if params.JSONMode {
		req.Format = json.RawMessage(`"json"`)
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	c.logger.Debug("Отправка запроса к Ollama",
		zap.String("userID", userID),
		zap.Int("systemPromptBytes", len(systemPrompt)),
		zap.Int("userInputBytes", len(userInput)),
		zap.Bool("jsonMode", params.JSONMode),
	)

	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("Таймаут запроса к Ollama", zap.String("userID", userID), zap.Duration("duration", duration), zap.Error(err))
			observeError(c.model, "timeout")
		} else {
			c.logger.Error("Ошибка от Ollama API", zap.String("userID", userID), zap.Duration("duration", duration), zap.Error(err))
			observeError(c.model, "error")
		}
		return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		c.logger.Warn("Ollama вернул пустой ответ", zap.String("userID", userID), zap.Duration("duration", duration))
		observeError(c.model, "error_empty_response")
		return "", usage, fmt.Errorf("%w: получен пустой ответ", ErrAIGenerationFailed)
	}

	usage.PromptTokens = resp.PromptEvalCount
	usage.CompletionTokens = resp.EvalCount
	usage.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	observeSuccess(c.model, duration, usage)

	c.logger.Debug("Ответ от Ollama получен",
		zap.String("userID", userID),
		zap.Duration("duration", duration),
		zap.Int("chars", len(text)),
		zap.Int("totalTokens", usage.TotalTokens),
	)
	return text, usage, nil
}
