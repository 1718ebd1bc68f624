package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// fallbackEncoding - кодировка tiktoken для моделей, которых библиотека не знает.
const fallbackEncoding = "cl100k_base"

// openAIClient реализует Client для OpenAI-совместимых API (OpenRouter, vLLM, LM Studio).
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func newOpenAIClient(cfg Config, logger *zap.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is required for openai client")
	}
	clientConfig := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	l := logger.Named("OpenAIClient").With(zap.String("model", cfg.Model))
	l.Info("OpenAI клиент создан", zap.String("baseURL", clientConfig.BaseURL))

	return &openAIClient{
		client: openaigo.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: l,
	}, nil
}

func (c *openAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params GenerationParams) (string, UsageInfo, error) {
	usage := UsageInfo{}

	if strings.TrimSpace(systemPrompt) == "" && strings.TrimSpace(userInput) == "" {
		observeError(c.model, "error")
		return "", usage, fmt.Errorf("%w: пустой промт", ErrAIGenerationFailed)
	}

	var messages []openaigo.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt})
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, Content: userInput})
	}

	req := openaigo.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: intVal(params.MaxTokens),
	}
	if params.Temperature != nil {
		req.Temperature = float32(*params.Temperature)
	}
	if params.TopP != nil {
		req.TopP = float32(*params.TopP)
	}
	if params.JSONMode {
		req.ResponseFormat = &openaigo.ChatCompletionResponseFormat{Type: openaigo.ChatCompletionResponseFormatTypeJSONObject}
	}

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Ошибка от AI API", zap.String("userID", userID), zap.Duration("duration", duration), zap.Error(err))
		observeError(c.model, "error")
		return "", usage, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.logger.Warn("AI API вернул пустой ответ", zap.String("userID", userID), zap.Duration("duration", duration))
		observeError(c.model, "error_empty_response")
		return "", usage, fmt.Errorf("%w: получен пустой ответ", ErrAIGenerationFailed)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
		usage.TotalTokens = resp.Usage.TotalTokens
	} else {
		// Не все совместимые API возвращают usage
		usage = EstimateUsage(c.model, systemPrompt+userInput, text)
	}
	observeSuccess(c.model, duration, usage)

	c.logger.Debug("Ответ от AI API получен",
		zap.String("userID", userID),
		zap.Duration("duration", duration),
		zap.Int("totalTokens", usage.TotalTokens),
		zap.Bool("estimated", usage.Estimated),
	)
	return text, usage, nil
}

// EstimateUsage считает токены промта и ответа через tiktoken.
// При ошибке загрузки кодировки возвращает пустой UsageInfo.
func EstimateUsage(model, prompt, completion string) UsageInfo {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return UsageInfo{}
		}
	}
	p := len(tke.Encode(prompt, nil, nil))
	cpl := len(tke.Encode(completion, nil, nil))
	return UsageInfo{PromptTokens: p, CompletionTokens: cpl, TotalTokens: p + cpl, Estimated: true}
}
