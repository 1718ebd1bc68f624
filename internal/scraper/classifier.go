package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"studyquest-server/internal/ai"
	"studyquest-server/internal/models"

	"go.uber.org/zap"
)

const (
	classifierTemperature = 0.2
	classifierInputLimit  = 1000
	classifierUserID      = "scraper"
)

// Classification - результат анализа поста.
type Classification struct {
	Sentiment models.Sentiment `json:"sentiment"`
	Keywords  []string         `json:"keywords"`
	Reason    string           `json:"reason"`
}

// Neutral - исход классификации при ошибке. Такие посты пропускаются.
func Neutral() Classification {
	return Classification{Sentiment: models.SentimentNeutral, Keywords: []string{}, Reason: "Analysis failed"}
}

// Classifier определяет тональность поста и ключевые слова, на которых она держится.
type Classifier struct {
	client ai.Client
	logger *zap.Logger
}

func NewClassifier(client ai.Client, logger *zap.Logger) *Classifier {
	return &Classifier{client: client, logger: logger.Named("Classifier")}
}

func buildClassifierPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze this university-related post,:\n\n")
	b.WriteString(truncate(text, classifierInputLimit))
	b.WriteString("\n\nExtract the sentiment and the keywords that are the main reason for that sentiment.\n")
	b.WriteString("Respond with JSON format:\n")
	b.WriteString("{\n")
	b.WriteString("    \"sentiment\": \"positive\" or \"negative\",\n")
	b.WriteString("    \"keywords\": [\"list\", \"of\", \"theme\", \"words\"],\n")
	b.WriteString("    \"reason\": \"brief explanation\"\n")
	b.WriteString("}")
	return b.String()
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// Classify никогда не возвращает ошибку: любая проблема дает Neutral.
func (c *Classifier) Classify(ctx context.Context, text string) Classification {
	params := ai.GenerationParams{
		Temperature: ai.Float64(classifierTemperature),
		JSONMode:    true,
	}
	raw, _, err := c.client.GenerateText(ctx, classifierUserID, "", buildClassifierPrompt(text), params)
	if err != nil {
		c.logger.Warn("Классификация не удалась", zap.Error(err))
		return Neutral()
	}

	result, err := parseClassification(raw)
	if err != nil {
		c.logger.Warn("Некорректный ответ классификатора", zap.Error(err), zap.String("raw", truncate(raw, 200)))
		return Neutral()
	}
	return result
}

// parseClassification вырезает первый JSON-объект из ответа модели.
func parseClassification(raw string) (Classification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Classification{}, fmt.Errorf("no JSON object in response")
	}

	var out Classification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return Classification{}, fmt.Errorf("decode classification: %w", err)
	}

	out.Sentiment = models.Sentiment(strings.ToLower(strings.TrimSpace(string(out.Sentiment))))
	if out.Sentiment != models.SentimentPositive && out.Sentiment != models.SentimentNegative {
		out.Sentiment = models.SentimentNeutral
	}

	keywords := make([]string, 0, len(out.Keywords))
	for _, kw := range out.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	out.Keywords = keywords
	return out, nil
}
