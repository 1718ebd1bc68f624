package themes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"studyquest-server/internal/models"
)

// ErrInvalidThemes - документ тем не содержит разделов positive/negative или не разбирается.
var ErrInvalidThemes = errors.New("invalid theme document")

// Store - источник карты ключевых слов по университетам.
type Store interface {
	// Load никогда не возвращает ошибку: при любой проблеме отдается пустая карта.
	Load(ctx context.Context) models.ThemeMap
	// Save полностью заменяет карту (используется только скрейпером).
	Save(ctx context.Context, themes models.ThemeMap) error
}

// Parse разбирает JSON-документ тем. Оба раздела обязательны.
func Parse(raw []byte) (models.ThemeMap, error) {
	var doc map[string]map[string][]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThemes, err)
	}
	pos, okPos := doc[string(models.SentimentPositive)]
	neg, okNeg := doc[string(models.SentimentNegative)]
	if !okPos || !okNeg {
		return nil, fmt.Errorf("%w: missing positive/negative section", ErrInvalidThemes)
	}

	out := models.NewThemeMap()
	for inst, kws := range pos {
		out[models.SentimentPositive][inst] = kws
	}
	for inst, kws := range neg {
		out[models.SentimentNegative][inst] = kws
	}
	return out, nil
}

// Encode сериализует карту с отступами, как ее пишет скрейпер.
func Encode(themes models.ThemeMap) ([]byte, error) {
	if themes == nil {
		themes = models.NewThemeMap()
	}
	doc := map[string]map[string][]string{
		string(models.SentimentPositive): nonNil(themes[models.SentimentPositive]),
		string(models.SentimentNegative): nonNil(themes[models.SentimentNegative]),
	}
	return json.MarshalIndent(doc, "", "  ")
}

func nonNil(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}
