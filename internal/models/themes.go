package models

// Sentiment - тональность поста/ключевого слова.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ForOutcome возвращает тональность ключевых слов для исхода сессии.
func ForOutcome(success bool) Sentiment {
	if success {
		return SentimentPositive
	}
	return SentimentNegative
}

// ThemeMap: тональность -> университет -> ключевые слова (нижний регистр, дубликаты допустимы).
type ThemeMap map[Sentiment]map[string][]string

// NewThemeMap возвращает пустую карту с обоими разделами.
func NewThemeMap() ThemeMap {
	return ThemeMap{
		SentimentPositive: {},
		SentimentNegative: {},
	}
}

// Keywords возвращает пул ключевых слов (nil, если пусто).
func (t ThemeMap) Keywords(sentiment Sentiment, institution string) []string {
	bucket, ok := t[sentiment]
	if !ok {
		return nil
	}
	return bucket[institution]
}

// Institutions возвращает университеты раздела positive.
func (t ThemeMap) Institutions() []string {
	bucket := t[SentimentPositive]
	out := make([]string, 0, len(bucket))
	for inst := range bucket {
		out = append(out, inst)
	}
	return out
}

// HasInstitution - известен ли университет в разделе positive.
func (t ThemeMap) HasInstitution(institution string) bool {
	_, ok := t[SentimentPositive][institution]
	return ok
}

// Counts возвращает число университетов в каждом разделе.
func (t ThemeMap) Counts() (positive, negative int) {
	return len(t[SentimentPositive]), len(t[SentimentNegative])
}

// ClassifiedPost - сырой пост с результатом классификации.
type ClassifiedPost struct {
	Text      string    `json:"text"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	Score     int       `json:"score"`
	Sentiment Sentiment `json:"sentiment"`
	Keywords  []string  `json:"keywords"`
	Reason    string    `json:"reason"`
}

// PostArchive: сабреддит -> тональность -> посты.
type PostArchive map[string]map[Sentiment][]ClassifiedPost
