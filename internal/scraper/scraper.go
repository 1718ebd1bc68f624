package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"studyquest-server/internal/fsutil"
	"studyquest-server/internal/models"
	"studyquest-server/internal/themes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// PostsFileName - сырые классифицированные посты.
const PostsFileName = "university_posts.json"

// DefaultSubreddits - сабреддиты университетов по умолчанию.
var DefaultSubreddits = []string{"uwaterloo", "UofT", "mcgill", "UBC", "queensuniversity"}

var (
	scrapedPostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyquest_scraper_posts_total",
			Help: "Classified posts by subreddit and sentiment.",
		},
		[]string{"subreddit", "sentiment"},
	)
	scrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "studyquest_scraper_run_duration_seconds",
		Help:    "Duration of full theme refresh runs.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// Result - итог обновления тем.
type Result struct {
	Themes   models.ThemeMap
	Posts    models.PostArchive
	Positive int
	Negative int
	Failed   []string
}

// Message - текст ответа /init.
func (r *Result) Message() string {
	return fmt.Sprintf("Collected %d positive and %d negative themes", r.Positive, r.Negative)
}

// Scraper собирает посты, классифицирует их и обновляет карту тем.
type Scraper struct {
	source     PostSource
	classifier *Classifier
	store      themes.Store
	dataDir    string
	subreddits []string
	limit      int
	logger     *zap.Logger
}

func New(source PostSource, classifier *Classifier, store themes.Store, dataDir string, subreddits []string, limit int, logger *zap.Logger) *Scraper {
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}
	if limit <= 0 {
		limit = 50
	}
	return &Scraper{
		source:     source,
		classifier: classifier,
		store:      store,
		dataDir:    dataDir,
		subreddits: subreddits,
		limit:      limit,
		logger:     logger.Named("Scraper"),
	}
}

// Refresh выполняет полный цикл: листинги, классификация, запись тем и архива постов.
// Ошибка отдельного сабреддита пропускается; если упали все - ErrScrapeFailed.
func (s *Scraper) Refresh(ctx context.Context) (*Result, error) {
	started := time.Now()
	defer func() { scrapeDuration.Observe(time.Since(started).Seconds()) }()

	themeMap := models.NewThemeMap()
	archive := make(models.PostArchive, len(s.subreddits))
	var failed []string

	for _, sub := range s.subreddits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		archive[sub] = map[models.Sentiment][]models.ClassifiedPost{
			models.SentimentPositive: {},
			models.SentimentNegative: {},
		}

		log := s.logger.With(zap.String("subreddit", sub))
		log.Info("Сбор постов")
		posts, err := s.source.Hot(ctx, sub, s.limit)
		if err != nil {
			log.Error("Ошибка сбора сабреддита", zap.Error(err))
			failed = append(failed, sub)
			continue
		}

		for _, p := range posts {
			c := s.classifier.Classify(ctx, p.Title+" "+p.SelfText)
			scrapedPostsTotal.WithLabelValues(sub, string(c.Sentiment)).Inc()
			if c.Sentiment == models.SentimentNeutral {
				log.Debug("Пост пропущен", zap.String("title", p.Title))
				continue
			}

			themeMap[c.Sentiment][sub] = append(themeMap[c.Sentiment][sub], c.Keywords...)
			archive[sub][c.Sentiment] = append(archive[sub][c.Sentiment], models.ClassifiedPost{
				Text:      p.Title,
				Content:   p.SelfText,
				URL:       p.URL,
				Score:     p.Score,
				Sentiment: c.Sentiment,
				Keywords:  c.Keywords,
				Reason:    c.Reason,
			})
		}
	}

	if len(failed) == len(s.subreddits) {
		return nil, fmt.Errorf("%w: all %d subreddits failed", models.ErrScrapeFailed, len(failed))
	}

	if err := s.writeArchive(archive); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, themeMap); err != nil {
		return nil, fmt.Errorf("save themes: %w", err)
	}

	pos, neg := themeMap.Counts()
	s.logger.Info("Темы обновлены",
		zap.Int("positive", pos),
		zap.Int("negative", neg),
		zap.Strings("failed", failed),
		zap.Duration("took", time.Since(started)))

	return &Result{Themes: themeMap, Posts: archive, Positive: pos, Negative: neg, Failed: failed}, nil
}

func (s *Scraper) writeArchive(archive models.PostArchive) error {
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(s.dataDir, PostsFileName), data); err != nil {
		return fmt.Errorf("write posts: %w", err)
	}
	return nil
}
