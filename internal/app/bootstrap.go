// Package app собирает общие зависимости для cmd/server и cmd/scraper.
package app

import (
	"context"
	"fmt"
	"time"

	"studyquest-server/internal/ai"
	"studyquest-server/internal/config"
	"studyquest-server/internal/scraper"
	"studyquest-server/internal/themes"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SetupRedis подключается к Redis, если он настроен. Иначе возвращает nil.
func SetupRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.UseRedis() {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	return client, nil
}

// NewThemeStore выбирает хранилище тем по THEME_STORE.
func NewThemeStore(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (themes.Store, error) {
	switch cfg.ThemeStore {
	case config.ThemeStoreRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("THEME_STORE=redis requires REDIS_ADDR")
		}
		return themes.NewRedisStore(redisClient, logger), nil
	default:
		return themes.NewFileStore(cfg.DataDir, logger), nil
	}
}

// NewGenerator создает AI-клиент для генерации сегментов истории.
func NewGenerator(cfg *config.Config, logger *zap.Logger) (ai.Client, error) {
	return ai.NewClient(aiConfig(cfg, cfg.AIModel), logger)
}

// NewScraper собирает скрейпер: Reddit, классификатор на отдельной модели, хранилище тем.
func NewScraper(cfg *config.Config, store themes.Store, subreddits []string, limit int, logger *zap.Logger) (*scraper.Scraper, error) {
	classifierClient, err := ai.NewClient(aiConfig(cfg, cfg.AIClassifierModel), logger.Named("classifier"))
	if err != nil {
		return nil, fmt.Errorf("create classifier client: %w", err)
	}
	source := scraper.NewRedditClient(scraper.RedditConfig{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.RedditUserAgent,
		Timeout:      cfg.RedditTimeout,
	}, logger)

	if len(subreddits) == 0 {
		subreddits = cfg.GetSubreddits()
	}
	if limit <= 0 {
		limit = cfg.RedditPostLimit
	}
	return scraper.New(source, scraper.NewClassifier(classifierClient, logger), store, cfg.DataDir, subreddits, limit, logger), nil
}

func aiConfig(cfg *config.Config, model string) ai.Config {
	return ai.Config{
		Type:    cfg.AIClientType,
		BaseURL: cfg.AIBaseURL,
		Model:   model,
		APIKey:  cfg.AIAPIKey,
		Timeout: cfg.AITimeout,
	}
}
