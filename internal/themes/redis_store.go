package themes

import (
	"context"
	"errors"
	"fmt"

	"studyquest-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisKey - ключ документа тем в Redis.
const RedisKey = "studyquest:theme_keywords"

// RedisStore хранит документ тем одной строкой в Redis.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger.Named("ThemeRedisStore")}
}

func (s *RedisStore) Load(ctx context.Context) models.ThemeMap {
	raw, err := s.client.Get(ctx, RedisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.logger.Warn("Themes not found in redis, using empty themes", zap.String("key", RedisKey))
		} else {
			s.logger.Error("Failed to read themes from redis, using empty themes", zap.String("key", RedisKey), zap.Error(err))
		}
		return models.NewThemeMap()
	}
	themes, err := Parse(raw)
	if err != nil {
		s.logger.Warn("Themes in redis invalid, using empty themes", zap.Error(err))
		return models.NewThemeMap()
	}
	return themes
}

func (s *RedisStore) Save(ctx context.Context, themes models.ThemeMap) error {
	raw, err := Encode(themes)
	if err != nil {
		return fmt.Errorf("encode themes: %w", err)
	}
	if err := s.client.Set(ctx, RedisKey, raw, 0).Err(); err != nil {
		s.logger.Error("Failed to save themes to redis", zap.Error(err))
		return fmt.Errorf("save themes to redis: %w", err)
	}
	s.logger.Debug("Themes saved to redis", zap.Int("bytes", len(raw)))
	return nil
}
