package repository

import (
	"context"

	"studyquest-server/internal/models"
)

// StoryRepository - хранилище состояний историй по user_id.
//
// Get возвращает models.ErrNotFound, если записи нет, и models.ErrCorruptState,
// если запись не проходит разбор. Остальные ошибки означают недоступность хранилища.
type StoryRepository interface {
	Get(ctx context.Context, userID string) (*models.StoryState, error)
	Save(ctx context.Context, userID string, state *models.StoryState) error
	Delete(ctx context.Context, userID string) error
}
