package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"studyquest-server/internal/models"
)

var _ StoryRepository = (*MemoryStoryRepository)(nil)

// MemoryStoryRepository держит сериализованные истории в памяти процесса.
// Хранятся байты, чтобы вызывающий не мог изменить сохраненное состояние по указателю.
type MemoryStoryRepository struct {
	mu    sync.RWMutex
	data  map[string][]byte
	saves int
}

func NewMemoryStoryRepository() *MemoryStoryRepository {
	return &MemoryStoryRepository{data: make(map[string][]byte)}
}

func (r *MemoryStoryRepository) Get(ctx context.Context, userID string) (*models.StoryState, error) {
	r.mu.RLock()
	raw, ok := r.data[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	return models.ParseStoryState(raw)
}

func (r *MemoryStoryRepository) Save(ctx context.Context, userID string, state *models.StoryState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal story %s: %w", userID, err)
	}
	r.mu.Lock()
	r.data[userID] = raw
	r.saves++
	r.mu.Unlock()
	return nil
}

func (r *MemoryStoryRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[userID]; !ok {
		return models.ErrNotFound
	}
	delete(r.data, userID)
	return nil
}

// PutRaw кладет произвольный документ (для проверки обработки поврежденных записей).
func (r *MemoryStoryRepository) PutRaw(userID string, raw []byte) {
	r.mu.Lock()
	r.data[userID] = raw
	r.mu.Unlock()
}

// SaveCount - число успешных Save.
func (r *MemoryStoryRepository) SaveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
