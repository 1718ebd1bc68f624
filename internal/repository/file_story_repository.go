package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"studyquest-server/internal/fsutil"
	"studyquest-server/internal/models"

	"go.uber.org/zap"
)

// StoriesDir - подкаталог DATA_DIR с документами историй.
const StoriesDir = "user_stories"

var _ StoryRepository = (*fileStoryRepository)(nil)

// fileStoryRepository хранит каждую историю в <dir>/<user_id>.json.
type fileStoryRepository struct {
	dir    string
	logger *zap.Logger
}

// NewFileStoryRepository создает файловый репозиторий в dataDir/user_stories.
func NewFileStoryRepository(dataDir string, logger *zap.Logger) (StoryRepository, error) {
	dir := filepath.Join(dataDir, StoriesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create stories dir %s: %w", dir, err)
	}
	return &fileStoryRepository{dir: dir, logger: logger.Named("FileStoryRepo")}, nil
}

func (r *fileStoryRepository) pathFor(userID string) (string, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return "", err
	}
	return filepath.Join(r.dir, userID+".json"), nil
}

func (r *fileStoryRepository) Get(ctx context.Context, userID string) (*models.StoryState, error) {
	path, err := r.pathFor(userID)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to read story file", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("read story %s: %w", userID, err)
	}
	state, err := models.ParseStoryState(raw)
	if err != nil {
		r.logger.Warn("Story file is corrupt", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("Story loaded", zap.String("userID", userID), zap.Int("segments", len(state.Narrative)))
	return state, nil
}

func (r *fileStoryRepository) Save(ctx context.Context, userID string, state *models.StoryState) error {
	path, err := r.pathFor(userID)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal story %s: %w", userID, err)
	}
	if err := fsutil.WriteFileAtomic(path, raw); err != nil {
		r.logger.Error("Failed to save story file", zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("save story %s: %w", userID, err)
	}
	r.logger.Debug("Story saved", zap.String("userID", userID), zap.Int("segments", len(state.Narrative)))
	return nil
}

func (r *fileStoryRepository) Delete(ctx context.Context, userID string) error {
	path, err := r.pathFor(userID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.ErrNotFound
		}
		return fmt.Errorf("delete story %s: %w", userID, err)
	}
	return nil
}
