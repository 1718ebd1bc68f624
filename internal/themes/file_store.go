package themes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"studyquest-server/internal/fsutil"
	"studyquest-server/internal/models"

	"go.uber.org/zap"
)

// FileName - имя файла тем внутри каталога данных.
const FileName = "theme_keywords.json"

// FileStore хранит темы в JSON-файле.
type FileStore struct {
	path   string
	logger *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore создает файловое хранилище тем в dataDir.
func NewFileStore(dataDir string, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:   filepath.Join(dataDir, FileName),
		logger: logger.Named("ThemeFileStore"),
	}
}

// Path возвращает путь к файлу тем.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) models.ThemeMap {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("Theme file unavailable, using empty themes", zap.String("path", s.path), zap.Error(err))
		return models.NewThemeMap()
	}
	themes, err := Parse(raw)
	if err != nil {
		s.logger.Warn("Theme file invalid, using empty themes", zap.String("path", s.path), zap.Error(err))
		return models.NewThemeMap()
	}
	return themes
}

func (s *FileStore) Save(ctx context.Context, themes models.ThemeMap) error {
	raw, err := Encode(themes)
	if err != nil {
		return fmt.Errorf("encode themes: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, raw); err != nil {
		return fmt.Errorf("save themes: %w", err)
	}
	pos, neg := themes.Counts()
	s.logger.Info("Themes saved", zap.String("path", s.path), zap.Int("positive", pos), zap.Int("negative", neg))
	return nil
}
