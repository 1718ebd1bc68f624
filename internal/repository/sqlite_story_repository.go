package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studyquest-server/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var _ StoryRepository = (*sqliteStoryRepository)(nil)

// sqliteStoryRepository хранит JSON-документ истории в одной строке таблицы.
type sqliteStoryRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewSQLiteStoryRepository(db *sqlx.DB, logger *zap.Logger) StoryRepository {
	return &sqliteStoryRepository{db: db, logger: logger.Named("SQLiteStoryRepo")}
}

const sqliteUpsertStory = `
INSERT INTO story_states (user_id, document, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    document = excluded.document,
    updated_at = excluded.updated_at`

func (r *sqliteStoryRepository) Get(ctx context.Context, userID string) (*models.StoryState, error) {
	var doc string
	err := r.db.GetContext(ctx, &doc, `SELECT document FROM story_states WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story state", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("get story %s: %w", userID, err)
	}
	state, err := models.ParseStoryState([]byte(doc))
	if err != nil {
		r.logger.Warn("Story document is corrupt", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	return state, nil
}

func (r *sqliteStoryRepository) Save(ctx context.Context, userID string, state *models.StoryState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal story %s: %w", userID, err)
	}
	if _, err := r.db.ExecContext(ctx, sqliteUpsertStory, userID, string(raw), state.LastUpdated.UTC().Format(time.RFC3339)); err != nil {
		r.logger.Error("Failed to upsert story state", zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("save story %s: %w", userID, err)
	}
	return nil
}

func (r *sqliteStoryRepository) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM story_states WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete story %s: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
