package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studyquest-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStoryRepository creates a PostgreSQL-backed story repository.
func NewPgStoryRepository(pool *pgxpool.Pool, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		pool:   pool,
		logger: logger.Named("PgStoryRepo"),
	}
}

// storyRow mirrors the story_states table.
type storyRow struct {
	UserID      string    `db:"user_id"`
	University  string    `db:"university"`
	StoryArc    []string  `db:"story_arc"`
	Stats       []byte    `db:"stats"`
	CreatedAt   time.Time `db:"created_at"`
	LastUpdated time.Time `db:"last_updated"`
}

const getStoryQuery = `
SELECT user_id, university, story_arc, stats, created_at, last_updated
FROM story_states
WHERE user_id = $1`

const upsertStoryQuery = `
INSERT INTO story_states (user_id, university, story_arc, stats, created_at, last_updated)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
    university = EXCLUDED.university,
    story_arc = EXCLUDED.story_arc,
    stats = EXCLUDED.stats,
    last_updated = EXCLUDED.last_updated
`

const deleteStoryQuery = `DELETE FROM story_states WHERE user_id = $1`

func (r *pgStoryRepository) Get(ctx context.Context, userID string) (*models.StoryState, error) {
	logFields := []zap.Field{zap.String("userID", userID)}

	var row storyRow
	if err := pgxscan.Get(ctx, r.pool, &row, getStoryQuery, userID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story state", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("get story %s: %w", userID, err)
	}

	state := &models.StoryState{
		Institution: row.University,
		Narrative:   row.StoryArc,
		CreatedAt:   row.CreatedAt,
		LastUpdated: row.LastUpdated,
	}
	if err := json.Unmarshal(row.Stats, &state.Stats); err != nil {
		r.logger.Warn("Corrupt stats column", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptState, err)
	}
	if err := state.Validate(); err != nil {
		r.logger.Warn("Story state failed validation", append(logFields, zap.Error(err))...)
		return nil, err
	}
	state.Repair()

	r.logger.Debug("Retrieved story state", append(logFields, zap.Int("segments", len(state.Narrative)))...)
	return state, nil
}

func (r *pgStoryRepository) Save(ctx context.Context, userID string, state *models.StoryState) error {
	logFields := []zap.Field{zap.String("userID", userID), zap.Int("segments", len(state.Narrative))}

	statsJSON, err := json.Marshal(state.Stats)
	if err != nil {
		r.logger.Error("Failed to marshal stats for upsert", append(logFields, zap.Error(err))...)
		return fmt.Errorf("marshal stats: %w", err)
	}

	_, err = r.pool.Exec(ctx, upsertStoryQuery,
		userID,
		state.Institution,
		state.Narrative,
		statsJSON,
		state.CreatedAt,
		state.LastUpdated,
	)
	if err != nil {
		r.logger.Error("Failed to upsert story state", append(logFields, zap.Error(err))...)
		return fmt.Errorf("save story %s: %w", userID, err)
	}

	r.logger.Debug("Story state upserted", logFields...)
	return nil
}

func (r *pgStoryRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, deleteStoryQuery, userID)
	if err != nil {
		r.logger.Error("Failed to delete story state", zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("delete story %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
