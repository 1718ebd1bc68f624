package story

import (
	"context"
	"fmt"
	"math"

	"studyquest-server/internal/messaging"
	"studyquest-server/internal/models"

	"go.uber.org/zap"
)

// DefaultDurationMinutes - длительность по умолчанию для planned/actual.
const DefaultDurationMinutes = 30.0

// SessionInput - завершенная учебная сессия.
type SessionInput struct {
	UserID         string
	PlannedMinutes float64
	ActualMinutes  float64
	University     string
}

// Success - сессия успешна, если фактическая длительность не меньше плановой.
func (in SessionInput) Success() bool {
	return in.ActualMinutes >= in.PlannedMinutes
}

// Validate проверяет вход до любых обращений к состоянию.
func (in SessionInput) Validate() error {
	if err := models.ValidateUserID(in.UserID); err != nil {
		return err
	}
	if err := validateMinutes("planned_duration", in.PlannedMinutes); err != nil {
		return err
	}
	return validateMinutes("actual_duration", in.ActualMinutes)
}

func validateMinutes(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a non-negative number", models.ErrInvalidInput, name)
	}
	return nil
}

// SessionResult - ответ на завершенную сессию.
type SessionResult struct {
	Segment string
	State   models.Snapshot
	Success bool
}

// RecordSession обрабатывает событие завершения сессии под блокировкой пользователя:
// загрузка, генерация, сохранение, публикация события.
func (m *Manager) RecordSession(ctx context.Context, in SessionInput) (*SessionResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	unlock, err := m.locker.Lock(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("acquire user lock: %w", err)
	}
	defer unlock()

	state, err := m.Load(ctx, in.UserID, in.University)
	if err != nil {
		return nil, err
	}

	success := in.Success()
	segment, err := m.GenerateSegment(ctx, in.UserID, state, success, in.ActualMinutes)
	if err != nil {
		return nil, err
	}

	result := &SessionResult{Segment: segment, State: m.CurrentState(state), Success: success}

	update := messaging.StoryUpdate{
		UserID:          in.UserID,
		Segment:         segment,
		State:           result.State,
		Success:         success,
		DurationMinutes: in.ActualMinutes,
		Timestamp:       state.LastUpdated,
	}
	if err := m.publisher.PublishStoryUpdate(ctx, update); err != nil {
		// событие вторично: сессия уже сохранена
		m.logger.Warn("Не удалось опубликовать обновление истории", zap.String("userID", in.UserID), zap.Error(err))
	}
	return result, nil
}

// Snapshot возвращает текущее состояние пользователя без генерации.
// Новое состояние сохраняется при первом обращении.
func (m *Manager) Snapshot(ctx context.Context, userID, university string) (models.Snapshot, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return models.Snapshot{}, err
	}

	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("acquire user lock: %w", err)
	}
	defer unlock()

	state, fresh, err := m.load(ctx, userID, university)
	if err != nil {
		return models.Snapshot{}, err
	}
	if fresh {
		// первое обращение фиксирует выбранный университет
		if err := m.repo.Save(ctx, userID, state); err != nil {
			return models.Snapshot{}, fmt.Errorf("save new story: %w", err)
		}
	}
	return m.CurrentState(state), nil
}
