package story

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"studyquest-server/internal/ai"
	"studyquest-server/internal/lock"
	"studyquest-server/internal/messaging"
	"studyquest-server/internal/models"
	"studyquest-server/internal/repository"
	"studyquest-server/internal/themes"

	"go.uber.org/zap"
)

const (
	defaultTemperature = 0.7
	generatorUserID    = "story"
)

// Manager ведет состояние историй: загрузка/инициализация, генерация сегментов, статистика.
type Manager struct {
	repo      repository.StoryRepository
	themes    themes.Store
	generator ai.Client
	locker    lock.Locker
	publisher messaging.StoryUpdatePublisher
	logger    *zap.Logger

	temperature float64
	now         func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option настраивает Manager.
type Option func(*Manager)

// WithRand задает источник случайности (детерминированные тесты).
func WithRand(rng *rand.Rand) Option { return func(m *Manager) { m.rng = rng } }

// WithClock подменяет текущее время.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithTemperature задает температуру генерации сегментов.
func WithTemperature(t float64) Option { return func(m *Manager) { m.temperature = t } }

// WithLocker задает блокировку по пользователю (по умолчанию локальная).
func WithLocker(l lock.Locker) Option { return func(m *Manager) { m.locker = l } }

// WithPublisher задает публикатор событий (по умолчанию NopPublisher).
func WithPublisher(p messaging.StoryUpdatePublisher) Option {
	return func(m *Manager) { m.publisher = p }
}

func NewManager(repo repository.StoryRepository, themeStore themes.Store, generator ai.Client, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		repo:        repo,
		themes:      themeStore,
		generator:   generator,
		locker:      lock.NewLocal(),
		publisher:   messaging.NopPublisher{},
		logger:      logger.Named("StoryManager"),
		temperature: defaultTemperature,
		now:         func() time.Time { return time.Now().UTC() },
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load возвращает состояние пользователя или свежее, если записи нет или она повреждена.
// Смена университета по запросу сохраняется сразу. Свежее состояние не сохраняется.
func (m *Manager) Load(ctx context.Context, userID, requestedInstitution string) (*models.StoryState, error) {
	state, _, err := m.load(ctx, userID, requestedInstitution)
	return state, err
}

// load дополнительно сообщает, что состояние создано заново и еще не сохранено.
func (m *Manager) load(ctx context.Context, userID, requestedInstitution string) (*models.StoryState, bool, error) {
	log := m.logger.With(zap.String("userID", userID))

	state, err := m.repo.Get(ctx, userID)
	switch {
	case err == nil:
		if requestedInstitution != "" && requestedInstitution != state.Institution {
			log.Info("Смена университета",
				zap.String("from", state.Institution),
				zap.String("to", requestedInstitution),
			)
			state.Institution = requestedInstitution
			state.LastUpdated = m.now()
			if err := m.repo.Save(ctx, userID, state); err != nil {
				return nil, false, fmt.Errorf("persist institution change: %w", err)
			}
		}
		return state, false, nil

	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrCorruptState):
		if errors.Is(err, models.ErrCorruptState) {
			log.Warn("Повреждённая запись истории, создаём новую", zap.Error(err))
		}
		institution := m.pickInstitution(m.themes.Load(ctx), requestedInstitution)
		log.Info("Новая история", zap.String("university", institution))
		return models.NewStoryState(institution, m.now()), true, nil

	default:
		// хранилище недоступно: не перетираем существующую историю
		log.Error("Не удалось загрузить историю", zap.Error(err))
		return nil, false, fmt.Errorf("load story: %w", err)
	}
}

// GenerateSegment генерирует сегмент, применяет исход сессии, дописывает сегмент и сохраняет состояние.
// Ошибка генератора заменяется текстом-заглушкой. Ошибка сохранения возвращается вызывающему.
func (m *Manager) GenerateSegment(ctx context.Context, userID string, state *models.StoryState, success bool, durationMinutes float64) (string, error) {
	log := m.logger.With(zap.String("userID", userID), zap.Bool("success", success))

	sentiment := models.ForOutcome(success)
	keywords := m.SelectKeywords(m.themes.Load(ctx), state, sentiment)

	prompt := BuildPrompt(PromptInput{
		Institution:     state.Institution,
		LastSegment:     state.LastSegment(),
		DurationMinutes: durationMinutes,
		GPA:             state.Stats.GPA,
		Keywords:        keywords,
		Success:         success,
	})

	segment, _, err := m.generator.GenerateText(ctx, generatorUserID, "", prompt, ai.GenerationParams{
		Temperature: ai.Float64(m.temperature),
	})
	if err != nil || segment == "" {
		log.Warn("Генерация не удалась, используем заглушку", zap.Error(err))
		segment = FallbackSegment(success)
	}

	state.Stats = models.ApplySession(state.Stats, success)
	state.Narrative = append(state.Narrative, segment)
	state.LastUpdated = m.now()

	if err := m.repo.Save(ctx, userID, state); err != nil {
		log.Error("Не удалось сохранить историю", zap.Error(err))
		return "", fmt.Errorf("save story: %w", err)
	}

	log.Info("Сегмент добавлен",
		zap.Int("segments", len(state.Narrative)),
		zap.Int("streak", state.Stats.Streak),
		zap.Float64("gpa", state.Stats.GPA),
		zap.Strings("keywords", keywords),
	)
	return segment, nil
}

// CurrentState возвращает представление состояния для клиента.
func (m *Manager) CurrentState(state *models.StoryState) models.Snapshot {
	return models.CurrentState(state)
}
