package handler

import (
	"context"
	"net/http"

	"studyquest-server/internal/models"
	"studyquest-server/internal/scraper"
	"studyquest-server/internal/story"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StoryService - операции над историей пользователя.
type StoryService interface {
	RecordSession(ctx context.Context, in story.SessionInput) (*story.SessionResult, error)
	Snapshot(ctx context.Context, userID, university string) (models.Snapshot, error)
}

// ThemeRefresher - обновление карты тем.
type ThemeRefresher interface {
	Refresh(ctx context.Context) (*scraper.Result, error)
}

var (
	_ StoryService   = (*story.Manager)(nil)
	_ ThemeRefresher = (*scraper.Scraper)(nil)
)

type StoryHandler struct {
	stories   StoryService
	refresher ThemeRefresher
	logger    *zap.Logger
}

func NewStoryHandler(stories StoryService, refresher ThemeRefresher, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		stories:   stories,
		refresher: refresher,
		logger:    logger.Named("StoryHandler"),
	}
}

// RegisterRoutes регистрирует маршруты. initLimiter ограничивает частоту /init (может быть nil).
func (h *StoryHandler) RegisterRoutes(router gin.IRouter, initLimiter gin.HandlerFunc) {
	initChain := []gin.HandlerFunc{}
	if initLimiter != nil {
		initChain = append(initChain, initLimiter)
	}
	initChain = append(initChain, h.initThemes)

	router.POST("/init", initChain...)
	router.POST("/study-session", h.studySession)
	router.GET("/story/:user_id", h.getStory)
}

type initResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
}

type storyResponse struct {
	Success bool            `json:"success"`
	State   models.Snapshot `json:"state"`
}

type storyQuery struct {
	University string `form:"university" validate:"max=128"`
}

// initThemes godoc
// @Summary      Обновить темы
// @Description  Собирает горячие посты сабреддитов, классифицирует их и перезаписывает карту тем.
// @Tags         Themes
// @Produce      json
// @Success      200  {object}  initResponse
// @Failure      429  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /init [post]
func (h *StoryHandler) initThemes(c *gin.Context) {
	res, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		themeRefreshesTotal.WithLabelValues("error").Inc()
		h.logger.Error("Обновление тем не удалось", zap.Error(err))
		handleServiceError(c, err)
		return
	}
	themeRefreshesTotal.WithLabelValues("ok").Inc()

	c.JSON(http.StatusOK, initResponse{
		Success:  true,
		Message:  res.Message(),
		Positive: res.Positive,
		Negative: res.Negative,
	})
}

// getStory godoc
// @Summary      Текущее состояние истории
// @Description  Возвращает текущее состояние истории без генерации нового сегмента.
// @Tags         Story
// @Produce      json
// @Param        user_id     path   string  true   "ID пользователя"
// @Param        university  query  string  false  "Запрошенный университет"
// @Success      200  {object}  storyResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /story/{user_id} [get]
func (h *StoryHandler) getStory(c *gin.Context) {
	var q storyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handleServiceError(c, invalidInput(err))
		return
	}
	if err := validate.Struct(q); err != nil {
		handleServiceError(c, invalidInput(err))
		return
	}

	snap, err := h.stories.Snapshot(c.Request.Context(), c.Param("user_id"), q.University)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, storyResponse{Success: true, State: snap})
}
