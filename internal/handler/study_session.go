package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"studyquest-server/internal/models"
	"studyquest-server/internal/story"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxSessionBody = 64 << 10

// minutes принимает число или строку с числом.
type minutes float64

func (m *minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*m = minutes(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = minutes(v)
	return nil
}

type studySessionRequest struct {
	UserID          *string  `json:"user_id" validate:"omitnil,min=1,max=128"`
	PlannedDuration *minutes `json:"planned_duration" validate:"omitnil,gte=0"`
	ActualDuration  *minutes `json:"actual_duration" validate:"omitnil,gte=0"`
	University      *string  `json:"university" validate:"omitnil,max=128"`
}

func (r studySessionRequest) toInput() story.SessionInput {
	in := story.SessionInput{
		UserID:         models.DefaultUserID,
		PlannedMinutes: story.DefaultDurationMinutes,
		ActualMinutes:  story.DefaultDurationMinutes,
	}
	if r.UserID != nil {
		in.UserID = *r.UserID
	}
	if r.PlannedDuration != nil {
		in.PlannedMinutes = float64(*r.PlannedDuration)
	}
	if r.ActualDuration != nil {
		in.ActualMinutes = float64(*r.ActualDuration)
	}
	if r.University != nil {
		in.University = strings.TrimSpace(*r.University)
	}
	return in
}

type studySessionResponse struct {
	Success bool            `json:"success"`
	Segment string          `json:"segment"`
	State   models.Snapshot `json:"state"`
}

// studySession godoc
// @Summary      Завершить учебную сессию
// @Description  Регистрирует завершенную учебную сессию и генерирует следующий сегмент истории.
// @Tags         Story
// @Accept       json
// @Produce      json
// @Param        request  body      studySessionRequest  false  "Параметры сессии"
// @Success      200      {object}  studySessionResponse
// @Failure      400      {object}  models.ErrorResponse
// @Failure      500      {object}  models.ErrorResponse
// @Router       /study-session [post]
func (h *StoryHandler) studySession(c *gin.Context) {
	var req studySessionRequest
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxSessionBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("Некорректное тело study-session", zap.Error(err))
		handleServiceError(c, invalidInput(err))
		return
	}
	if err := validate.Struct(req); err != nil {
		handleServiceError(c, invalidInput(err))
		return
	}

	in := req.toInput()
	res, err := h.stories.RecordSession(c.Request.Context(), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	outcome := "failure"
	if res.Success {
		outcome = "success"
	}
	studySessionsTotal.WithLabelValues(outcome).Inc()

	c.JSON(http.StatusOK, studySessionResponse{Success: true, Segment: res.Segment, State: res.State})
}
