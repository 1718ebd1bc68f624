package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// SeedSegment - первый сегмент любой новой истории.
const SeedSegment = "You've just arrived at university. Your journey begins..."

// FallbackInstitution используется, когда в темах нет ни одного университета.
const FallbackInstitution = "uwaterloo"

const (
	MaxGPA     = 4.0
	MinGPA     = 0.0
	GPAGain    = 0.1
	GPAPenalty = 0.3

	maxStreakIcons = 3
	streakIcon     = "🔥"
)

// Stats - игровые показатели пользователя.
type Stats struct {
	Streak         int     `json:"streak" db:"streak"`
	GPA            float64 `json:"gpa" db:"gpa"`
	Term           int     `json:"term" db:"term"`
	FailedSessions int     `json:"failed_sessions" db:"failed_sessions"`
}

// InitialStats возвращает показатели новой истории.
func InitialStats() Stats {
	return Stats{Streak: 0, GPA: MaxGPA, Term: 1, FailedSessions: 0}
}

// StoryState - персистентное состояние истории одного пользователя.
// Narrative только дополняется, Narrative[0] всегда SeedSegment.
type StoryState struct {
	Institution string    `json:"university"`
	Narrative   []string  `json:"story_arc"`
	Stats       Stats     `json:"stats"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewStoryState создает свежее состояние для заданного университета.
func NewStoryState(institution string, now time.Time) *StoryState {
	return &StoryState{
		Institution: institution,
		Narrative:   []string{SeedSegment},
		Stats:       InitialStats(),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// LastSegment возвращает последний сегмент повествования.
func (s *StoryState) LastSegment() string {
	if len(s.Narrative) == 0 {
		return ""
	}
	return s.Narrative[len(s.Narrative)-1]
}

// Validate проверяет обязательные части документа: университет и непустую историю.
// Показатели вне диапазона не считаются порчей, их исправляет Repair.
func (s *StoryState) Validate() error {
	switch {
	case strings.TrimSpace(s.Institution) == "":
		return fmt.Errorf("%w: empty university", ErrCorruptState)
	case len(s.Narrative) == 0:
		return fmt.Errorf("%w: empty story arc", ErrCorruptState)
	}
	return nil
}

// Repair приводит показатели к допустимым значениям: term >= 1, gpa в [0, 4],
// неотрицательные счетчики.
func (s *StoryState) Repair() {
	if s.Stats.Term < 1 {
		s.Stats.Term = 1
	}
	switch {
	case math.IsNaN(s.Stats.GPA):
		s.Stats.GPA = MaxGPA
	case s.Stats.GPA < MinGPA:
		s.Stats.GPA = MinGPA
	case s.Stats.GPA > MaxGPA:
		s.Stats.GPA = MaxGPA
	}
	if s.Stats.Streak < 0 {
		s.Stats.Streak = 0
	}
	if s.Stats.FailedSessions < 0 {
		s.Stats.FailedSessions = 0
	}
}

// naiveTimeLayout - ISO-время без зоны, как в документах, записанных до перехода на RFC3339.
const naiveTimeLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON принимает created_at/last_updated как в RFC3339, так и без зоны (считается UTC).
func (s *StoryState) UnmarshalJSON(data []byte) error {
	type alias StoryState
	aux := struct {
		*alias
		CreatedAt   string `json:"created_at"`
		LastUpdated string `json:"last_updated"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if s.CreatedAt, err = parseTimestamp(aux.CreatedAt); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if s.LastUpdated, err = parseTimestamp(aux.LastUpdated); err != nil {
		return fmt.Errorf("last_updated: %w", err)
	}
	return nil
}

func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation(naiveTimeLayout, v, time.UTC)
}

// ParseStoryState разбирает JSON-документ истории.
// Документ без university, story_arc или stats считается испорченным (ErrCorruptState),
// остальные поля восстанавливаются через Repair.
func ParseStoryState(raw []byte) (*StoryState, error) {
	var state StoryState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	var presence struct {
		Stats json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal(raw, &presence); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if len(presence.Stats) == 0 || string(presence.Stats) == "null" {
		return nil, fmt.Errorf("%w: missing stats", ErrCorruptState)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	state.Repair()
	return &state, nil
}

// ApplySession - чистый переход показателей по итогу учебной сессии.
// Term не меняется.
func ApplySession(stats Stats, success bool) Stats {
	next := stats
	if success {
		next.Streak++
		next.GPA = math.Min(MaxGPA, stats.GPA+GPAGain)
	} else {
		next.Streak = 0
		next.FailedSessions++
		next.GPA = math.Max(MinGPA, stats.GPA-GPAPenalty)
	}
	return next
}

// Snapshot - представление состояния для клиента.
type Snapshot struct {
	University     string `json:"university"`
	CurrentSegment string `json:"current_segment"`
	Stats          Stats  `json:"stats"`
	StreakStatus   string `json:"streak_status"`
}

// CurrentState строит Snapshot из состояния.
func CurrentState(state *StoryState) Snapshot {
	icons := state.Stats.Streak
	if icons > maxStreakIcons {
		icons = maxStreakIcons
	}
	if icons < 0 {
		icons = 0
	}
	return Snapshot{
		University:     state.Institution,
		CurrentSegment: state.LastSegment(),
		Stats:          state.Stats,
		StreakStatus:   strings.Repeat(streakIcon, icons),
	}
}

// DefaultUserID используется, когда клиент не передал user_id.
const DefaultUserID = "default"

const maxUserIDLength = 128

// ValidateUserID проверяет, что идентификатор пригоден как имя файла и ключ.
func ValidateUserID(userID string) error {
	if userID == "" || len(userID) > maxUserIDLength || userID == "." || userID == ".." {
		return fmt.Errorf("%w: bad user_id %q", ErrInvalidInput, userID)
	}
	for _, r := range userID {
		ok := r == '-' || r == '_' || r == '.' || r == '@' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return fmt.Errorf("%w: bad user_id %q", ErrInvalidInput, userID)
		}
	}
	return nil
}
