package models_test

import (
	"testing"
	"time"

	"studyquest-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySession(t *testing.T) {
	t.Run("Success increments streak and gpa", func(t *testing.T) {
		next := models.ApplySession(models.Stats{Streak: 2, GPA: 3.5, Term: 1}, true)
		assert.Equal(t, 3, next.Streak)
		assert.InDelta(t, 3.6, next.GPA, 1e-9)
		assert.Equal(t, 0, next.FailedSessions)
		assert.Equal(t, 1, next.Term)
	})

	t.Run("Success clamps gpa at 4.0", func(t *testing.T) {
		next := models.ApplySession(models.Stats{GPA: 3.95, Term: 1}, true)
		assert.Equal(t, 4.0, next.GPA)

		next = models.ApplySession(models.Stats{GPA: 4.0, Term: 1}, true)
		assert.Equal(t, 4.0, next.GPA)
	})

	t.Run("Failure resets streak and clamps gpa at 0", func(t *testing.T) {
		next := models.ApplySession(models.Stats{Streak: 5, GPA: 0.1, Term: 2, FailedSessions: 1}, false)
		assert.Equal(t, 0, next.Streak)
		assert.Equal(t, 0.0, next.GPA)
		assert.Equal(t, 2, next.FailedSessions)
		assert.Equal(t, 2, next.Term)
	})

	t.Run("Failure from full gpa", func(t *testing.T) {
		next := models.ApplySession(models.InitialStats(), false)
		assert.InDelta(t, 3.7, next.GPA, 1e-9)
		assert.Equal(t, 1, next.FailedSessions)
	})

	t.Run("Gpa stays in range over long sequences", func(t *testing.T) {
		stats := models.InitialStats()
		outcomes := []bool{false, false, false, false, false, false, false, false, false, false, false, false, false, false, true, true, true}
		for _, ok := range outcomes {
			stats = models.ApplySession(stats, ok)
			assert.GreaterOrEqual(t, stats.GPA, models.MinGPA)
			assert.LessOrEqual(t, stats.GPA, models.MaxGPA)
		}
		assert.Equal(t, 3, stats.Streak)
		assert.Equal(t, 14, stats.FailedSessions)
		assert.Equal(t, 1, stats.Term)
	})
}

func TestCurrentState(t *testing.T) {
	state := models.NewStoryState("mcgill", time.Now())
	snap := models.CurrentState(state)
	assert.Equal(t, "mcgill", snap.University)
	assert.Equal(t, models.SeedSegment, snap.CurrentSegment)
	assert.Equal(t, "", snap.StreakStatus)

	state.Stats.Streak = 2
	assert.Equal(t, "🔥🔥", models.CurrentState(state).StreakStatus)

	state.Stats.Streak = 10
	state.Narrative = append(state.Narrative, "second")
	snap = models.CurrentState(state)
	assert.Equal(t, "🔥🔥🔥", snap.StreakStatus)
	assert.Equal(t, "second", snap.CurrentSegment)
}

func TestParseStoryState(t *testing.T) {
	t.Run("Valid document", func(t *testing.T) {
		raw := []byte(`{"university":"UBC","story_arc":["a","b"],"stats":{"streak":1,"gpa":3.2,"term":1,"failed_sessions":0},"created_at":"2024-01-01T00:00:00Z","last_updated":"2024-01-02T00:00:00Z"}`)
		state, err := models.ParseStoryState(raw)
		require.NoError(t, err)
		assert.Equal(t, "UBC", state.Institution)
		assert.Equal(t, []string{"a", "b"}, state.Narrative)
		assert.Equal(t, 3.2, state.Stats.GPA)
	})

	t.Run("Malformed json", func(t *testing.T) {
		_, err := models.ParseStoryState([]byte(`{"university":`))
		assert.ErrorIs(t, err, models.ErrCorruptState)
	})

	t.Run("Empty narrative", func(t *testing.T) {
		_, err := models.ParseStoryState([]byte(`{"university":"UBC","story_arc":[],"stats":{"gpa":3,"term":1}}`))
		assert.ErrorIs(t, err, models.ErrCorruptState)
	})

	t.Run("Missing term defaults to first term", func(t *testing.T) {
		raw := []byte(`{"university":"UofT","story_arc":["seed","s1","s2"],"stats":{"streak":2,"gpa":3.5,"failed_sessions":0}}`)
		state, err := models.ParseStoryState(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"seed", "s1", "s2"}, state.Narrative)
		assert.Equal(t, models.Stats{Streak: 2, GPA: 3.5, Term: 1, FailedSessions: 0}, state.Stats)
	})

	t.Run("Out of range stats are clamped", func(t *testing.T) {
		raw := []byte(`{"university":"UBC","story_arc":["x"],"stats":{"streak":-4,"gpa":7,"term":-2,"failed_sessions":-1}}`)
		state, err := models.ParseStoryState(raw)
		require.NoError(t, err)
		assert.Equal(t, models.Stats{Streak: 0, GPA: 4.0, Term: 1, FailedSessions: 0}, state.Stats)

		state, err = models.ParseStoryState([]byte(`{"university":"UBC","story_arc":["x"],"stats":{"gpa":-1}}`))
		require.NoError(t, err)
		assert.Equal(t, 0.0, state.Stats.GPA)
	})

	t.Run("Missing stats", func(t *testing.T) {
		_, err := models.ParseStoryState([]byte(`{"university":"UBC","story_arc":["x"]}`))
		assert.ErrorIs(t, err, models.ErrCorruptState)

		_, err = models.ParseStoryState([]byte(`{"university":"UBC","story_arc":["x"],"stats":null}`))
		assert.ErrorIs(t, err, models.ErrCorruptState)
	})

	t.Run("Missing university", func(t *testing.T) {
		_, err := models.ParseStoryState([]byte(`{"story_arc":["x"],"stats":{"gpa":3}}`))
		assert.ErrorIs(t, err, models.ErrCorruptState)
	})
}

func TestValidateUserID(t *testing.T) {
	for _, id := range []string{"default", "alice", "user-1_a.b", "a@b.c"} {
		assert.NoError(t, models.ValidateUserID(id), id)
	}
	for _, id := range []string{"", ".", "..", "../etc/passwd", "a/b", "with space"} {
		assert.ErrorIs(t, models.ValidateUserID(id), models.ErrInvalidInput, id)
	}
}

func TestStoryState_TimestampFormats(t *testing.T) {
	raw := []byte(`{"university":"UBC","story_arc":["x"],"stats":{"gpa":3,"term":1},"created_at":"2024-03-01T12:00:00.5","last_updated":"2024-03-02T12:00:00Z"}`)
	state, err := models.ParseStoryState(raw)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, state.CreatedAt.Location())
	assert.Equal(t, 500000000, state.CreatedAt.Nanosecond())
	assert.Equal(t, 2, state.LastUpdated.Day())

	_, err = models.ParseStoryState([]byte(`{"university":"UBC","story_arc":["x"],"stats":{"gpa":3,"term":1},"created_at":"yesterday"}`))
	assert.ErrorIs(t, err, models.ErrCorruptState)
}
