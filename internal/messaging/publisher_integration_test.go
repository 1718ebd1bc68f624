//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"studyquest-server/internal/messaging"
	"studyquest-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestRabbitMQStoryPublisher(t *testing.T) {
	ctx := context.Background()

	rmqContainer, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rmqContainer.Terminate(ctx) })

	url, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	conn, err := messaging.ConnectRabbitMQ(url, 5, time.Second, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	pub, err := messaging.NewRabbitMQStoryPublisher(conn, "story_updates_test", zap.NewNop())
	require.NoError(t, err)

	update := messaging.StoryUpdate{
		UserID:          "alice",
		Segment:         "You aced the midterm.",
		State:           models.Snapshot{University: "UofT", CurrentSegment: "You aced the midterm.", Stats: models.Stats{Streak: 1, GPA: 4, Term: 1}, StreakStatus: "🔥"},
		Success:         true,
		DurationMinutes: 40,
		Timestamp:       time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.PublishStoryUpdate(ctx, update))

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var (
		body []byte
		ok   bool
	)
	require.Eventually(t, func() bool {
		msg, got, getErr := ch.Get("story_updates_test", true)
		if getErr != nil || !got {
			return false
		}
		body, ok = msg.Body, true
		return true
	}, 5*time.Second, 100*time.Millisecond)
	require.True(t, ok)

	var decoded messaging.StoryUpdate
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, update.UserID, decoded.UserID)
	assert.Equal(t, update.Segment, decoded.Segment)
	assert.Equal(t, "🔥", decoded.State.StreakStatus)
	assert.True(t, update.Timestamp.Equal(decoded.Timestamp))
}
