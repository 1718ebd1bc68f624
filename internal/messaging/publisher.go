package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"studyquest-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// StoryUpdate - событие о новом сегменте истории.
type StoryUpdate struct {
	UserID          string          `json:"user_id"`
	Segment         string          `json:"segment"`
	State           models.Snapshot `json:"state"`
	Success         bool            `json:"success"`
	DurationMinutes float64         `json:"duration_minutes"`
	Timestamp       time.Time       `json:"timestamp"`
}

// StoryUpdatePublisher публикует события об обновлении истории.
type StoryUpdatePublisher interface {
	PublishStoryUpdate(ctx context.Context, update StoryUpdate) error
}

// NopPublisher ничего не публикует (RabbitMQ не настроен).
type NopPublisher struct{}

func (NopPublisher) PublishStoryUpdate(context.Context, StoryUpdate) error { return nil }

// rabbitMQPublisher публикует в очередь через exchange по умолчанию.
type rabbitMQPublisher struct {
	mu        sync.Mutex // amqp.Channel не потокобезопасен для publish
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQStoryPublisher открывает канал и объявляет durable-очередь.
func NewRabbitMQStoryPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (StoryUpdatePublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("story publisher: не удалось открыть канал: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("story publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: logger.Named("StoryPublisher")}, nil
}

func (p *rabbitMQPublisher) PublishStoryUpdate(ctx context.Context, update StoryUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("ошибка подготовки сообщения StoryUpdate: %w", err)
	}
	return p.publishMessage(ctx, body)
}

func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.channel.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Ошибка публикации сообщения", zap.String("queue", p.queueName), zap.Error(err))
		return fmt.Errorf("ошибка публикации в очередь %s: %w", p.queueName, err)
	}
	p.logger.Debug("Сообщение опубликовано", zap.String("queue", p.queueName), zap.Int("bytes", len(body)))
	return nil
}

// ConnectRabbitMQ подключается с повторными попытками.
func ConnectRabbitMQ(url string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		logger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("rabbitmq unavailable: %w", lastErr)
}
