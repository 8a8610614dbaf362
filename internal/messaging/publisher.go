package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// TaskPublisher отправляет задачи на фоновую генерацию изображений.
type TaskPublisher interface {
	PublishSceneImageTask(ctx context.Context, payload SceneImageTaskPayload) error
	Close() error
}

type amqpTaskPublisher struct {
	channel *amqp091.Channel
	queue   string
	logger  *zap.Logger
}

// NewAMQPTaskPublisher opens a channel on the given connection and declares
// the durable task queue.
func NewAMQPTaskPublisher(conn *amqp091.Connection, queue string, logger *zap.Logger) (TaskPublisher, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	_, err = channel.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &amqpTaskPublisher{
		channel: channel,
		queue:   queue,
		logger:  logger.Named("TaskPublisher"),
	}, nil
}

// PublishSceneImageTask enqueues one backfill task as a persistent message.
func (p *amqpTaskPublisher) PublishSceneImageTask(ctx context.Context, payload SceneImageTaskPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}
	err = p.channel.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			CorrelationId: payload.TaskID,
			Body:          body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish scene image task",
			zap.String("task_id", payload.TaskID),
			zap.String("story_id", payload.StoryID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to publish task: %w", err)
	}
	p.logger.Info("Scene image task published",
		zap.String("task_id", payload.TaskID),
		zap.String("story_id", payload.StoryID.String()))
	return nil
}

func (p *amqpTaskPublisher) Close() error {
	return p.channel.Close()
}
