package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultProgressEventsQueue is the queue progress events are published to.
const DefaultProgressEventsQueue = "progress_events"

var _ interfaces.ProgressEventPublisher = (*RabbitMQProgressPublisher)(nil)

// RabbitMQProgressPublisher publishes progress events as persistent JSON
// messages to a durable queue via the default exchange.
type RabbitMQProgressPublisher struct {
	mu        sync.Mutex
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQProgressPublisher opens a channel on conn and declares the queue.
func NewRabbitMQProgressPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQProgressPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	if queueName == "" {
		queueName = DefaultProgressEventsQueue
	}
	log := logger.Named("ProgressPublisher")

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("progress publisher: failed to open channel: %w", err)
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
		_ = ch.Close()
		log.Error("Failed to declare queue", zap.String("queue", queueName), zap.Error(err))
		return nil, fmt.Errorf("progress publisher: failed to declare queue '%s': %w", queueName, err)
	}
	log.Info("Progress events queue declared", zap.String("queue", queueName))

	return &RabbitMQProgressPublisher{channel: ch, queueName: queueName, logger: log}, nil
}

// PublishProgressEvent sends one event. The event id is used as the AMQP message id
// so consumers can deduplicate.
func (p *RabbitMQProgressPublisher) PublishProgressEvent(ctx context.Context, event models.ProgressEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Type:         string(event.Type),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish progress event",
			zap.String("type", string(event.Type)),
			zap.Stringer("userID", event.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish progress event: %w", err)
	}

	p.logger.Debug("Progress event published",
		zap.String("type", string(event.Type)),
		zap.Stringer("userID", event.UserID),
		zap.Int("roomID", event.RoomID),
	)
	return nil
}

// Close closes the publisher channel.
func (p *RabbitMQProgressPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}

// ConnectRabbitMQ dials url, retrying up to maxRetries times.
func ConnectRabbitMQ(ctx context.Context, url string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1))
				if closeErr != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		lastErr = err
		logger.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, lastErr)
}
