// internal/queue/publisher.go
package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gym-churn-workers/internal/common/config"
	apperrors "gym-churn-workers/internal/common/errors"
	"gym-churn-workers/internal/common/logger"
	"gym-churn-workers/internal/common/metrics"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Gateway is the publish side of the event pipeline. Publish failures are
// best-effort from the caller's point of view: the caller's committed state is
// never rolled back on a failed publish.
type Gateway interface {
	Publish(ctx context.Context, message interface{}) error
}

// Publisher enqueues typed event messages on the shared durable queue.
type Publisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   logger.Logger
}

// NewPublisher connects to the broker and declares the durable queue so
// publishes survive a broker restart.
func NewPublisher(cfg config.RabbitMQConfig, log logger.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.GetURL())
	if err != nil {
		return nil, apperrors.NewBrokerConnectFailedError(err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, apperrors.NewBrokerConnectFailedError(err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, apperrors.NewBrokerConnectFailedError(err)
	}

	return &Publisher{
		conn:  conn,
		ch:    ch,
		queue: cfg.Queue,
		log:   log,
	}, nil
}

// Publish serializes the message and enqueues it with persistent delivery mode.
func (p *Publisher) Publish(ctx context.Context, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return apperrors.NewValidationFailedError("message not serializable: " + err.Error())
	}

	eventType := eventTypeOf(body)

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	p.mu.Unlock()

	if err != nil {
		metrics.EventsPublished.WithLabelValues(eventType, "failure").Inc()
		return apperrors.NewBrokerPublishFailedError(p.queue, err)
	}

	metrics.EventsPublished.WithLabelValues(eventType, "success").Inc()
	p.log.Debug("Event published", map[string]interface{}{
		"queue":      p.queue,
		"event_type": eventType,
	})
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// eventTypeOf peeks at the type tag for metric labels only.
func eventTypeOf(body []byte) string {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Type == "" {
		return "unknown"
	}
	return envelope.Type
}
