// internal/queue/subscriber.go
package queue

import (
	"context"

	"gym-churn-workers/internal/common/config"
	apperrors "gym-churn-workers/internal/common/errors"
	"gym-churn-workers/internal/common/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandleFunc processes one raw message body and reports whether it should be
// acknowledged. Returning false negatively acknowledges the message, which
// requeues it under the broker's default policy.
type HandleFunc func(ctx context.Context, body []byte) (ack bool)

// Subscriber drains the durable queue one message at a time.
type Subscriber struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	prefetch int
	log      logger.Logger
}

// NewSubscriber connects to the broker, declares the durable queue and applies
// the prefetch limit bounding in-flight messages per consumer instance.
func NewSubscriber(cfg config.RabbitMQConfig, log logger.Logger) (*Subscriber, error) {
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

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, apperrors.NewBrokerConnectFailedError(err)
	}

	return &Subscriber{
		conn:     conn,
		ch:       ch,
		queue:    cfg.Queue,
		prefetch: cfg.Prefetch,
		log:      log,
	}, nil
}

// Consume blocks on the delivery stream, invoking handle for each message and
// acknowledging per its decision. Returns when the context is cancelled or the
// delivery channel closes.
func (s *Subscriber) Consume(ctx context.Context, handle HandleFunc) error {
	deliveries, err := s.ch.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return apperrors.NewBrokerConnectFailedError(err)
	}

	s.log.Info("Consumer waiting for messages", map[string]interface{}{
		"queue":    s.queue,
		"prefetch": s.prefetch,
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, open := <-deliveries:
			if !open {
				return apperrors.NewBrokerConnectFailedError(amqp.ErrClosed)
			}
			if handle(ctx, delivery.Body) {
				if err := delivery.Ack(false); err != nil {
					s.log.WithError(err).Error("Failed to ack message", map[string]interface{}{
						"delivery_tag": delivery.DeliveryTag,
					})
				}
			} else {
				if err := delivery.Nack(false, true); err != nil {
					s.log.WithError(err).Error("Failed to nack message", map[string]interface{}{
						"delivery_tag": delivery.DeliveryTag,
					})
				}
			}
		}
	}
}

// Close releases the channel and connection.
func (s *Subscriber) Close() error {
	if s.ch != nil {
		s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
